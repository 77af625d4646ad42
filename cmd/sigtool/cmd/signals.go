package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roffe/cansig/pkg/signals"
)

func init() {
	rootCmd.AddCommand(signalsCmd)
}

var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "list the registered signals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, def := range signals.List() {
			line := def.String()
			if len(def.Alias) > 0 {
				line += fmt.Sprintf(" (alias %v)", def.Alias)
			}
			fmt.Println(line)
		}
		return nil
	},
}
