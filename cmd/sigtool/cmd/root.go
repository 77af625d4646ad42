package cmd

import (
	"context"
	"log"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "sigtool",
	Short:        "CAN signal swish army tool",
	Long:         `Decode, encode and watch scaled signals inside CAN frame payloads`,
	SilenceUsage: true,
	// Uncomment the following line if your bare application
	// has an action associated with it:
	// Run: func(cmd *cobra.Command, args []string) { },
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

const (
	flagSignal  = "signal"
	flagID      = "id"
	flagData    = "data"
	flagStart   = "start"
	flagLength  = "length"
	flagFactor  = "factor"
	flagOffset  = "offset"
	flagMin     = "min"
	flagMax     = "max"
	flagOrder   = "order"
	flagSigned  = "signed"
	flagFollow  = "follow"
	flagSeekEnd = "seek-end"
	flagBCD     = "bcd"
	flagWire    = "wire"
	flagOut     = "out"
	flagWorkers = "workers"
	flagQuiet   = "quiet"
)

func init() {
	log.SetFlags(log.Lshortfile | log.LstdFlags)
}

// addLayoutFlags registers the bit layout flag set shared by the commands
// that address a signal without a registry name.
func addLayoutFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringP(flagSignal, "s", "", "named signal from the registry")
	fs.Uint8(flagStart, 0, "start bit, for motorola the signal's most significant bit")
	fs.Uint8(flagLength, 0, "signal width in bits, 1-64")
	fs.Float64(flagFactor, 1, "physical = raw*factor + offset")
	fs.Float64(flagOffset, 0, "physical = raw*factor + offset")
	fs.Float64(flagMin, 0, "lower physical bound")
	fs.Float64(flagMax, 0, "upper physical bound")
	fs.String(flagOrder, "intel", "byte order, intel or motorola")
	fs.Bool(flagSigned, false, "two's complement signal")
}
