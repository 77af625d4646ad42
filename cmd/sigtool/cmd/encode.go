package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roffe/cansig"
	"github.com/roffe/cansig/pkg/slcan"
)

func init() {
	rootCmd.AddCommand(encodeCmd)
	addLayoutFlags(encodeCmd)
	fs := encodeCmd.Flags()
	fs.String(flagID, "", "frame identifier, 0x hex or decimal")
	fs.BoolP(flagWire, "w", false, "also print the 16 byte binary frame as hex")
	fs.StringP(flagOut, "o", "", "append the frame to an slcan capture file")
}

var encodeCmd = &cobra.Command{
	Use:   "encode <value>",
	Short: "encode a physical value into a frame payload",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		physical, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("failed to parse value %q: %v", args[0], err)
		}
		def, err := resolveSignal(cmd)
		if err != nil {
			return err
		}
		id := def.ID
		if cmd.Flags().Changed(flagID) {
			if id, err = identifierFlag(cmd); err != nil {
				return err
			}
		}

		raw, saturated := def.Layout.EncodeClamped(physical)
		f := &cansig.Frame{
			Identifier: id,
			Extended:   id > cansig.MaxStandardID,
			Length:     cansig.MaxDataLength,
		}
		cansig.InsertSignal(f, def.Layout.StartBit, def.Layout.Length, raw, def.Layout.Order)
		if err := f.Validate(); err != nil {
			return err
		}

		if saturated {
			fmt.Println(yellow("input %g %s saturates to %g %s (raw %d)",
				physical, def.Unit, def.Decode(f), def.Unit, raw))
		}
		fmt.Println(f.ColorString())

		token, err := slcan.Marshal(f)
		if err != nil {
			return err
		}
		fmt.Println("slcan:", token)

		if ok, _ := cmd.Flags().GetBool(flagWire); ok {
			wire, err := f.MarshalBinary()
			if err != nil {
				return err
			}
			fmt.Printf("wire: %X\n", wire)
		}

		if out, _ := cmd.Flags().GetString(flagOut); out != "" {
			if err := appendFrame(out, f); err != nil {
				return err
			}
			fmt.Println(green("appended to %s", out))
		}
		return nil
	},
}

func appendFrame(path string, f *cansig.Frame) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open capture %q: %w", path, err)
	}
	defer file.Close()
	return slcan.NewWriter(file).WriteFrame(f)
}
