package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/roffe/cansig"
	"github.com/roffe/cansig/pkg/signals"
	"github.com/roffe/cansig/pkg/tail"
)

func init() {
	rootCmd.AddCommand(decodeCmd)
	addLayoutFlags(decodeCmd)
	fs := decodeCmd.Flags()
	fs.String(flagID, "", "frame identifier, 0x hex or decimal")
	fs.StringP(flagData, "D", "", "payload bytes as hex")
	fs.StringP(flagFollow, "f", "", "follow an slcan capture file instead of decoding --data")
	fs.Bool(flagSeekEnd, false, "with --follow, skip existing capture content")
	fs.Bool(flagBCD, false, "also show the raw window as packed BCD digits")
}

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "decode a signal from a payload or a capture file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		def, err := resolveSignal(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed(flagFollow) {
			return followDecode(cmd, def)
		}
		data, err := cmd.Flags().GetString(flagData)
		if err != nil {
			return err
		}
		if data == "" {
			return errors.New("provide --data or --follow")
		}
		payload, err := parsePayload(data)
		if err != nil {
			return err
		}
		id := def.ID
		if cmd.Flags().Changed(flagID) {
			if id, err = identifierFlag(cmd); err != nil {
				return err
			}
		}
		f, err := frameFor(id, payload)
		if err != nil {
			return err
		}
		fmt.Println(f.ColorString())
		printSignal(cmd, def, f)
		return nil
	},
}

func printSignal(cmd *cobra.Command, def *signals.Definition, f *cansig.Frame) {
	raw := cansig.ExtractSignal(f, def.Layout.StartBit, def.Layout.Length, def.Layout.Order)
	physical, clamped := def.DecodeClamped(f)
	line := fmt.Sprintf("%s = %.2f %s (raw %d, 0x%X)", def.Name, physical, def.Unit, raw, raw)
	if clamped {
		line += " " + yellow("[clamped to range bound]")
	}
	fmt.Println(line)
	if ok, _ := cmd.Flags().GetBool(flagBCD); ok {
		fmt.Printf("bcd: %d\n", bcdValue(raw, def.Layout.Length))
	}
}

func followDecode(cmd *cobra.Command, def *signals.Definition) error {
	ctx := cmd.Context()
	path, err := cmd.Flags().GetString(flagFollow)
	if err != nil {
		return err
	}
	var opts []tail.Option
	if ok, _ := cmd.Flags().GetBool(flagSeekEnd); ok {
		opts = append(opts, tail.WithSeekEnd())
	}
	frames, errs := tail.Follow(ctx, path, opts...)
	go func() {
		for err := range errs {
			log.Println(err)
		}
	}()

	stream := cansig.NewStream(frames)
	go stream.Run(ctx)
	defer stream.Close()

	var sub *cansig.Subscriber
	if def.ID != 0 {
		sub = stream.Subscribe(def.ID)
	} else {
		sub = stream.Subscribe()
	}
	defer sub.Close()

	for {
		f, err := sub.Next(ctx)
		if err != nil {
			if errors.Is(err, cansig.ErrSubscriberClosed) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		physical, clamped := def.DecodeClamped(f)
		line := fmt.Sprintf("%s || %s || %s = %.2f %s",
			time.Now().Format("15:04:05.00000"), f.String(), def.Name, physical, def.Unit)
		if clamped {
			line += " " + yellow("[clamped]")
		}
		fmt.Println(line)
	}
}
