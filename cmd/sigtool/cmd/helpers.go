package cmd

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/albenik/bcd"
	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/roffe/cansig"
	"github.com/roffe/cansig/pkg/signals"
)

var (
	green  = color.New(color.FgGreen).SprintfFunc()
	red    = color.New(color.FgRed).SprintfFunc()
	yellow = color.New(color.FgYellow).SprintfFunc()
)

// resolveSignal returns the definition addressed on the command line:
// --signal looks up the registry, a set --length builds an unnamed
// definition from the layout flags, anything else asks interactively.
func resolveSignal(cmd *cobra.Command) (*signals.Definition, error) {
	fs := cmd.Flags()
	if name, err := fs.GetString(flagSignal); err != nil {
		return nil, err
	} else if name != "" {
		return signals.Lookup(name)
	}
	if fs.Changed(flagLength) {
		l, err := layoutFromFlags(cmd)
		if err != nil {
			return nil, err
		}
		def := &signals.Definition{Name: "custom", Layout: l}
		if fs.Changed(flagID) {
			id, err := identifierFlag(cmd)
			if err != nil {
				return nil, err
			}
			def.ID = id
		}
		return def, nil
	}
	prompt := promptui.Select{
		Label:    "Signal",
		HideHelp: true,
		Items:    signals.Names(),
	}
	_, result, err := prompt.Run()
	if err != nil {
		return nil, fmt.Errorf("prompt failed: %w", err)
	}
	return signals.Lookup(result)
}

// layoutFromFlags builds and validates a layout from the shared flag set.
// An unset bound is left wide open, so a lone --min or --max clamps that
// side only.
func layoutFromFlags(cmd *cobra.Command) (cansig.SignalLayout, error) {
	fs := cmd.Flags()
	var l cansig.SignalLayout
	var err error
	if l.StartBit, err = fs.GetUint8(flagStart); err != nil {
		return l, err
	}
	if l.Length, err = fs.GetUint8(flagLength); err != nil {
		return l, err
	}
	if l.Factor, err = fs.GetFloat64(flagFactor); err != nil {
		return l, err
	}
	if l.Offset, err = fs.GetFloat64(flagOffset); err != nil {
		return l, err
	}
	if l.Min, err = fs.GetFloat64(flagMin); err != nil {
		return l, err
	}
	if l.Max, err = fs.GetFloat64(flagMax); err != nil {
		return l, err
	}
	if !fs.Changed(flagMin) {
		l.Min = -math.MaxFloat64
	}
	if !fs.Changed(flagMax) {
		l.Max = math.MaxFloat64
	}
	order, err := fs.GetString(flagOrder)
	if err != nil {
		return l, err
	}
	if l.Order, err = cansig.ParseByteOrder(order); err != nil {
		return l, err
	}
	if l.Signed, err = fs.GetBool(flagSigned); err != nil {
		return l, err
	}
	if err := l.Validate(); err != nil {
		return l, err
	}
	return l, nil
}

func identifierFlag(cmd *cobra.Command) (uint32, error) {
	s, err := cmd.Flags().GetString(flagID)
	if err != nil {
		return 0, err
	}
	return parseIdentifier(s)
}

// parseIdentifier accepts 0x-prefixed hex or plain decimal.
func parseIdentifier(s string) (uint32, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 0, 32)
	if err != nil {
		return 0, fmt.Errorf("failed to decode identifier %q: %v", s, err)
	}
	return uint32(id), nil
}

// parsePayload accepts hex bytes with or without space, comma or colon
// separators.
func parsePayload(s string) ([]byte, error) {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ' ', ',', ':':
			return -1
		}
		return r
	}, s)
	data, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("failed to decode payload %q: %v", s, err)
	}
	if len(data) > cansig.MaxDataLength {
		return nil, fmt.Errorf("%w: %d", cansig.ErrInvalidLength, len(data))
	}
	return data, nil
}

// bcdValue reads the raw window as packed BCD digits, the way odometer
// and date signals are often coded.
func bcdValue(raw uint64, length uint8) uint64 {
	width := (int(length) + 7) / 8
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, raw)
	return bcd.ToUint64(b[8-width:])
}

// frameFor builds a standard or extended frame depending on the
// identifier range.
func frameFor(id uint32, data []byte) (*cansig.Frame, error) {
	if id > cansig.MaxStandardID {
		return cansig.NewExtendedFrame(id, data)
	}
	return cansig.NewFrame(id, data)
}
