// Package signals keeps a registry of named signal definitions so tools
// can address a signal as "VehicleSpeed" instead of repeating its frame
// identifier and bit layout. Definitions register once at init time;
// lookups are case-insensitive over names and aliases.
package signals

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/roffe/cansig"
)

// Definition binds a signal name to the frame it travels on and the
// layout that locates it inside the payload.
type Definition struct {
	Name   string
	Unit   string
	ID     uint32 // identifier of the carrying frame
	Alias  []string
	Layout cansig.SignalLayout
}

func (d Definition) String() string {
	return fmt.Sprintf("%s | 0x%03X start %d length %d %s, factor %g offset %g, range [%g, %g] %s",
		d.Name, d.ID, d.Layout.StartBit, d.Layout.Length, d.Layout.Order,
		d.Layout.Factor, d.Layout.Offset, d.Layout.Min, d.Layout.Max, d.Unit)
}

func (d Definition) matches(name string) bool {
	if strings.EqualFold(d.Name, name) {
		return true
	}
	for _, alias := range d.Alias {
		if strings.EqualFold(alias, name) {
			return true
		}
	}
	return false
}

// Decode extracts the signal from a frame and scales it to its physical
// value.
func (d Definition) Decode(f *cansig.Frame) float64 {
	return cansig.DecodeSignal(f, d.Layout)
}

// DecodeClamped is Decode plus a report of whether the value was clamped
// to a range bound.
func (d Definition) DecodeClamped(f *cansig.Frame) (float64, bool) {
	return cansig.DecodeSignalClamped(f, d.Layout)
}

// Encode writes the physical value into an existing frame payload.
func (d Definition) Encode(f *cansig.Frame, physical float64) {
	cansig.EncodeSignal(f, d.Layout, physical)
}

// NewFrame builds a full length frame on the definition's identifier
// carrying the physical value.
func (d Definition) NewFrame(physical float64) *cansig.Frame {
	f := &cansig.Frame{
		Identifier: d.ID,
		Extended:   d.ID > cansig.MaxStandardID,
		Length:     cansig.MaxDataLength,
	}
	cansig.EncodeSignal(f, d.Layout, physical)
	return f
}

var signalMap = make(map[string]*Definition)

// Register adds a definition to the registry. The layout must validate
// and neither the name nor any alias may collide with a registered one.
func Register(def *Definition) error {
	if def.Name == "" {
		return errors.New("signal must have a name")
	}
	if err := def.Layout.Validate(); err != nil {
		return fmt.Errorf("signal %s: %w", def.Name, err)
	}
	for _, existing := range signalMap {
		if existing.matches(def.Name) {
			return fmt.Errorf("signal %s already registered", def.Name)
		}
		for _, alias := range def.Alias {
			if existing.matches(alias) {
				return fmt.Errorf("signal alias %s already registered", alias)
			}
		}
	}
	signalMap[def.Name] = def
	return nil
}

// Lookup resolves a definition by name or alias, ignoring case.
func Lookup(name string) (*Definition, error) {
	for _, def := range signalMap {
		if def.matches(name) {
			return def, nil
		}
	}
	return nil, fmt.Errorf("unknown signal %q", name)
}

// ForIdentifier returns every definition carried by the given frame
// identifier, ordered by start bit.
func ForIdentifier(id uint32) []Definition {
	var out []Definition
	for _, def := range signalMap {
		if def.ID == id {
			out = append(out, *def)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Layout.StartBit < out[j].Layout.StartBit })
	return out
}

// List returns every registered definition sorted by name.
func List() []Definition {
	var out []Definition
	for _, def := range signalMap {
		out = append(out, *def)
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out
}

// Names returns the registered signal names sorted alphabetically.
func Names() []string {
	var out []string
	for name := range signalMap {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i]) < strings.ToLower(out[j]) })
	return out
}
