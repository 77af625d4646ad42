package signals

import (
	"errors"
	"strings"
	"testing"

	"github.com/roffe/cansig"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name string
		want *Definition
	}{
		{"VehicleSpeed", VehicleSpeed},
		{"vehiclespeed", VehicleSpeed},
		{"speed", VehicleSpeed},
		{"RPM", EngineSpeed},
		{"coolant", CoolantTemp},
		{"fuel", FuelLevel},
	}
	for _, tt := range tests {
		def, err := Lookup(tt.name)
		if err != nil {
			t.Errorf("Lookup(%q) error: %v", tt.name, err)
			continue
		}
		if def != tt.want {
			t.Errorf("Lookup(%q) = %v, want %v", tt.name, def.Name, tt.want.Name)
		}
	}
	if _, err := Lookup("nope"); err == nil || !strings.Contains(err.Error(), `unknown signal "nope"`) {
		t.Errorf("Lookup(nope) error = %v", err)
	}
}

func TestRegisterRejects(t *testing.T) {
	if err := Register(&Definition{Name: "", Layout: VehicleSpeed.Layout}); err == nil {
		t.Error("empty name should not register")
	}
	if err := Register(&Definition{Name: "vehicleSPEED", ID: 1, Layout: VehicleSpeed.Layout}); err == nil {
		t.Error("duplicate name should not register")
	}
	if err := Register(&Definition{Name: "Unique", ID: 1, Alias: []string{"rpm"}, Layout: VehicleSpeed.Layout}); err == nil {
		t.Error("duplicate alias should not register")
	}
	err := Register(&Definition{Name: "BadLayout", ID: 1, Layout: cansig.SignalLayout{StartBit: 0, Length: 0, Order: cansig.Intel}})
	if !errors.Is(err, cansig.ErrLayoutLength) {
		t.Errorf("bad layout error = %v, want %v", err, cansig.ErrLayoutLength)
	}
}

func TestRegisterAndList(t *testing.T) {
	def := &Definition{
		Name:   "TestPressure",
		Unit:   "kPa",
		ID:     0x400,
		Layout: cansig.SignalLayout{StartBit: 0, Length: 12, Factor: 0.1, Min: 0, Max: 400, Order: cansig.Intel},
	}
	if err := Register(def); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	got, err := Lookup("testpressure")
	if err != nil || got != def {
		t.Fatalf("Lookup after Register = %v, %v", got, err)
	}

	index := make(map[string]int)
	for i, name := range Names() {
		index[name] = i
	}
	for _, name := range []string{"CoolantTemp", "EngineSpeed", "FuelLevel", "VehicleSpeed", "TestPressure"} {
		if _, ok := index[name]; !ok {
			t.Fatalf("Names() is missing %s", name)
		}
	}
	if !(index["CoolantTemp"] < index["EngineSpeed"] && index["EngineSpeed"] < index["FuelLevel"] && index["FuelLevel"] < index["VehicleSpeed"]) {
		t.Errorf("Names() not sorted: %v", Names())
	}
	if len(List()) != len(Names()) {
		t.Errorf("List() and Names() disagree: %d vs %d", len(List()), len(Names()))
	}
}

func TestForIdentifier(t *testing.T) {
	defs := ForIdentifier(0x3D0)
	if len(defs) != 2 {
		t.Fatalf("ForIdentifier(0x3D0) returned %d definitions, want 2", len(defs))
	}
	if defs[0].Name != "CoolantTemp" || defs[1].Name != "FuelLevel" {
		t.Errorf("unexpected order: %s, %s", defs[0].Name, defs[1].Name)
	}
	if len(ForIdentifier(0x7AA)) != 0 {
		t.Error("unknown identifier should have no definitions")
	}
}

func TestParseVehicleSpeed(t *testing.T) {
	f := cansig.MustFrame(0x123, []byte{0xC4, 0x09, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00})
	if got := ParseVehicleSpeed(f); got != 25.0 {
		t.Errorf("ParseVehicleSpeed() = %v, want 25", got)
	}
}

func TestNewEngineSpeedFrame(t *testing.T) {
	f := NewEngineSpeedFrame(6000)
	if f.Identifier != 0x234 || f.Length != 8 {
		t.Fatalf("unexpected frame %+v", f)
	}
	if got := EngineSpeed.Decode(f); got != 6000.0 {
		t.Errorf("Decode() = %v, want 6000", got)
	}

	// Over-limit input saturates to the raw encoding of the bound.
	sat := NewEngineSpeedFrame(8500)
	raw := cansig.ExtractSignal(sat, EngineSpeed.Layout.StartBit, EngineSpeed.Layout.Length, EngineSpeed.Layout.Order)
	if raw != 32000 {
		t.Errorf("saturated raw = %d, want 32000", raw)
	}
	if got := EngineSpeed.Decode(sat); got != 8000.0 {
		t.Errorf("Decode() = %v, want 8000", got)
	}
}

func TestCoolantAndFuel(t *testing.T) {
	f := CoolantTemp.NewFrame(90)
	FuelLevel.Encode(f, 50)
	if got := CoolantTemp.Decode(f); got != 90.0 {
		t.Errorf("coolant = %v, want 90", got)
	}
	if got := FuelLevel.Decode(f); got != 50.0 {
		t.Errorf("fuel = %v, want 50", got)
	}
	if got, clamped := FuelLevel.DecodeClamped(f); clamped || got != 50.0 {
		t.Errorf("DecodeClamped() = %v clamped %v", got, clamped)
	}
}
