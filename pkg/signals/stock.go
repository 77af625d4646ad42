package signals

import (
	"github.com/roffe/cansig"
)

// Stock definitions for the demo vehicle. Other packages register their
// own the same way.
var (
	VehicleSpeed = &Definition{
		Name:  "VehicleSpeed",
		Unit:  "km/h",
		ID:    0x123,
		Alias: []string{"speed"},
		Layout: cansig.SignalLayout{
			StartBit: 0,
			Length:   16,
			Factor:   0.01,
			Min:      0,
			Max:      300,
			Order:    cansig.Intel,
		},
	}

	EngineSpeed = &Definition{
		Name:  "EngineSpeed",
		Unit:  "rpm",
		ID:    0x234,
		Alias: []string{"rpm"},
		Layout: cansig.SignalLayout{
			StartBit: 16,
			Length:   16,
			Factor:   0.25,
			Min:      0,
			Max:      8000,
			Order:    cansig.Intel,
		},
	}

	CoolantTemp = &Definition{
		Name:  "CoolantTemp",
		Unit:  "°C",
		ID:    0x3D0,
		Alias: []string{"coolant"},
		Layout: cansig.SignalLayout{
			StartBit: 0,
			Length:   8,
			Factor:   1,
			Offset:   -40,
			Min:      -40,
			Max:      215,
			Order:    cansig.Intel,
		},
	}

	FuelLevel = &Definition{
		Name:  "FuelLevel",
		Unit:  "%",
		ID:    0x3D0,
		Alias: []string{"fuel"},
		Layout: cansig.SignalLayout{
			StartBit: 15,
			Length:   8,
			Factor:   0.5,
			Min:      0,
			Max:      100,
			Order:    cansig.Motorola,
		},
	}
)

func init() {
	for _, def := range []*Definition{VehicleSpeed, EngineSpeed, CoolantTemp, FuelLevel} {
		if err := Register(def); err != nil {
			panic(err)
		}
	}
}

// ParseVehicleSpeed reads the speed signal out of a 0x123 frame.
func ParseVehicleSpeed(f *cansig.Frame) float64 {
	return VehicleSpeed.Decode(f)
}

// NewEngineSpeedFrame builds a 0x234 frame carrying the given rpm.
func NewEngineSpeedFrame(rpm float64) *cansig.Frame {
	return EngineSpeed.NewFrame(rpm)
}
