package sample

import (
	"math"
	"time"

	"github.com/itohio/goeda/pkg/config"
)

// Sample represents one successful sensor read.
// Samples are created once per tick and never modified afterwards.
type Sample struct {
	CapturedAt    time.Time
	RawADC        uint16  // Raw ADC reading (0..resolution)
	Conductance   float64 // Skin conductance (µS)
	MovingAverage float64 // Mean of the trailing window including this sample (µS)
	Delta         float64 // Conductance - MovingAverage (µS)
	IsImpulse     bool
}

// Converter maps raw ADC readings to skin conductance using the divider
// parameters fixed at process start.
type Converter struct {
	resolution float64
	vcc        float64
	rFixed     float64
}

// NewConverter creates a converter from the ADC configuration.
func NewConverter(cfg config.ADCConfig) Converter {
	return Converter{
		resolution: float64(cfg.Resolution),
		vcc:        cfg.VCC,
		rFixed:     cfg.RFixed,
	}
}

// Conductance converts a raw ADC reading to microsiemens.
func (c Converter) Conductance(raw uint16) float64 {
	return Convert(float64(raw), c.resolution, c.vcc, c.rFixed)
}

// Convert maps a raw ADC reading to skin conductance in microsiemens.
//
// The skin sits on the high side of a divider with rFixed to ground:
//
//	vOut  = raw / resolution * vcc
//	rSkin = rFixed * vOut / (vcc - vOut)
//	G     = 1e6 / rSkin
//
// A saturated reading (vOut == vcc) and a zero reading (rSkin == 0) have no
// finite answer and return 0.
func Convert(raw, resolution, vcc, rFixed float64) float64 {
	if resolution <= 0 {
		return 0
	}

	vOut := adcToVoltage(raw, resolution, vcc)
	rSkin := skinResistance(vOut, vcc, rFixed)
	if rSkin <= 0 || math.IsInf(rSkin, 0) || math.IsNaN(rSkin) {
		return 0
	}

	return 1e6 / rSkin
}

// adcToVoltage converts an ADC reading to the divider output voltage.
func adcToVoltage(raw, resolution, vcc float64) float64 {
	return raw / resolution * vcc
}

// skinResistance solves the divider for the unknown resistance.
// Returns +Inf when the divisor is zero or negative.
func skinResistance(vOut, vcc, rFixed float64) float64 {
	divisor := vcc - vOut
	if divisor <= 0 {
		return math.Inf(1)
	}
	return rFixed * vOut / divisor
}
