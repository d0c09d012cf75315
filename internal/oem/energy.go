package oem

import (
	"math"
	"strings"
)

// wattsToKW converts a reading in watt-scale units to kilo-scale.
func wattsToKW(w float64) float64 {
	return w / 1000.0
}

// apparentPower derives kVA from real and reactive power in kilo-units.
func apparentPower(kw, kvar float64) float64 {
	return math.Sqrt(kw*kw + kvar*kvar)
}

// powerFactor derives PF = kW/kVA clamped to [0, 1], absent when apparent
// power is not positive.
func powerFactor(kw, kva float64) (float64, bool) {
	if kva <= 0 {
		return 0, false
	}
	return clamp01(kw / kva), true
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// intervalEnergy estimates kWh from instantaneous power held over the
// sampling interval, floored at zero so consumption-side readings do not
// produce negative generation.
func intervalEnergy(kw, hours float64) float64 {
	return math.Max(kw*hours, 0)
}

// counterDelta yields the energy between consecutive cumulative counter
// readings. A decrease means the counter reset and clamps to zero.
func counterDelta(current, previous float64) float64 {
	return math.Max(current-previous, 0)
}

// dailyEnergyKWh prefers reported accumulated energy in Wh, falling back to
// an interval estimate from instantaneous power in W.
func dailyEnergyKWh(energyWh float64, energyOK bool, powerW, hours float64) float64 {
	if energyOK {
		return energyWh / 1000.0
	}
	return powerW * hours / 1000.0
}

// energyToKWh normalizes an energy value by its declared unit. Unknown or
// missing units are taken as kWh already.
func energyToKWh(value float64, unit string) float64 {
	switch strings.ToUpper(strings.TrimSpace(unit)) {
	case "WH":
		return value / 1000.0
	case "MWH":
		return value * 1000.0
	default:
		return value
	}
}
