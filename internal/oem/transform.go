// Package oem normalizes raw solar and energy-meter telemetry from vendor
// monitoring systems into canonical records. Each supported vendor has a
// transformer that understands its export format, field aliases and status
// vocabulary; everything downstream consumes one schema.
package oem

import "github.com/speedwagon-io/odse/internal/model"

// Options carries the per-call knobs shared by every transformer. The zero
// value selects vendor defaults throughout.
type Options struct {
	// AssetID is attached verbatim to every emitted record when non-empty.
	AssetID string

	// Timezone replaces the UTC suffix on timestamps parsed without an
	// explicit offset. It must be a strict ±HH:MM offset; anything else is
	// ignored and UTC is kept.
	Timezone string

	// IntervalMinutes is the sampling interval assumed when energy has to
	// be estimated from instantaneous power. Zero or negative selects the
	// vendor default.
	IntervalMinutes int

	// ExpectedDevices is the fleet size used by sources whose health is
	// derived from how many sub-devices report. Zero or negative means
	// unknown.
	ExpectedDevices int
}

// intervalHours resolves the configured interval to hours.
func (o Options) intervalHours(defaultMinutes int) float64 {
	minutes := o.IntervalMinutes
	if minutes <= 0 {
		minutes = defaultMinutes
	}
	return float64(minutes) / 60.0
}

// Transformer converts one vendor's raw export into canonical records.
// Implementations silently drop rows that cannot yield a valid record and
// return an error only when the whole input is unusable.
type Transformer interface {
	Transform(data string, opts Options) ([]model.Record, error)
}

// Transform normalizes raw telemetry for the named source. data is either
// the payload itself or a path to a file holding it.
func Transform(data, source string, opts Options) ([]model.Record, error) {
	t, err := Lookup(source)
	if err != nil {
		return nil, err
	}
	return t.Transform(data, opts)
}

// TransformStream is Transform with lazy, input-ordered delivery. Sources
// without an incremental representation materialize first and then yield.
func TransformStream(data, source string, opts Options) (Stream, error) {
	t, err := Lookup(source)
	if err != nil {
		return nil, err
	}
	if s, ok := t.(streamer); ok {
		return s.transformStream(data, opts)
	}
	records, err := t.Transform(data, opts)
	if err != nil {
		return nil, err
	}
	return &sliceStream{records: records}, nil
}
