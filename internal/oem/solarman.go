package oem

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/speedwagon-io/odse/internal/model"
)

// solarmanTransformer handles Solarman logger CSV exports built around a
// cumulative generation counter. Energy per row is the delta against the
// previous row's counter; the first row anchors the series at zero.
type solarmanTransformer struct{}

const solarmanDefaultIntervalMinutes = 5

var (
	solarmanTimestampAliases = []string{"update_time", "Update Time", "Time", "Timestamp"}
	solarmanCounterAliases   = []string{"generation", "Generation(kWh)", "Total Generation", "Cumulative Energy"}
	solarmanStateAliases     = []string{"device_state", "Device State", "Status", "State"}
	solarmanPowerAliases     = []string{"power", "Power(W)", "Active Power", "Output Power"}
)

var solarmanStates = map[string]model.ErrorType{
	"Normal":       model.ErrorNormal,
	"Operating":    model.ErrorNormal,
	"Online":       model.ErrorNormal,
	"Warning":      model.ErrorWarning,
	"Degraded":     model.ErrorWarning,
	"Fault":        model.ErrorFault,
	"Error":        model.ErrorFault,
	"Offline":      model.ErrorOffline,
	"Disconnected": model.ErrorOffline,
	"No Data":      model.ErrorOffline,
	"Standby":      model.ErrorStandby,
	"Idle":         model.ErrorStandby,
	"Waiting":      model.ErrorStandby,
	"1":            model.ErrorNormal,
	"0":            model.ErrorOffline,
}

func (t solarmanTransformer) Transform(data string, opts Options) ([]model.Record, error) {
	return collectRows(data, t.rowFunc(opts))
}

func (t solarmanTransformer) transformStream(data string, opts Options) (Stream, error) {
	rows, err := newCSVRowReader(data)
	if err != nil {
		return nil, err
	}
	return &csvStream{rows: rows, row: t.rowFunc(opts)}, nil
}

// rowFunc returns a row mapper holding the counter accumulator for one
// pass over the input. State lives in the closure, so concurrent calls do
// not share deltas.
func (solarmanTransformer) rowFunc(opts Options) rowFn {
	hours := opts.intervalHours(solarmanDefaultIntervalMinutes)
	var prev float64
	var havePrev bool
	return func(row map[string]string) (model.Record, bool) {
		rawTS, _ := firstString(row, solarmanTimestampAliases...)
		ts, ok := stringToISO(rawTS, opts.Timezone)
		if !ok {
			return model.Record{}, false
		}

		counter, counterOK := floatField(row, solarmanCounterAliases...)
		powerW, powerOK := floatField(row, solarmanPowerAliases...)
		if !counterOK && !powerOK {
			return model.Record{}, false
		}

		var kwh float64
		if counterOK {
			if havePrev {
				kwh = counterDelta(counter, prev)
			}
			prev, havePrev = counter, true
		} else {
			kwh = intervalEnergy(wattsToKW(powerW), hours)
		}

		stateRaw, stateOK := firstString(row, solarmanStateAliases...)
		code := "inferred"
		if stateOK {
			code = stateRaw
		}
		rec := baseRecord(ts, kwh, solarmanStatus(stateRaw, stateOK, powerW, powerOK),
			code, opts.AssetID)
		if powerOK {
			rec.KW = model.Float(wattsToKW(powerW))
		}
		return rec, true
	}
}

// solarmanStatus classifies by device state label, retrying in title case
// because logger firmware is inconsistent about capitalization. Rows with
// no usable label fall back to the sign of instantaneous power.
func solarmanStatus(state string, stateOK bool, powerW float64, powerOK bool) model.ErrorType {
	if stateOK {
		key := strings.TrimSpace(state)
		if et, ok := solarmanStates[key]; ok {
			return et
		}
		if et, ok := solarmanStates[cases.Title(language.English).String(key)]; ok {
			return et
		}
	}
	if !powerOK {
		return model.ErrorUnknown
	}
	switch {
	case powerW > 0:
		return model.ErrorNormal
	case powerW == 0:
		return model.ErrorOffline
	default:
		return model.ErrorWarning
	}
}
