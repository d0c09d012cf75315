package oem

import "github.com/speedwagon-io/odse/internal/model"

// switchTransformer handles Switch Din-Rail meter CSV exports. The meter
// reports paired channel registers in watt-scale units: dP1/dP2 for active
// power and dQ1/dQ2 for reactive power, the second channel a fallback for
// the first. Apparent power and power factor are derived, not read.
type switchTransformer struct{}

const switchDefaultIntervalMinutes = 15

var switchTimestampAliases = []string{"timestampISO", "timestamp", "Time", "Date/Time"}

func (t switchTransformer) Transform(data string, opts Options) ([]model.Record, error) {
	return collectRows(data, t.rowFunc(opts))
}

func (t switchTransformer) transformStream(data string, opts Options) (Stream, error) {
	rows, err := newCSVRowReader(data)
	if err != nil {
		return nil, err
	}
	return &csvStream{rows: rows, row: t.rowFunc(opts)}, nil
}

func (switchTransformer) rowFunc(opts Options) rowFn {
	hours := opts.intervalHours(switchDefaultIntervalMinutes)
	return func(row map[string]string) (model.Record, bool) {
		rawTS, _ := firstString(row, switchTimestampAliases...)
		ts, ok := stringToISO(rawTS, opts.Timezone)
		if !ok {
			return model.Record{}, false
		}

		powerW, powerOK := channelValue(row, "dP1", "dP2")
		reactiveVAr, reactiveOK := channelValue(row, "dQ1", "dQ2")

		var pKW, qKVAr float64
		if powerOK {
			pKW = wattsToKW(powerW)
		}
		if reactiveOK {
			qKVAr = wattsToKW(reactiveVAr)
		}

		rec := baseRecord(ts, intervalEnergy(pKW, hours),
			switchStatus(powerW, powerOK), switchErrorCode(powerW, powerOK), opts.AssetID)
		if reactiveOK {
			rec.KVArh = model.Float(qKVAr * hours)
		}
		if powerOK || reactiveOK {
			kva := apparentPower(pKW, qKVAr)
			rec.KVA = model.Float(kva)
			if pf, ok := powerFactor(pKW, kva); ok {
				rec.PF = model.Float(pf)
			}
		}
		return rec, true
	}
}

// channelValue prefers the primary channel register, consulting the
// secondary only when the primary is absent. A primary reading of zero is a
// reading, not an absence.
func channelValue(row map[string]string, primary, secondary string) (float64, bool) {
	if v, ok := toFloat(row[primary]); ok {
		return v, true
	}
	return toFloat(row[secondary])
}

func switchStatus(powerW float64, ok bool) model.ErrorType {
	if !ok {
		return model.ErrorUnknown
	}
	switch {
	case powerW == 0:
		return model.ErrorStandby
	case powerW > 0:
		return model.ErrorNormal
	default:
		return model.ErrorWarning
	}
}

func switchErrorCode(powerW float64, ok bool) string {
	if !ok {
		return "unknown"
	}
	if powerW == 0 {
		return "0"
	}
	return "1"
}
