package oem

import (
	"strings"

	"github.com/speedwagon-io/odse/internal/model"
)

// solarEdgeTransformer handles SolarEdge monitoring API responses: rich
// per-inverter telemetry under data.telemetries, or the flat site-level
// energy.values and power.values series. Telemetry rows carry full AC
// electrical detail on the first phase block.
type solarEdgeTransformer struct{}

const solarEdgeDefaultIntervalMinutes = 15

// solarEdgeModes maps the inverter operating mode reported by the
// monitoring API to canonical states.
var solarEdgeModes = map[string]model.ErrorType{
	"MPPT":            model.ErrorNormal,
	"ON":              model.ErrorNormal,
	"PRODUCTION":      model.ErrorNormal,
	"OFF":             model.ErrorOffline,
	"SLEEPING":        model.ErrorStandby,
	"STARTING":        model.ErrorStandby,
	"SHUTTING_DOWN":   model.ErrorStandby,
	"STANDBY":         model.ErrorStandby,
	"NIGHT_MODE":      model.ErrorStandby,
	"FAULT":           model.ErrorFault,
	"ERROR":           model.ErrorFault,
	"MAINTENANCE":     model.ErrorWarning,
	"LOCKED_GRID":     model.ErrorWarning,
	"LOCKED_INTERNAL": model.ErrorWarning,
}

func (t solarEdgeTransformer) Transform(data string, opts Options) ([]model.Record, error) {
	payload, err := parseJSON(data)
	if err != nil {
		return nil, err
	}
	obj, ok := payload.(map[string]any)
	if !ok {
		return []model.Record{}, nil
	}

	if list, ok := deepGet(obj, "data", "telemetries").([]any); ok {
		return t.telemetries(list, opts), nil
	}
	if list, ok := deepGet(obj, "energy", "values").([]any); ok {
		return t.energyValues(list, opts), nil
	}
	if list, ok := deepGet(obj, "power", "values").([]any); ok {
		return t.powerValues(list, opts), nil
	}
	return []model.Record{}, nil
}

func (solarEdgeTransformer) telemetries(entries []any, opts Options) []model.Record {
	hours := opts.intervalHours(solarEdgeDefaultIntervalMinutes)
	records := make([]model.Record, 0, len(entries))
	for _, item := range objectEntries(entries) {
		ts, ok := toISO8601(item["date"], opts.Timezone)
		if !ok {
			continue
		}

		powerW, powerOK := toFloat(item["totalActivePower"])
		mode := strings.ToUpper(stringify(item["inverterMode"]))
		errType := model.ErrorUnknown
		if et, ok := solarEdgeModes[mode]; ok {
			errType = et
		}
		code := ""
		if om := item["operationMode"]; om != nil {
			code = stringify(om)
		}

		rec := baseRecord(ts, intervalEnergy(wattsToKW(powerW), hours), errType, code, opts.AssetID)
		if powerOK {
			rec.KW = model.Float(wattsToKW(powerW))
		}
		if phase, ok := item["L1Data"].(map[string]any); ok {
			if v, ok := toFloat(phase["apparentPower"]); ok {
				rec.KVA = model.Float(wattsToKW(v))
			}
			if v, ok := toFloat(phase["reactivePower"]); ok {
				rec.KVAr = model.Float(wattsToKW(v))
			}
			if v, ok := toFloat(phase["cosPhi"]); ok {
				rec.PF = model.Float(clamp01(v))
			}
			if v, ok := toFloat(phase["acVoltage"]); ok {
				rec.VoltageAC = model.Float(v)
			}
			if v, ok := toFloat(phase["acCurrent"]); ok {
				rec.CurrentAC = model.Float(v)
			}
			if v, ok := toFloat(phase["acFrequency"]); ok {
				rec.Frequency = model.Float(v)
			}
		}
		records = append(records, rec)
	}
	return records
}

// energyValues maps the site energy series, already accumulated per slot in
// Wh. Slots with no reading, night hours typically, are dropped rather than
// emitted as zero.
func (solarEdgeTransformer) energyValues(entries []any, opts Options) []model.Record {
	records := make([]model.Record, 0, len(entries))
	for _, item := range objectEntries(entries) {
		ts, tsOK := toISO8601(item["date"], opts.Timezone)
		value, valueOK := toFloat(item["value"])
		if !tsOK || !valueOK {
			continue
		}
		records = append(records,
			baseRecord(ts, energyToKWh(value, "Wh"), model.ErrorNormal, "", opts.AssetID))
	}
	return records
}

// powerValues maps the site power series. Energy is estimated per slot and
// state degrades to standby when the site is not producing.
func (solarEdgeTransformer) powerValues(entries []any, opts Options) []model.Record {
	hours := opts.intervalHours(solarEdgeDefaultIntervalMinutes)
	records := make([]model.Record, 0, len(entries))
	for _, item := range objectEntries(entries) {
		ts, ok := toISO8601(item["date"], opts.Timezone)
		if !ok {
			continue
		}
		value, valueOK := toFloat(item["value"])
		errType := model.ErrorStandby
		if valueOK && value > 0 {
			errType = model.ErrorNormal
		}
		rec := baseRecord(ts, intervalEnergy(wattsToKW(value), hours), errType, "", opts.AssetID)
		if valueOK {
			rec.KW = model.Float(wattsToKW(value))
		}
		records = append(records, rec)
	}
	return records
}
