package oem

import (
	"strings"

	"github.com/speedwagon-io/odse/internal/model"
)

// solisTransformer handles SolisCloud exports, shaped like the SMA gateway
// feed with a "normalized" block per reading plus an inverter temperature.
// Energy falls back to an interval estimate when the Wh register is absent.
type solisTransformer struct{}

const solisDefaultIntervalMinutes = 5

var solisStates = map[string]model.ErrorType{
	"NORMAL":  model.ErrorNormal,
	"RUNNING": model.ErrorNormal,
	"WARNING": model.ErrorWarning,
	"ALARM":   model.ErrorWarning,
	"FAULT":   model.ErrorFault,
	"ERROR":   model.ErrorFault,
	"OFFLINE": model.ErrorOffline,
	"STANDBY": model.ErrorStandby,
	"SLEEP":   model.ErrorStandby,
	"UNKNOWN": model.ErrorUnknown,
}

func (solisTransformer) Transform(data string, opts Options) ([]model.Record, error) {
	payload, err := parseJSON(data)
	if err != nil {
		return nil, err
	}
	hours := opts.intervalHours(solisDefaultIntervalMinutes)

	entries := wrappedList(payload, defaultWrapperKeys...)
	records := make([]model.Record, 0, len(entries))
	for _, entry := range entries {
		normalized := entry
		if n, ok := entry["normalized"].(map[string]any); ok {
			normalized = n
		}

		ts, ok := toISO8601(normalized["timestamp"], opts.Timezone)
		if !ok {
			continue
		}

		powerW, powerOK := toFloat(normalized["active_power_w"])
		energyWh, energyOK := toFloat(normalized["active_energy_wh"])
		reactiveVAr, reactiveOK := toFloat(normalized["reactive_power_var"])
		apparentVA, apparentOK := toFloat(normalized["apparent_power_va"])

		statusRaw := "UNKNOWN"
		if v := firstValue(normalized, "inverter_status", "status_code"); v != nil {
			statusRaw = stringify(v)
		}
		errType := model.ErrorUnknown
		if et, ok := solisStates[strings.ToUpper(statusRaw)]; ok {
			errType = et
		}
		code := ""
		if v := firstValue(normalized, "status_code", "inverter_status"); v != nil {
			code = stringify(v)
		}

		rec := baseRecord(ts, dailyEnergyKWh(energyWh, energyOK, powerW, hours),
			errType, code, opts.AssetID)
		if powerOK {
			rec.KW = model.Float(wattsToKW(powerW))
		}
		if reactiveOK {
			rec.KVAr = model.Float(wattsToKW(reactiveVAr))
		}
		if apparentOK {
			rec.KVA = model.Float(wattsToKW(apparentVA))
			if powerOK && apparentVA > 0 {
				rec.PF = model.Float(clamp01(powerW / apparentVA))
			}
		}
		if v, ok := toFloat(normalized["voltage_v"]); ok {
			rec.VoltageAC = model.Float(v)
		}
		if v, ok := toFloat(normalized["current_a"]); ok {
			rec.CurrentAC = model.Float(v)
		}
		if v, ok := toFloat(normalized["frequency_hz"]); ok {
			rec.Frequency = model.Float(v)
		}
		if v, ok := toFloat(normalized["temperature_c"]); ok {
			rec.Temperature = model.Float(v)
		}
		records = append(records, rec)
	}
	return records, nil
}
