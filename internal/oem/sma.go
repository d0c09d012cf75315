package oem

import (
	"strings"

	"github.com/speedwagon-io/odse/internal/model"
)

// smaTransformer handles SMA gateway exports whose readings arrive already
// half-normalized under a "normalized" block, wrapped in one of the usual
// envelope keys. Event severity outranks the device status code when both
// are present.
type smaTransformer struct{}

var smaSeverities = map[string]model.ErrorType{
	"INFO":     model.ErrorNormal,
	"WARNING":  model.ErrorWarning,
	"MINOR":    model.ErrorWarning,
	"MAJOR":    model.ErrorCritical,
	"CRITICAL": model.ErrorFault,
	"FAULT":    model.ErrorFault,
}

var smaStatuses = map[string]model.ErrorType{
	"ONLINE":  model.ErrorNormal,
	"RUNNING": model.ErrorNormal,
	"STANDBY": model.ErrorStandby,
	"OFFLINE": model.ErrorOffline,
	"ERROR":   model.ErrorFault,
	"UNKNOWN": model.ErrorUnknown,
}

func (smaTransformer) Transform(data string, opts Options) ([]model.Record, error) {
	payload, err := parseJSON(data)
	if err != nil {
		return nil, err
	}

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
		energyWh, _ := toFloat(normalized["active_energy_wh"])
		reactiveVAr, reactiveOK := toFloat(normalized["reactive_power_var"])
		apparentVA, apparentOK := toFloat(normalized["apparent_power_va"])

		code := ""
		if v := firstValue(normalized, "event_code", "status_code"); v != nil {
			code = stringify(v)
		}

		rec := baseRecord(ts, energyToKWh(energyWh, "Wh"), smaStatus(normalized), code, opts.AssetID)
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
		records = append(records, rec)
	}
	return records, nil
}

func smaStatus(normalized map[string]any) model.ErrorType {
	severity := strings.ToUpper(stringify(normalized["event_severity"]))
	if et, ok := smaSeverities[severity]; ok {
		return et
	}
	status := strings.ToUpper(stringify(normalized["status_code"]))
	if et, ok := smaStatuses[status]; ok {
		return et
	}
	return model.ErrorUnknown
}
