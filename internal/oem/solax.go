package oem

import "github.com/speedwagon-io/odse/internal/model"

// solaxTransformer handles SolaXCloud API responses. The reading sits under
// a result or data wrapper, daily yield arrives already in kWh, and the
// response-level API code is preserved separately from the inverter status.
type solaxTransformer struct{}

const solaxDefaultIntervalMinutes = 5

// solaxStates maps SolaXCloud inverter status codes. Unlisted codes
// classify as unknown.
var solaxStates = map[string]model.ErrorType{
	"100": model.ErrorStandby,
	"101": model.ErrorStandby,
	"102": model.ErrorNormal,
	"103": model.ErrorWarning,
	"104": model.ErrorFault,
	"105": model.ErrorWarning,
	"106": model.ErrorStandby,
	"107": model.ErrorWarning,
	"108": model.ErrorStandby,
	"109": model.ErrorStandby,
	"110": model.ErrorStandby,
	"111": model.ErrorStandby,
	"112": model.ErrorStandby,
	"113": model.ErrorWarning,
	"114": model.ErrorStandby,
	"130": model.ErrorWarning,
	"131": model.ErrorNormal,
	"132": model.ErrorWarning,
	"133": model.ErrorWarning,
}

func (solaxTransformer) Transform(data string, opts Options) ([]model.Record, error) {
	payload, err := parseJSON(data)
	if err != nil {
		return nil, err
	}
	hours := opts.intervalHours(solaxDefaultIntervalMinutes)

	oemCode := ""
	if obj, ok := payload.(map[string]any); ok {
		if code := obj["code"]; code != nil {
			oemCode = stringify(code)
		}
	}

	entries := solaxEntries(payload)
	records := make([]model.Record, 0, len(entries))
	for _, entry := range entries {
		ts, ok := toISO8601(firstValue(entry, "uploadTime", "timestamp"), opts.Timezone)
		if !ok {
			continue
		}

		acPowerW, acOK := toFloat(entry["acpower"])
		yieldToday, yieldOK := toFloat(entry["yieldtoday"])

		var kwh float64
		if yieldOK {
			kwh = yieldToday
		} else {
			kwh = intervalEnergy(wattsToKW(acPowerW), hours)
		}

		status := model.ErrorUnknown
		code := "unknown"
		if raw := entry["inverterStatus"]; raw != nil {
			code = stringify(raw)
			if et, ok := solaxStates[code]; ok {
				status = et
			}
		}

		rec := baseRecord(ts, kwh, status, code, opts.AssetID)
		if acOK {
			rec.KW = model.Float(wattsToKW(acPowerW))
		}
		rec.OEMErrorCode = oemCode
		records = append(records, rec)
	}
	return records, nil
}

// solaxEntries unwraps the response envelope: result or data holding either
// one reading object or a list of them, else a bare top-level list. A bare
// object without a wrapper is not a reading.
func solaxEntries(payload any) []map[string]any {
	switch p := payload.(type) {
	case map[string]any:
		for _, key := range []string{"result", "data"} {
			switch v := p[key].(type) {
			case map[string]any:
				return []map[string]any{v}
			case []any:
				return objectEntries(v)
			}
		}
	case []any:
		return objectEntries(p)
	}
	return nil
}
