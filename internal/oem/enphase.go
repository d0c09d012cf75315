package oem

import "github.com/speedwagon-io/odse/internal/model"

// enphaseTransformer handles Enphase Envoy production payloads. Timestamps
// are epoch seconds, energy arrives pre-accumulated per interval in Wh, and
// health is the fraction of expected microinverters currently reporting.
type enphaseTransformer struct{}

func (enphaseTransformer) Transform(data string, opts Options) ([]model.Record, error) {
	payload, err := parseJSON(data)
	if err != nil {
		return nil, err
	}

	entries := enphaseEntries(payload)
	records := make([]model.Record, 0, len(entries))
	for _, entry := range entries {
		endAt, endOK := toFloat(entry["end_at"])
		whDel, whOK := toFloat(entry["wh_del"])
		if !endOK || !whOK {
			continue
		}
		ts, ok := epochToISO(endAt)
		if !ok {
			continue
		}

		reporting, reportingOK := toInt(entry["devices_reporting"])
		rec := baseRecord(ts, energyToKWh(whDel, "Wh"),
			enphaseStatus(reporting, reportingOK, opts.ExpectedDevices), "", opts.AssetID)
		records = append(records, rec)
	}
	return records, nil
}

// enphaseEntries flattens the payload: an envelope with a "production"
// list, a bare array of intervals, or a single snapshot object.
func enphaseEntries(payload any) []map[string]any {
	switch p := payload.(type) {
	case map[string]any:
		if list, ok := p["production"].([]any); ok {
			return objectEntries(list)
		}
		return []map[string]any{p}
	case []any:
		return objectEntries(p)
	}
	return nil
}

// enphaseStatus grades the reporting ratio. Without a configured fleet size
// any reporting device counts as healthy; a missing count means the gateway
// itself is not talking to its devices.
func enphaseStatus(reporting int, reportingOK bool, expected int) model.ErrorType {
	if !reportingOK {
		return model.ErrorOffline
	}
	if expected <= 0 {
		if reporting == 0 {
			return model.ErrorOffline
		}
		return model.ErrorNormal
	}
	ratio := float64(reporting) / float64(expected)
	switch {
	case ratio >= 0.95:
		return model.ErrorNormal
	case ratio >= 0.80:
		return model.ErrorWarning
	case reporting > 0:
		return model.ErrorCritical
	default:
		return model.ErrorOffline
	}
}
