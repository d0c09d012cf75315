package oem

import (
	"strings"

	"github.com/speedwagon-io/odse/internal/model"
)

// fimerTransformer handles FIMER / Aurora Vision payloads in three shapes:
// an aggregated energy series, a raw power point list, and a single plant
// status snapshot. Series and points carry no status and classify normal;
// the snapshot carries status but no energy.
type fimerTransformer struct{}

const fimerDefaultIntervalMinutes = 15

var fimerStates = map[string]model.ErrorType{
	"OK":           model.ErrorNormal,
	"ONLINE":       model.ErrorNormal,
	"RUNNING":      model.ErrorNormal,
	"WARNING":      model.ErrorWarning,
	"DEGRADED":     model.ErrorWarning,
	"FAULT":        model.ErrorFault,
	"ERROR":        model.ErrorFault,
	"OFFLINE":      model.ErrorOffline,
	"DISCONNECTED": model.ErrorOffline,
	"STANDBY":      model.ErrorStandby,
	"SLEEP":        model.ErrorStandby,
}

func (t fimerTransformer) Transform(data string, opts Options) ([]model.Record, error) {
	payload, err := parseJSON(data)
	if err != nil {
		return nil, err
	}

	obj, ok := payload.(map[string]any)
	if !ok {
		return []model.Record{}, nil
	}
	if series, ok := obj["series"].([]any); ok {
		return t.series(series, opts), nil
	}
	if points, ok := obj["points"].([]any); ok {
		return t.points(points, opts), nil
	}
	return t.snapshot(obj, opts), nil
}

func (fimerTransformer) series(entries []any, opts Options) []model.Record {
	records := make([]model.Record, 0, len(entries))
	for _, item := range objectEntries(entries) {
		ts, ok := toISO8601(item["date"], opts.Timezone)
		if !ok {
			continue
		}
		var kwh float64
		if energy, ok := toFloat(item["energy"]); ok {
			unit := ""
			if u := item["unit"]; u != nil {
				unit = stringify(u)
			}
			kwh = energyToKWh(energy, unit)
		}
		records = append(records, baseRecord(ts, kwh, model.ErrorNormal, "", opts.AssetID))
	}
	return records
}

func (fimerTransformer) points(entries []any, opts Options) []model.Record {
	hours := opts.intervalHours(fimerDefaultIntervalMinutes)
	records := make([]model.Record, 0, len(entries))
	for _, item := range objectEntries(entries) {
		ts, ok := toISO8601(item["timestamp"], opts.Timezone)
		if !ok {
			continue
		}
		value, _ := toFloat(item["value"])
		records = append(records,
			baseRecord(ts, intervalEnergy(wattsToKW(value), hours), model.ErrorNormal, "", opts.AssetID))
	}
	return records
}

func (fimerTransformer) snapshot(obj map[string]any, opts Options) []model.Record {
	ts, ok := toISO8601(firstValue(obj, "lastReportedTimestamp", "timestamp"), opts.Timezone)
	if !ok {
		return []model.Record{}
	}

	status := "unknown"
	if v := obj["status"]; v != nil {
		status = stringify(v)
	}
	status = strings.ToUpper(status)

	errType := model.ErrorUnknown
	if et, ok := fimerStates[status]; ok {
		errType = et
	}

	code := status
	if msg := obj["message"]; msg != nil {
		if s := stringify(msg); s != "" {
			code = s
		}
	}
	return []model.Record{baseRecord(ts, 0, errType, code, opts.AssetID)}
}
