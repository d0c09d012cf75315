package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewResultEnvelope(t *testing.T) {
	records := []Record{
		{Timestamp: "2026-02-09T12:00:00Z", KWh: 1.5, ErrorType: ErrorNormal},
	}

	env := NewResultEnvelope("huawei", "plant-1", records)

	if _, err := uuid.Parse(env.ID); err != nil {
		t.Errorf("ID %q is not a uuid: %v", env.ID, err)
	}
	if env.Source != "huawei" || env.AssetID != "plant-1" {
		t.Errorf("envelope = %+v", env)
	}
	if env.GeneratedAt.Location() != time.UTC {
		t.Errorf("GeneratedAt location = %v, want UTC", env.GeneratedAt.Location())
	}
	if time.Since(env.GeneratedAt) > time.Minute {
		t.Errorf("GeneratedAt %v is stale", env.GeneratedAt)
	}
	if len(env.Records) != 1 {
		t.Errorf("got %d records, want 1", len(env.Records))
	}
}

func TestEnvelopeIDsUnique(t *testing.T) {
	a := NewResultEnvelope("sma", "", nil)
	b := NewResultEnvelope("sma", "", nil)
	if a.ID == b.ID {
		t.Errorf("two envelopes share ID %q", a.ID)
	}
}

func TestEnvelopeJSONRoundTrip(t *testing.T) {
	env := NewResultEnvelope("solis", "site-3", []Record{
		{
			Timestamp: "2026-02-09T12:00:00Z",
			KWh:       0,
			ErrorType: ErrorOffline,
			KW:        Float(0),
		},
	})

	data, err := env.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	got, err := EnvelopeFromJSON(data)
	if err != nil {
		t.Fatalf("EnvelopeFromJSON() error = %v", err)
	}
	if got.ID != env.ID || got.Source != env.Source || got.AssetID != env.AssetID {
		t.Errorf("round trip changed envelope: %+v", got)
	}
	if len(got.Records) != 1 {
		t.Fatalf("got %d records, want 1", len(got.Records))
	}
	rec := got.Records[0]
	if rec.KWh != 0 {
		t.Errorf("present zero kWh = %v", rec.KWh)
	}
	if rec.KW == nil || *rec.KW != 0 {
		t.Errorf("present zero kW lost: %v", rec.KW)
	}
}

func TestRecordJSONHasNoNullMembers(t *testing.T) {
	records := []Record{
		{Timestamp: "2026-02-09T12:00:00Z", KWh: 2.5, ErrorType: ErrorNormal, ErrorCode: "0"},
		{Timestamp: "2026-02-09T12:05:00Z", KWh: 0, ErrorType: ErrorOffline},
		{
			Timestamp: "2026-02-09T12:10:00Z",
			KWh:       1.1,
			ErrorType: ErrorWarning,
			PF:        Float(0.5),
			KVArh:     Float(-0.2),
		},
	}

	data, err := NewResultEnvelope("switch", "", records).ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	var decoded struct {
		AssetID *string          `json:"asset_id"`
		Records []map[string]any `json:"records"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if decoded.AssetID != nil {
		t.Error("empty asset_id was serialized")
	}
	for i, obj := range decoded.Records {
		for name, value := range obj {
			if value == nil {
				t.Errorf("record %d: member %q is null; absence must be omission", i, name)
			}
		}
	}

	// The second record carries only the required trio.
	if got := len(decoded.Records[1]); got != 3 {
		t.Errorf("bare record has %d members, want 3: %v", got, decoded.Records[1])
	}
}
