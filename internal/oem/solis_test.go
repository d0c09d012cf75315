package oem

import (
	"testing"

	"github.com/speedwagon-io/odse/internal/model"
)

func TestSolisNormalizedRecord(t *testing.T) {
	payload := `{"data": [{
		"normalized": {
			"timestamp": "2026-02-09T11:00:00Z",
			"active_power_w": 4600,
			"reactive_power_var": 300,
			"apparent_power_va": 4650,
			"inverter_status": "running",
			"status_code": "200",
			"voltage_v": 229.8,
			"current_a": 20.1,
			"frequency_hz": 49.95,
			"temperature_c": 41.2
		}
	}]}`

	records, err := Transform(payload, "soliscloud", Options{})
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	rec := records[0]
	if rec.ErrorType != model.ErrorNormal {
		t.Errorf("error_type = %q, want normal", rec.ErrorType)
	}
	if rec.ErrorCode != "200" {
		t.Errorf("error_code = %q, want \"200\": status code outranks label here", rec.ErrorCode)
	}
	// No energy register: estimate over the default 5-minute interval.
	if !almostEqual(rec.KWh, 4.6*5.0/60.0) {
		t.Errorf("kWh = %v, want %v", rec.KWh, 4.6*5.0/60.0)
	}
	if rec.Temperature == nil || !almostEqual(*rec.Temperature, 41.2) {
		t.Errorf("temperature = %v, want 41.2", rec.Temperature)
	}
	if rec.PF == nil || !almostEqual(*rec.PF, 4600.0/4650.0) {
		t.Errorf("PF = %v, want %v", rec.PF, 4600.0/4650.0)
	}
}

func TestSolisEnergyRegisterPreferred(t *testing.T) {
	payload := `{"data": [{"normalized": {
		"timestamp": "2026-02-09T11:00:00Z",
		"active_power_w": 4600,
		"active_energy_wh": 12500,
		"inverter_status": "NORMAL"
	}}]}`

	records, err := Transform(payload, "solis", Options{})
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}
	if !almostEqual(records[0].KWh, 12.5) {
		t.Errorf("kWh = %v, want 12.5", records[0].KWh)
	}
}

func TestSolisStatusVocabulary(t *testing.T) {
	tests := []struct {
		status string
		want   model.ErrorType
	}{
		{"ALARM", model.ErrorWarning},
		{"sleep", model.ErrorStandby},
		{"OFFLINE", model.ErrorOffline},
		{"error", model.ErrorFault},
		{"mystery", model.ErrorUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			payload := `{"data": [{"normalized": {
				"timestamp": "2026-02-09T11:00:00Z",
				"inverter_status": "` + tt.status + `"
			}}]}`
			records, err := Transform(payload, "solis", Options{})
			if err != nil {
				t.Fatalf("transform failed: %v", err)
			}
			if records[0].ErrorType != tt.want {
				t.Errorf("status %q: error_type = %q, want %q", tt.status, records[0].ErrorType, tt.want)
			}
		})
	}
}

func TestSolisStatusCodeFallbackForClassification(t *testing.T) {
	payload := `{"data": [{"normalized": {
		"timestamp": "2026-02-09T11:00:00Z",
		"status_code": "FAULT"
	}}]}`

	records, err := Transform(payload, "solis", Options{})
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}
	if records[0].ErrorType != model.ErrorFault {
		t.Errorf("error_type = %q, want fault", records[0].ErrorType)
	}
	if records[0].ErrorCode != "FAULT" {
		t.Errorf("error_code = %q, want FAULT", records[0].ErrorCode)
	}
}
