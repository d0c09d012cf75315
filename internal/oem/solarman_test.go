package oem

import (
	"testing"

	"github.com/speedwagon-io/odse/internal/model"
)

func TestSolarmanCounterDeltas(t *testing.T) {
	csv := "update_time,generation,device_state\n" +
		"2026-02-09T08:00:00,1250.0,Normal\n" +
		"2026-02-09T08:05:00,1250.4,Normal\n" +
		"2026-02-09T08:10:00,1251.0,Normal\n"

	records, err := Transform(csv, "solarman", Options{})
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	if records[0].KWh != 0 {
		t.Errorf("first row kWh = %v, want 0", records[0].KWh)
	}
	if !almostEqual(records[1].KWh, 0.4) {
		t.Errorf("second row kWh = %v, want 0.4", records[1].KWh)
	}
	if !almostEqual(records[2].KWh, 0.6) {
		t.Errorf("third row kWh = %v, want 0.6", records[2].KWh)
	}
}

func TestSolarmanCounterResetClampsToZero(t *testing.T) {
	csv := "update_time,generation\n" +
		"2026-02-09T08:00:00,500\n" +
		"2026-02-09T08:05:00,2\n" +
		"2026-02-09T08:10:00,3.5\n"

	records, err := Transform(csv, "solarman", Options{})
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}
	if records[1].KWh != 0 {
		t.Errorf("reset row kWh = %v, want 0", records[1].KWh)
	}
	if !almostEqual(records[2].KWh, 1.5) {
		t.Errorf("post-reset row kWh = %v, want 1.5", records[2].KWh)
	}
}

func TestSolarmanMissingCounterUsesPowerEstimate(t *testing.T) {
	csv := "update_time,generation,power\n" +
		"2026-02-09T08:00:00,100,2000\n" +
		"2026-02-09T08:05:00,,3000\n" +
		"2026-02-09T08:10:00,101,1000\n"

	records, err := Transform(csv, "solarman", Options{})
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	if !almostEqual(records[1].KWh, 3.0*5.0/60.0) {
		t.Errorf("estimated kWh = %v, want %v", records[1].KWh, 3.0*5.0/60.0)
	}
	if records[1].KW == nil || !almostEqual(*records[1].KW, 3) {
		t.Errorf("kW = %v, want 3", records[1].KW)
	}
	if !almostEqual(records[2].KWh, 1.0) {
		t.Errorf("delta after estimated row = %v, want 1.0 against last seen counter", records[2].KWh)
	}
}

func TestSolarmanSkipsRowWithoutCounterOrPower(t *testing.T) {
	csv := "update_time,generation,power\n" +
		"2026-02-09T08:00:00,,\n" +
		"2026-02-09T08:05:00,50,\n"

	records, err := Transform(csv, "solarman", Options{})
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].KWh != 0 {
		t.Errorf("first usable row kWh = %v, want 0", records[0].KWh)
	}
}

func TestSolarmanStateMapping(t *testing.T) {
	tests := []struct {
		name    string
		state   string
		powerW  string
		want    model.ErrorType
		code    string
	}{
		{"exact match", "Fault", "100", model.ErrorFault, "Fault"},
		{"title cased", "no data", "100", model.ErrorOffline, "no data"},
		{"uppercase", "OFFLINE", "100", model.ErrorOffline, "OFFLINE"},
		{"numeric online", "1", "100", model.ErrorNormal, "1"},
		{"unlisted falls back to power", "Quantum", "250", model.ErrorNormal, "Quantum"},
		{"no state positive power", "", "250", model.ErrorNormal, "inferred"},
		{"no state zero power", "", "0", model.ErrorOffline, "inferred"},
		{"no state negative power", "", "-40", model.ErrorWarning, "inferred"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			csv := "update_time,generation,device_state,power\n" +
				"2026-02-09T08:00:00,10," + tt.state + "," + tt.powerW + "\n"
			records, err := Transform(csv, "solarman", Options{})
			if err != nil {
				t.Fatalf("transform failed: %v", err)
			}
			if len(records) != 1 {
				t.Fatalf("got %d records, want 1", len(records))
			}
			if records[0].ErrorType != tt.want {
				t.Errorf("error_type = %q, want %q", records[0].ErrorType, tt.want)
			}
			if records[0].ErrorCode != tt.code {
				t.Errorf("error_code = %q, want %q", records[0].ErrorCode, tt.code)
			}
		})
	}
}

func TestSolarmanConcurrentCallsDoNotShareAccumulator(t *testing.T) {
	csv := "update_time,generation\n" +
		"2026-02-09T08:00:00,100\n" +
		"2026-02-09T08:05:00,105\n"

	for i := 0; i < 3; i++ {
		records, err := Transform(csv, "solarman", Options{})
		if err != nil {
			t.Fatalf("transform failed: %v", err)
		}
		if records[0].KWh != 0 {
			t.Fatalf("call %d: first row kWh = %v, want 0", i, records[0].KWh)
		}
		if !almostEqual(records[1].KWh, 5) {
			t.Fatalf("call %d: second row kWh = %v, want 5", i, records[1].KWh)
		}
	}
}
