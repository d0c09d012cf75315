package oem

import (
	"math"
	"testing"

	"github.com/speedwagon-io/odse/internal/model"
)

func TestSwitchPowerSignClassification(t *testing.T) {
	csv := "timestampISO,dP1,dQ1\n" +
		"2026-02-09T00:00:00Z,1000,200\n" +
		"2026-02-09T00:15:00Z,0,0\n" +
		"2026-02-09T00:30:00Z,-500,100\n"

	records, err := Transform(csv, "switch", Options{})
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}

	wantTypes := []model.ErrorType{model.ErrorNormal, model.ErrorStandby, model.ErrorWarning}
	wantCodes := []string{"1", "0", "1"}
	for i, rec := range records {
		if rec.ErrorType != wantTypes[i] {
			t.Errorf("row %d: error_type = %q, want %q", i, rec.ErrorType, wantTypes[i])
		}
		if rec.ErrorCode != wantCodes[i] {
			t.Errorf("row %d: error_code = %q, want %q", i, rec.ErrorCode, wantCodes[i])
		}
	}

	if !almostEqual(records[0].KWh, 1.0*15.0/60.0) {
		t.Errorf("row 0 kWh = %v, want %v", records[0].KWh, 1.0*15.0/60.0)
	}
	if records[2].KWh != 0 {
		t.Errorf("negative power kWh = %v, want 0", records[2].KWh)
	}
}

func TestSwitchDerivedApparentPowerAndPF(t *testing.T) {
	csv := "timestampISO,dP1,dQ1\n2026-02-09T00:00:00Z,3000,4000\n"

	records, err := Transform(csv, "switch", Options{})
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}
	rec := records[0]
	if rec.KVA == nil || !almostEqual(*rec.KVA, 5) {
		t.Fatalf("kVA = %v, want 5", rec.KVA)
	}
	if rec.PF == nil || !almostEqual(*rec.PF, 0.6) {
		t.Fatalf("PF = %v, want 0.6", rec.PF)
	}
	if rec.KVArh == nil || !almostEqual(*rec.KVArh, 4.0*15.0/60.0) {
		t.Fatalf("kVArh = %v, want %v", rec.KVArh, 4.0*15.0/60.0)
	}
}

func TestSwitchSecondaryChannelFallback(t *testing.T) {
	csv := "timestampISO,dP1,dP2,dQ2\n" +
		"2026-02-09T00:00:00Z,,1200,300\n" +
		"2026-02-09T00:15:00Z,0,1200,\n"

	records, err := Transform(csv, "switch", Options{})
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}

	if !almostEqual(records[0].KWh, 1.2*15.0/60.0) {
		t.Errorf("fallback row kWh = %v, want %v", records[0].KWh, 1.2*15.0/60.0)
	}
	if records[0].KVArh == nil || !almostEqual(*records[0].KVArh, 0.3*15.0/60.0) {
		t.Errorf("fallback row kVArh = %v", records[0].KVArh)
	}

	// A primary reading of zero must not fall back to the secondary.
	if records[1].KWh != 0 {
		t.Errorf("zero primary kWh = %v, want 0", records[1].KWh)
	}
	if records[1].ErrorType != model.ErrorStandby {
		t.Errorf("zero primary error_type = %q, want standby", records[1].ErrorType)
	}
}

func TestSwitchNoChannelsMeansUnknown(t *testing.T) {
	csv := "timestampISO,dP1,dQ1\n2026-02-09T00:00:00Z,,\n"

	records, err := Transform(csv, "switch", Options{})
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}
	rec := records[0]
	if rec.ErrorType != model.ErrorUnknown {
		t.Errorf("error_type = %q, want unknown", rec.ErrorType)
	}
	if rec.ErrorCode != "unknown" {
		t.Errorf("error_code = %q, want unknown", rec.ErrorCode)
	}
	if rec.KVA != nil || rec.PF != nil || rec.KVArh != nil {
		t.Errorf("derived quantities must be absent: kVA=%v PF=%v kVArh=%v", rec.KVA, rec.PF, rec.KVArh)
	}
	if rec.KWh != 0 {
		t.Errorf("kWh = %v, want 0", rec.KWh)
	}
}

func TestSwitchNegativeReactiveEnergyAllowed(t *testing.T) {
	csv := "timestampISO,dP1,dQ1\n2026-02-09T00:00:00Z,1000,-2000\n"

	records, err := Transform(csv, "switch", Options{})
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}
	rec := records[0]
	if rec.KVArh == nil || !almostEqual(*rec.KVArh, -2.0*15.0/60.0) {
		t.Errorf("kVArh = %v, want %v", rec.KVArh, -2.0*15.0/60.0)
	}
	want := math.Sqrt(1 + 4)
	if rec.KVA == nil || !almostEqual(*rec.KVA, want) {
		t.Errorf("kVA = %v, want %v", rec.KVA, want)
	}
}
