package fixtures

import (
	"testing"

	"github.com/speedwagon-io/odse/internal/model"
	"github.com/speedwagon-io/odse/internal/oem"
)

func TestEveryCanonicalSourceHasFixture(t *testing.T) {
	for _, source := range oem.Sources() {
		if _, ok := Get(source); !ok {
			t.Errorf("no fixture for source %q", source)
		}
	}
}

func TestFixturesTransform(t *testing.T) {
	for _, source := range Sources() {
		t.Run(source, func(t *testing.T) {
			fx, ok := Get(source)
			if !ok {
				t.Fatalf("no fixture for %q", source)
			}

			records, err := oem.Transform(fx.Payload, source, fx.Options)
			if err != nil {
				t.Fatalf("Transform() error = %v", err)
			}
			if len(records) == 0 {
				t.Fatal("Transform() returned no records")
			}

			for i, rec := range records {
				if rec.Timestamp == "" {
					t.Errorf("record %d: empty timestamp", i)
				}
				if rec.KWh < 0 {
					t.Errorf("record %d: kWh = %v, want >= 0", i, rec.KWh)
				}
				if !model.ValidErrorType(string(rec.ErrorType)) {
					t.Errorf("record %d: error_type %q outside enum", i, rec.ErrorType)
				}
			}
		})
	}
}

func TestEnphaseFixtureBelowHealthyRatio(t *testing.T) {
	fx, _ := Get("enphase")

	records, err := oem.Transform(fx.Payload, "enphase", fx.Options)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	// 9 of 10 devices reporting sits in the warning band.
	if records[0].ErrorType != model.ErrorWarning {
		t.Errorf("error_type = %q, want %q", records[0].ErrorType, model.ErrorWarning)
	}
}

func TestSolarmanFixtureCounterDelta(t *testing.T) {
	fx, _ := Get("solarman")

	records, err := oem.Transform(fx.Payload, "solarman", fx.Options)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].KWh != 0 {
		t.Errorf("first counter reading kWh = %v, want 0", records[0].KWh)
	}
	if diff := records[1].KWh - 0.6; diff < -1e-9 || diff > 1e-9 {
		t.Errorf("second reading kWh = %v, want 0.6", records[1].KWh)
	}
}
