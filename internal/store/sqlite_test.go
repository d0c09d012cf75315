package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/speedwagon-io/odse/internal/model"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := NewSQLiteStore(log, filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSaveAndReadBack(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	envelope := model.NewResultEnvelope("solaxcloud", "plant-1", []model.Record{
		{
			Timestamp:    "2026-02-09T12:00:00Z",
			KWh:          18.4,
			ErrorType:    model.ErrorNormal,
			ErrorCode:    "102",
			KW:           model.Float(4.2),
			PF:           model.Float(0.98),
			AssetID:      "plant-1",
			OEMErrorCode: "0",
		},
		{
			Timestamp: "2026-02-09T12:05:00Z",
			KWh:       0,
			ErrorType: model.ErrorOffline,
		},
	})

	if err := st.Save(ctx, envelope); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := st.ByEnvelope(ctx, envelope.ID)
	if err != nil {
		t.Fatalf("ByEnvelope() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}

	first := got[0]
	if first.Timestamp != "2026-02-09T12:00:00Z" || first.KWh != 18.4 {
		t.Errorf("first record = %+v", first)
	}
	if first.ErrorType != model.ErrorNormal || first.ErrorCode != "102" {
		t.Errorf("first status = %q/%q", first.ErrorType, first.ErrorCode)
	}
	if first.KW == nil || *first.KW != 4.2 {
		t.Errorf("first kW = %v, want 4.2", first.KW)
	}
	if first.PF == nil || *first.PF != 0.98 {
		t.Errorf("first PF = %v, want 0.98", first.PF)
	}
	if first.OEMErrorCode != "0" {
		t.Errorf("first oem_error_code = %q, want 0", first.OEMErrorCode)
	}

	second := got[1]
	if second.KW != nil || second.PF != nil || second.KVA != nil {
		t.Errorf("absent optionals came back non-nil: %+v", second)
	}
	if second.ErrorCode != "" || second.AssetID != "" {
		t.Errorf("absent strings came back non-empty: %+v", second)
	}
	if second.KWh != 0 {
		t.Errorf("present zero kWh = %v, want 0", second.KWh)
	}
}

func TestByEnvelopeUnknownID(t *testing.T) {
	st := testStore(t)

	got, err := st.ByEnvelope(context.Background(), "no-such-envelope")
	if err != nil {
		t.Fatalf("ByEnvelope() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d records, want 0", len(got))
	}
}

func TestCount(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	count, err := st.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 0 {
		t.Errorf("empty store Count() = %d", count)
	}

	envelope := model.NewResultEnvelope("sma", "", []model.Record{
		{Timestamp: "2026-02-09T12:00:00Z", KWh: 2.5, ErrorType: model.ErrorWarning},
	})
	if err := st.Save(ctx, envelope); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	count, err = st.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1", count)
	}
}

func TestPruneKeepsRecentRecords(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	envelope := model.NewResultEnvelope("fronius", "", []model.Record{
		{Timestamp: "2026-02-09T12:00:00Z", KWh: 13.5, ErrorType: model.ErrorNormal},
	})
	if err := st.Save(ctx, envelope); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := st.Prune(ctx, 24*time.Hour); err != nil {
		t.Fatalf("Prune() error = %v", err)
	}

	count, _ := st.Count(ctx)
	if count != 1 {
		t.Errorf("Count() after prune = %d, want 1", count)
	}
}

func TestPruneDeletesExpiredRecords(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	envelope := model.NewResultEnvelope("fronius", "", []model.Record{
		{Timestamp: "2026-02-09T12:00:00Z", KWh: 13.5, ErrorType: model.ErrorNormal},
	})
	if err := st.Save(ctx, envelope); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// A negative age puts the cutoff in the future, expiring everything.
	if err := st.Prune(ctx, -time.Hour); err != nil {
		t.Fatalf("Prune() error = %v", err)
	}

	count, _ := st.Count(ctx)
	if count != 0 {
		t.Errorf("Count() after prune = %d, want 0", count)
	}
}
