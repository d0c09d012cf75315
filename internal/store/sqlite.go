// Package store archives emitted canonical records in SQLite. It is an
// output archive only; the transformation engine never reads from it.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/speedwagon-io/odse/internal/model"
)

type Store interface {
	Save(ctx context.Context, envelope *model.ResultEnvelope) error
	ByEnvelope(ctx context.Context, envelopeID string) ([]model.Record, error)
	Count(ctx context.Context) (int64, error)
	Prune(ctx context.Context, maxAge time.Duration) error
	Close() error
}

type SQLiteStore struct {
	log *slog.Logger
	db  *sql.DB
}

func NewSQLiteStore(log *slog.Logger, dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	st := &SQLiteStore{
		log: log,
		db:  db,
	}

	if err := st.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return st, nil
}

func (s *SQLiteStore) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS records (
			id TEXT PRIMARY KEY,
			envelope_id TEXT NOT NULL,
			source TEXT NOT NULL,
			asset_id TEXT,
			timestamp TEXT NOT NULL,
			kwh REAL NOT NULL,
			error_type TEXT NOT NULL,
			error_code TEXT,
			kw REAL,
			kva REAL,
			kvar REAL,
			kvarh REAL,
			pf REAL,
			voltage_ac REAL,
			current_ac REAL,
			frequency REAL,
			temperature REAL,
			oem_error_code TEXT,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_records_envelope ON records(envelope_id);
		CREATE INDEX IF NOT EXISTS idx_records_created_at ON records(created_at);
	`
	_, err := s.db.Exec(query)
	return err
}

func (s *SQLiteStore) Save(ctx context.Context, envelope *model.ResultEnvelope) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO records (
			id, envelope_id, source, asset_id, timestamp, kwh, error_type,
			error_code, kw, kva, kvar, kvarh, pf, voltage_ac, current_ac,
			frequency, temperature, oem_error_code, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	createdAt := time.Now().UTC().Format(time.RFC3339)

	for i := range envelope.Records {
		rec := &envelope.Records[i]
		_, err := stmt.ExecContext(ctx,
			uuid.New().String(),
			envelope.ID,
			envelope.Source,
			nullString(rec.AssetID),
			rec.Timestamp,
			rec.KWh,
			string(rec.ErrorType),
			nullString(rec.ErrorCode),
			rec.KW,
			rec.KVA,
			rec.KVAr,
			rec.KVArh,
			rec.PF,
			rec.VoltageAC,
			rec.CurrentAC,
			rec.Frequency,
			rec.Temperature,
			nullString(rec.OEMErrorCode),
			createdAt,
		)
		if err != nil {
			return fmt.Errorf("failed to store record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.log.Debug("envelope archived",
		slog.String("envelope_id", envelope.ID),
		slog.Int("records", len(envelope.Records)),
	)
	return nil
}

func (s *SQLiteStore) ByEnvelope(ctx context.Context, envelopeID string) ([]model.Record, error) {
	query := `
		SELECT timestamp, kwh, error_type, error_code, kw, kva, kvar, kvarh,
		       pf, voltage_ac, current_ac, frequency, temperature, asset_id,
		       oem_error_code
		FROM records
		WHERE envelope_id = ?
		ORDER BY rowid ASC
	`

	rows, err := s.db.QueryContext(ctx, query, envelopeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		var rec model.Record
		var errorType string
		var errCode, assetID, oemCode sql.NullString
		var kw, kva, kvar, kvarh, pf sql.NullFloat64
		var voltage, current, freq, temp sql.NullFloat64

		err := rows.Scan(
			&rec.Timestamp, &rec.KWh, &errorType, &errCode,
			&kw, &kva, &kvar, &kvarh, &pf,
			&voltage, &current, &freq, &temp,
			&assetID, &oemCode,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		rec.ErrorType = model.ErrorType(errorType)
		rec.ErrorCode = errCode.String
		rec.AssetID = assetID.String
		rec.OEMErrorCode = oemCode.String
		rec.KW = floatPtr(kw)
		rec.KVA = floatPtr(kva)
		rec.KVAr = floatPtr(kvar)
		rec.KVArh = floatPtr(kvarh)
		rec.PF = floatPtr(pf)
		rec.VoltageAC = floatPtr(voltage)
		rec.CurrentAC = floatPtr(current)
		rec.Frequency = floatPtr(freq)
		rec.Temperature = floatPtr(temp)

		records = append(records, rec)
	}

	return records, rows.Err()
}

func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&count)
	return count, err
}

func (s *SQLiteStore) Prune(ctx context.Context, maxAge time.Duration) error {
	cutoff := time.Now().UTC().Add(-maxAge).Format(time.RFC3339)

	result, err := s.db.ExecContext(ctx, "DELETE FROM records WHERE created_at < ?", cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune old records: %w", err)
	}

	deleted, _ := result.RowsAffected()
	if deleted > 0 {
		s.log.Info("pruned archived records", slog.Int64("deleted", deleted))
	}

	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
