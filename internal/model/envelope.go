package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ResultEnvelope wraps the records produced by one transformation call so
// downstream consumers (store, sinks, HTTP responses) can track provenance.
type ResultEnvelope struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	AssetID     string    `json:"asset_id,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	Records     []Record  `json:"records"`
}

func NewResultEnvelope(source, assetID string, records []Record) *ResultEnvelope {
	return &ResultEnvelope{
		ID:          uuid.New().String(),
		Source:      source,
		AssetID:     assetID,
		GeneratedAt: time.Now().UTC(),
		Records:     records,
	}
}

func (e *ResultEnvelope) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func EnvelopeFromJSON(data []byte) (*ResultEnvelope, error) {
	var e ResultEnvelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
