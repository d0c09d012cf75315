package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/speedwagon-io/odse/internal/model"
)

// StdoutSink writes each record as one NDJSON line.
type StdoutSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewStdoutSink(w io.Writer) *StdoutSink {
	return &StdoutSink{enc: json.NewEncoder(w)}
}

func (s *StdoutSink) Name() string {
	return "stdout"
}

func (s *StdoutSink) Publish(ctx context.Context, envelope *model.ResultEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range envelope.Records {
		if err := s.enc.Encode(envelope.Records[i]); err != nil {
			return fmt.Errorf("failed to encode record: %w", err)
		}
	}
	return nil
}

func (s *StdoutSink) Close() error {
	return nil
}
