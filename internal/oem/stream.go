package oem

import (
	"errors"
	"io"

	"github.com/speedwagon-io/odse/internal/model"
)

// Stream delivers records lazily in input order. The usage mirrors
// database/sql rows: call Next until it reports false, then consult Err to
// distinguish end of input from a parse failure, and Close when done.
type Stream interface {
	Next() (model.Record, bool)
	Err() error
	Close() error
}

// rowFn maps one CSV row to a record, reporting false for rows the vendor
// rules drop.
type rowFn func(row map[string]string) (model.Record, bool)

// sliceStream adapts a materialized result to the Stream interface for
// sources without an incremental representation.
type sliceStream struct {
	records []model.Record
	pos     int
}

func (s *sliceStream) Next() (model.Record, bool) {
	if s.pos >= len(s.records) {
		return model.Record{}, false
	}
	rec := s.records[s.pos]
	s.pos++
	return rec, true
}

func (s *sliceStream) Err() error { return nil }

func (s *sliceStream) Close() error { return nil }

// csvStream pulls rows through a vendor row function one at a time.
type csvStream struct {
	rows *csvRowReader
	row  rowFn
	err  error
	done bool
}

func (s *csvStream) Next() (model.Record, bool) {
	if s.done {
		return model.Record{}, false
	}
	for {
		row, err := s.rows.Next()
		if err != nil {
			s.done = true
			if !errors.Is(err, io.EOF) {
				s.err = err
			}
			return model.Record{}, false
		}
		if rec, ok := s.row(row); ok {
			return rec, true
		}
	}
}

func (s *csvStream) Err() error { return s.err }

func (s *csvStream) Close() error { return s.rows.Close() }

// streamer is implemented by transformers that can yield without
// materializing the whole input first.
type streamer interface {
	transformStream(data string, opts Options) (Stream, error)
}

// collectRows runs a row function over fully parsed CSV input.
func collectRows(data string, row rowFn) ([]model.Record, error) {
	rows, err := parseCSVRows(data)
	if err != nil {
		return nil, err
	}
	records := make([]model.Record, 0, len(rows))
	for _, r := range rows {
		if rec, ok := row(r); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}
