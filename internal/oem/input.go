package oem

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// readInput resolves raw input that may be either a filesystem path or the
// payload itself. Only an existence check disambiguates the two; content is
// never sniffed, so a payload that happens to parse as a path but does not
// exist stays inline.
func readInput(data string) (string, error) {
	if looksLikePath(data) {
		b, err := os.ReadFile(data)
		if err != nil {
			return "", fmt.Errorf("failed to read input file: %w", err)
		}
		return string(b), nil
	}
	return data, nil
}

func looksLikePath(data string) bool {
	// Paths never span lines or exceed the OS path limit, so inline
	// payloads are never stat'ed.
	if data == "" || len(data) > 4096 || strings.ContainsAny(data, "\n\r") {
		return false
	}
	info, err := os.Stat(data)
	if err != nil || info.IsDir() {
		return false
	}
	return true
}

// parseCSVRows decodes delimited input with a header row into one map per
// data row. Rows shorter than the header leave the trailing columns absent;
// ragged rows are tolerated rather than rejected.
func parseCSVRows(data string) ([]map[string]string, error) {
	text, err := readInput(data)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv header: %w", err)
	}

	var rows []map[string]string
	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse csv row: %w", err)
		}
		rows = append(rows, rowMap(header, fields))
	}
	return rows, nil
}

func rowMap(header, fields []string) map[string]string {
	row := make(map[string]string, len(header))
	for i, name := range header {
		if i < len(fields) {
			row[name] = fields[i]
		}
	}
	return row
}

// parseJSON decodes structured input into dynamic form.
func parseJSON(data string) (any, error) {
	text, err := readInput(data)
	if err != nil {
		return nil, err
	}
	var payload any
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse payload: %w", err)
	}
	return payload, nil
}

// csvRowReader yields header-keyed rows one at a time, reading files
// incrementally instead of materializing them.
type csvRowReader struct {
	r      *csv.Reader
	src    io.Closer
	header []string
}

func newCSVRowReader(data string) (*csvRowReader, error) {
	var (
		src    io.Reader
		closer io.Closer
	)
	if looksLikePath(data) {
		f, err := os.Open(data)
		if err != nil {
			return nil, fmt.Errorf("failed to open input file: %w", err)
		}
		src, closer = f, f
	} else {
		src = strings.NewReader(data)
	}

	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil && !errors.Is(err, io.EOF) {
		if closer != nil {
			closer.Close()
		}
		return nil, fmt.Errorf("failed to parse csv header: %w", err)
	}
	return &csvRowReader{r: r, src: closer, header: header}, nil
}

// Next returns the following data row, io.EOF at the end of input, or the
// parse error that stopped the scan.
func (c *csvRowReader) Next() (map[string]string, error) {
	if c.header == nil {
		return nil, io.EOF
	}
	fields, err := c.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to parse csv row: %w", err)
	}
	return rowMap(c.header, fields), nil
}

func (c *csvRowReader) Close() error {
	if c.src == nil {
		return nil
	}
	return c.src.Close()
}
