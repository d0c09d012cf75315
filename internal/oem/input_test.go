package oem

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseCSVRowsRaggedInput(t *testing.T) {
	rows, err := parseCSVRows("a,b,c\n1,2,3\n4,5\n6,7,8,9\n")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0]["c"] != "3" {
		t.Errorf("rows[0][c] = %q, want 3", rows[0]["c"])
	}
	if _, ok := rows[1]["c"]; ok {
		t.Errorf("short row must leave trailing column absent, got %q", rows[1]["c"])
	}
	if rows[2]["c"] != "8" {
		t.Errorf("long row keeps header-bound fields, got %q", rows[2]["c"])
	}
}

func TestParseCSVRowsHeaderOnly(t *testing.T) {
	rows, err := parseCSVRows("a,b,c\n")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("got %d rows, want 0", len(rows))
	}
}

func TestReadInputPrefersExistingPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	if err := os.WriteFile(path, []byte(`{"ok": true}`), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	got, err := readInput(path)
	if err != nil {
		t.Fatalf("readInput failed: %v", err)
	}
	if got != `{"ok": true}` {
		t.Errorf("got %q", got)
	}
}

func TestReadInputKeepsInlineData(t *testing.T) {
	inline := `{"never": "a path"}`
	got, err := readInput(inline)
	if err != nil {
		t.Fatalf("readInput failed: %v", err)
	}
	if got != inline {
		t.Errorf("inline data modified: %q", got)
	}
}

func TestReadInputKeepsMultilinePayload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	if err := os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	// A payload spanning lines is never a path, even when its first line
	// names an existing file.
	inline := path + "\n"
	got, err := readInput(inline)
	if err != nil {
		t.Fatalf("readInput failed: %v", err)
	}
	if got != inline {
		t.Errorf("multiline input was resolved as a path: %q", got)
	}
}

func TestReadInputKeepsDirectoryNames(t *testing.T) {
	dir := t.TempDir()
	got, err := readInput(dir)
	if err != nil {
		t.Fatalf("readInput failed: %v", err)
	}
	if got != dir {
		t.Errorf("directory path was read: %q", got)
	}
}

func TestParseJSONFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "payload.json")
	if err := os.WriteFile(path, []byte(`{"n": 5}`), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	payload, err := parseJSON(path)
	if err != nil {
		t.Fatalf("parseJSON failed: %v", err)
	}
	obj, ok := payload.(map[string]any)
	if !ok || obj["n"] != float64(5) {
		t.Errorf("payload = %#v", payload)
	}
}

func TestCSVRowReaderEmptyInput(t *testing.T) {
	r, err := newCSVRowReader("")
	if err != nil {
		t.Fatalf("reader failed: %v", err)
	}
	defer r.Close()
	if _, err := r.Next(); err == nil {
		t.Fatal("expected EOF from empty input")
	}
}
