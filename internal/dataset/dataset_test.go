package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeDataset(t *testing.T, lines ...string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.jsonl")
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write dataset fixture: %v", err)
	}

	return path
}

func TestLoadPreservesRecordOrder(t *testing.T) {
	path := writeDataset(t,
		`{"document": "first", "id": 1}`,
		`{"document": "second", "id": 2}`,
		`{"document": "third", "id": 3}`,
	)

	records, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	want := []string{"first", "second", "third"}
	for i, record := range records {
		doc, err := record.Document()
		if err != nil {
			t.Fatalf("record %d: unexpected error: %v", i, err)
		}

		if doc != want[i] {
			t.Fatalf("record %d: got %q want %q", i, doc, want[i])
		}
	}
}

func TestLoadRejectsInvalidJSONLine(t *testing.T) {
	path := writeDataset(t,
		`{"document": "fine"}`,
		`not json at all`,
		`{"document": "never reached"}`,
	)

	_, err := Load(path)
	if err == nil {
		t.Fatalf("expected an error for the malformed line")
	}

	if !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected the error to name line 2, got %q", err.Error())
	}
}

func TestLoadEmptyFile(t *testing.T) {
	path := writeDataset(t)

	records, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.jsonl"))
	if err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}

func TestLoadAcceptsLongLines(t *testing.T) {
	longDocument := strings.Repeat("lorem ipsum dolor sit amet ", 8192)
	path := writeDataset(t, fmt.Sprintf(`{"document": %q}`, longDocument))

	records, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc, err := records[0].Document()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc != longDocument {
		t.Fatalf("long document was not preserved (got %d bytes, want %d)", len(doc), len(longDocument))
	}
}

func TestDocumentErrorsAreLazy(t *testing.T) {
	path := writeDataset(t,
		`{"document": "present"}`,
		`{"summary": "no document here"}`,
		`{"document": 42}`,
	)

	records, err := Load(path)
	if err != nil {
		t.Fatalf("loading must not validate the document field: %v", err)
	}

	if _, err := records[0].Document(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := records[1].Document(); err == nil {
		t.Fatalf("expected an error for the missing field")
	}

	if _, err := records[2].Document(); err == nil {
		t.Fatalf("expected an error for the non-string field")
	}
}
