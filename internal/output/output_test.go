package output

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFilename(t *testing.T) {
	cases := []struct {
		label, dataPath, want string
	}{
		{"bart-xsum", "/data/xsum/test.jsonl", "bart-xsum.test.predictions"},
		{"bart-xsum", "test.jsonl", "bart-xsum.test.predictions"},
		{"google-pegasus-large", "./inputs/val.json", "google-pegasus-large.val.predictions"},
		{"pegasus-cnndm", "/tmp/archive.tar.gz", "pegasus-cnndm.archive.tar.predictions"},
		{"bart-cnndm", "/data/noext", "bart-cnndm.noext.predictions"},
	}

	for _, c := range cases {
		if got := Filename(c.label, c.dataPath); got != c.want {
			t.Fatalf("Filename(%q, %q) = %q, want %q", c.label, c.dataPath, got, c.want)
		}
	}
}

func TestWriterWritesLinesInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bart-xsum.test.predictions")

	w, err := Create(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, line := range []string{"first summary", "second summary", "third summary"} {
		if err := w.WriteLine(line); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := w.Lines(); got != 3 {
		t.Fatalf("expected 3 lines written, got %d", got)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "first summary\nsecond summary\nthird summary\n"
	if string(content) != want {
		t.Fatalf("unexpected file content: %q", string(content))
	}
}

func TestCreateTruncatesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stale.predictions")
	if err := os.WriteFile(path, []byte("stale content\nfrom a previous run\n"), 0o644); err != nil {
		t.Fatalf("failed to write stale file: %v", err)
	}

	w, err := Create(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := w.WriteLine("fresh"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if string(content) != "fresh\n" {
		t.Fatalf("expected the stale content to be truncated, got %q", string(content))
	}
}
