package dataset

import (
	"bufio"
	"fmt"
	"os"

	"github.com/tidwall/gjson"
)

const (
	// documentKey is the one record field the pipeline consumes.
	documentKey = "document"

	// maxLineBytes bounds a single dataset line. Source documents for
	// long-input checkpoints run to hundreds of kilobytes per line.
	maxLineBytes = 16 * 1024 * 1024
)

// Record is one line of the dataset, kept as raw JSON. Fields other than
// the document text are carried along untouched and never inspected.
type Record struct {
	raw []byte
}

// Document extracts the document text. Absence of the field is only
// discovered here, at consumption time, not during loading.
func (r Record) Document() (string, error) {
	field := gjson.GetBytes(r.raw, documentKey)
	if !field.Exists() {
		return "", fmt.Errorf("record has no %q field", documentKey)
	}

	if field.Type != gjson.String {
		return "", fmt.Errorf("record field %q is not a string", documentKey)
	}

	return field.String(), nil
}

// Load reads a line-delimited JSON file into ordered records. Every line
// must be an independently valid JSON value.
func Load(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	var records []Record

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNumber := 0
	for scanner.Scan() {
		lineNumber++

		line := scanner.Bytes()
		if !gjson.ValidBytes(line) {
			return nil, fmt.Errorf("dataset line %d is not valid JSON", lineNumber)
		}

		raw := make([]byte, len(line))
		copy(raw, line)
		records = append(records, Record{raw: raw})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}

	return records, nil
}
