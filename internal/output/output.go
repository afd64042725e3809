package output

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const predictionsSuffix = ".predictions"

// Filename derives the predictions file name written to the current
// working directory: <model label>.<dataset basename minus extension> plus
// the predictions suffix.
func Filename(modelLabel, dataPath string) string {
	base := filepath.Base(dataPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	return modelLabel + "." + base + predictionsSuffix
}

// Writer emits one summary per line in the order lines are written.
// Output is buffered; Close flushes and closes the underlying file.
// An interrupted run leaves whatever was flushed so far on disk.
type Writer struct {
	file  *os.File
	buf   *bufio.Writer
	lines int
}

// Create opens path for writing, truncating any existing file.
func Create(path string) (*Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create predictions file: %w", err)
	}

	return &Writer{file: file, buf: bufio.NewWriter(file)}, nil
}

// WriteLine appends one summary and its trailing newline.
func (w *Writer) WriteLine(summary string) error {
	if _, err := w.buf.WriteString(summary); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	if err := w.buf.WriteByte('\n'); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	w.lines++

	return nil
}

// Lines reports how many summaries have been written so far.
func (w *Writer) Lines() int {
	return w.lines
}

// Close flushes buffered output and closes the file.
func (w *Writer) Close() error {
	if err := w.buf.Flush(); err != nil {
		w.file.Close()

		return fmt.Errorf("flush predictions file: %w", err)
	}

	if err := w.file.Close(); err != nil {
		return fmt.Errorf("close predictions file: %w", err)
	}

	return nil
}
