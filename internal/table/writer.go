package table

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Writer writes a tab-separated table.
//
// A Writer created with Create writes to a temporary file next to the
// destination; the destination only appears once Commit succeeds.
type Writer struct {
	w       *bufio.Writer
	encoder io.Closer // nil for utf-8
	file    *os.File
	path    string
	done    bool
}

// NewWriter creates a table writer on w.
func NewWriter(w io.Writer, enc Encoding) *Writer {
	ew, closer := enc.encode(w)
	return &Writer{
		w:       bufio.NewWriter(ew),
		encoder: closer,
	}
}

// Create creates a table writer for path. Use "-" for stdout.
func Create(path string, enc Encoding) (*Writer, error) {
	if path == "-" {
		return NewWriter(os.Stdout, enc), nil
	}

	file, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}

	tw := NewWriter(file, enc)
	tw.file = file
	tw.path = path
	return tw, nil
}

// WriteMeta writes "##" lines verbatim.
func (tw *Writer) WriteMeta(lines []string) error {
	for _, line := range lines {
		if _, err := tw.w.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// WriteHeader writes the column header line.
func (tw *Writer) WriteHeader(columns []string) error {
	return tw.WriteRow(columns)
}

// WriteRow writes one tab-joined line.
func (tw *Writer) WriteRow(fields []string) error {
	_, err := tw.w.WriteString(strings.Join(fields, "\t") + "\n")
	return err
}

// Flush flushes buffered data through the encoder to the underlying writer.
// Call it once, after the last row.
func (tw *Writer) Flush() error {
	if err := tw.w.Flush(); err != nil {
		return err
	}
	if tw.encoder != nil {
		return tw.encoder.Close()
	}
	return nil
}

// Commit flushes the table and moves it to its destination path.
func (tw *Writer) Commit() error {
	if tw.done {
		return nil
	}
	tw.done = true

	if err := tw.Flush(); err != nil {
		tw.discard()
		return fmt.Errorf("flush output: %w", err)
	}
	if tw.file == nil {
		return nil
	}

	tmp := tw.file.Name()
	// CreateTemp opens with 0600.
	if err := tw.file.Chmod(0644); err != nil {
		tw.discard()
		return fmt.Errorf("chmod output: %w", err)
	}
	if err := tw.file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close output: %w", err)
	}
	if err := os.Rename(tmp, tw.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}

// Abort discards everything written so far. It is a no-op after Commit.
func (tw *Writer) Abort() {
	if tw.done {
		return
	}
	tw.done = true
	tw.discard()
}

func (tw *Writer) discard() {
	if tw.file == nil {
		return
	}
	tw.file.Close()
	os.Remove(tw.file.Name())
}

// Path returns the destination path, or "" for a stream writer.
func (tw *Writer) Path() string {
	return tw.path
}
