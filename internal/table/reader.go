package table

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// DefaultMetaColumns is the number of fixed VCF columns (CHROM..FORMAT)
// that precede the per-sample genotype columns.
const DefaultMetaColumns = 9

// Options controls how a table is read.
type Options struct {
	MetaColumns int      // columns before the first sample column
	Encoding    Encoding // input text encoding
}

// DefaultOptions returns the options used for VCF-style text tables.
func DefaultOptions() Options {
	return Options{MetaColumns: DefaultMetaColumns, Encoding: Latin1}
}

// Row is one site of the table.
type Row struct {
	Line   int      // 1-based line number in the input
	Fields []string // all columns, metadata first
}

// Reader reads site rows from a tab-separated table.
type Reader struct {
	reader     *bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader
	lineNumber int
	opts       Options
	meta       []string // "##" lines preceding the header
	header     []string
}

// Open creates a reader for the table at path.
// Gzipped input is detected from its magic bytes. Use "-" for stdin.
func Open(path string, opts Options) (*Reader, error) {
	if path == "-" {
		return NewReader(os.Stdin, opts)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}

	r, err := newReader(file, opts)
	if err != nil {
		file.Close()
		return nil, err
	}
	r.file = file
	return r, nil
}

// NewReader creates a reader from an io.Reader (e.g., stdin).
func NewReader(src io.Reader, opts Options) (*Reader, error) {
	return newReader(src, opts)
}

func newReader(src io.Reader, opts Options) (*Reader, error) {
	if opts.MetaColumns < 0 {
		return nil, fmt.Errorf("invalid metadata column count %d", opts.MetaColumns)
	}

	r := &Reader{opts: opts}

	raw := bufio.NewReader(src)
	var in io.Reader = raw

	// Check for gzip magic number (0x1f, 0x8b)
	magic, err := raw.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		r.gzipReader, err = gzip.NewReader(raw)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		in = r.gzipReader
	}

	r.reader = bufio.NewReader(opts.Encoding.decode(in))

	if err := r.parseHeader(); err != nil {
		r.closeGzip()
		return nil, err
	}

	return r, nil
}

// readLine returns the next line without its terminator.
// ok is false at end of input.
func (r *Reader) readLine() (line string, ok bool, err error) {
	line, err = r.reader.ReadString('\n')
	if err != nil {
		if err != io.EOF {
			return "", false, fmt.Errorf("read line %d: %w", r.lineNumber+1, err)
		}
		if line == "" {
			return "", false, nil
		}
	}
	r.lineNumber++
	return strings.TrimRight(line, "\r\n"), true, nil
}

// parseHeader consumes "##" meta lines and the column header line.
func (r *Reader) parseHeader() error {
	for {
		line, ok, err := r.readLine()
		if err != nil {
			return err
		}
		if !ok {
			return &ParseError{Line: r.lineNumber, Message: "no header line found"}
		}

		if strings.HasPrefix(line, "##") {
			r.meta = append(r.meta, line)
			continue
		}
		if line == "" {
			continue
		}

		r.header = strings.Split(line, "\t")
		if len(r.header) < r.opts.MetaColumns {
			return &ParseError{
				Line:    r.lineNumber,
				Message: fmt.Sprintf("header has %d columns, expected at least %d metadata columns", len(r.header), r.opts.MetaColumns),
			}
		}
		return nil
	}
}

// Next reads the next row.
// Returns nil, nil when there are no more rows.
func (r *Reader) Next() (*Row, error) {
	for {
		line, ok, err := r.readLine()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		if line == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) != len(r.header) {
			return nil, &ParseError{
				Line:    r.lineNumber,
				Message: fmt.Sprintf("expected %d columns, found %d", len(r.header), len(fields)),
			}
		}
		return &Row{Line: r.lineNumber, Fields: fields}, nil
	}
}

// Meta returns the "##" lines that preceded the header.
func (r *Reader) Meta() []string {
	return r.meta
}

// Header returns the column names.
func (r *Reader) Header() []string {
	return r.header
}

// SampleNames returns the column names after the metadata prefix.
func (r *Reader) SampleNames() []string {
	return r.header[r.opts.MetaColumns:]
}

// MetaColumns returns the number of metadata columns per row.
func (r *Reader) MetaColumns() int {
	return r.opts.MetaColumns
}

// LineNumber returns the current line number being processed.
func (r *Reader) LineNumber() int {
	return r.lineNumber
}

func (r *Reader) closeGzip() {
	if r.gzipReader != nil {
		r.gzipReader.Close()
	}
}

// Close closes the reader and underlying file.
func (r *Reader) Close() error {
	r.closeGzip()
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// ParseError represents an error during table parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("table parse error at line %d: %s", e.Line, e.Message)
}
