package table

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tS1\tS2\n"

// findTestFile locates a test file in the testdata directory.
func findTestFile(t *testing.T, name string) string {
	t.Helper()

	paths := []string{
		filepath.Join("testdata", name),
		filepath.Join("..", "..", "testdata", name),
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	t.Fatalf("Test file not found: %s", name)
	return ""
}

func utf8Options() Options {
	return Options{MetaColumns: DefaultMetaColumns, Encoding: UTF8}
}

func readAll(t *testing.T, r *Reader) []*Row {
	t.Helper()
	var rows []*Row
	for {
		row, err := r.Next()
		require.NoError(t, err)
		if row == nil {
			return rows
		}
		rows = append(rows, row)
	}
}

func TestOpen_Fixture(t *testing.T) {
	r, err := Open(findTestFile(t, "sites.tsv"), DefaultOptions())
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, []string{"##fileformat=VCFv4.2", "##source=test"}, r.Meta())
	assert.Len(t, r.Header(), 14)
	assert.Equal(t, []string{"S1", "S2", "S3", "S4", "S5"}, r.SampleNames())

	rows := readAll(t, r)
	require.Len(t, rows, 6)
	assert.Equal(t, 4, rows[0].Line)
	assert.Equal(t, "snp1", rows[0].Fields[2])
	assert.Equal(t, "0/0:10", rows[0].Fields[9])
}

func TestOpen_Gzip(t *testing.T) {
	data, err := os.ReadFile(findTestFile(t, "sites.tsv"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "sites.tsv.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	r, err := Open(path, DefaultOptions())
	require.NoError(t, err)
	defer r.Close()

	assert.Len(t, readAll(t, r), 6)
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.tsv"), DefaultOptions())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReader_Latin1(t *testing.T) {
	// "Jos\xe9" is "José" in ISO-8859-1.
	input := "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tJos\xe9\n" +
		"1\t10\t.\tA\tG\t.\t.\t.\tGT\t1/1\n"

	r, err := NewReader(strings.NewReader(input), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"José"}, r.SampleNames())
}

func TestReader_SkipsBlankLinesAndCRLF(t *testing.T) {
	input := header + "\n1\t10\t.\tA\tG\t.\t.\t.\tGT\t0/0\t1/1\r\n\n1\t20\t.\tA\tG\t.\t.\t.\tGT\t1/1\t1/1"

	r, err := NewReader(strings.NewReader(input), utf8Options())
	require.NoError(t, err)

	rows := readAll(t, r)
	require.Len(t, rows, 2)
	assert.Equal(t, "1/1", rows[0].Fields[10])
	assert.Equal(t, "20", rows[1].Fields[1])
	assert.Equal(t, 5, rows[1].Line)
}

func TestReader_ColumnCountMismatch(t *testing.T) {
	input := header + "1\t10\t.\tA\tG\t.\t.\t.\tGT\t0/0\n"

	r, err := NewReader(strings.NewReader(input), utf8Options())
	require.NoError(t, err)

	_, err = r.Next()
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 2, pe.Line)
	assert.Contains(t, pe.Message, "expected 11 columns, found 10")
}

func TestReader_HeaderErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty input", ""},
		{"only meta lines", "##fileformat=VCFv4.2\n"},
		{"too few header columns", "#CHROM\tPOS\tID\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader(strings.NewReader(tt.input), utf8Options())
			var pe *ParseError
			assert.ErrorAs(t, err, &pe)
		})
	}
}

func TestParseError(t *testing.T) {
	err := &ParseError{Line: 42, Message: "expected 14 columns, found 13"}
	assert.Equal(t, "table parse error at line 42: expected 14 columns, found 13", err.Error())
}

func TestParseEncoding(t *testing.T) {
	for _, name := range []string{"latin1", "ISO-8859-1", "latin-1"} {
		enc, err := ParseEncoding(name)
		require.NoError(t, err)
		assert.Equal(t, Latin1, enc)
	}

	enc, err := ParseEncoding("UTF8")
	require.NoError(t, err)
	assert.Equal(t, UTF8, enc)

	_, err = ParseEncoding("cp1252")
	assert.Error(t, err)
}

func TestWriter_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, UTF8)

	require.NoError(t, w.WriteMeta([]string{"##fileformat=VCFv4.2"}))
	require.NoError(t, w.WriteHeader([]string{"#CHROM", "POS"}))
	require.NoError(t, w.WriteRow([]string{"1", "100"}))
	require.NoError(t, w.Flush())

	assert.Equal(t, "##fileformat=VCFv4.2\n#CHROM\tPOS\n1\t100\n", buf.String())
}

func TestWriter_Latin1(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, Latin1)

	require.NoError(t, w.WriteHeader([]string{"José"}))
	require.NoError(t, w.Flush())

	assert.Equal(t, []byte("Jos\xe9\n"), buf.Bytes())
}

func TestCreate_CommitAndAbort(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.tsv")

	w, err := Create(path, UTF8)
	require.NoError(t, err)
	require.NoError(t, w.WriteRow([]string{"a", "b"}))

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "output must not exist before commit")

	require.NoError(t, w.Commit())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\tb\n", string(data))

	// Abort after commit keeps the file.
	w.Abort()
	_, err = os.Stat(path)
	assert.NoError(t, err)

	aborted := filepath.Join(dir, "aborted.tsv")
	w, err = Create(aborted, UTF8)
	require.NoError(t, err)
	require.NoError(t, w.WriteRow([]string{"x"}))
	w.Abort()

	_, err = os.Stat(aborted)
	assert.True(t, os.IsNotExist(err))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must be removed")
}
