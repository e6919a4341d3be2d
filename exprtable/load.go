package exprtable

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pavs"
	"github.com/carbocation/pfx"
)

// BufferSize is the read buffer placed in front of the csv parser. Delimiter
// detection looks at no more than this many bytes.
const BufferSize = 4096 * 16

// Options controls how the expression table is parsed.
type Options struct {
	// Prefix is removed once from the start of each sample column header.
	// Columns without it are left unchanged.
	Prefix string

	// Delimiter separates fields. 0 means detect it from the data.
	Delimiter rune
}

// MalformedTableError reports an expression table that cannot be parsed.
// Line is 1-based and 0 when not applicable.
type MalformedTableError struct {
	Path string
	Line int
	Err  error
}

func (e *MalformedTableError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed expression table %s at line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("malformed expression table %s: %v", e.Path, e.Err)
}

func (e *MalformedTableError) Unwrap() error { return e.Err }

// Cell tokens that denote a missing measurement.
var missingTokens = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"NaN":  {},
	"nan":  {},
	"-NaN": {},
	"null": {},
	"NULL": {},
	"#N/A": {},
}

// Load reads the expression table at path, which may be local or a gs:// URL
// (client must then be non-nil), and may be compressed.
func Load(path string, client *storage.Client, opts Options) (*Table, error) {
	f, _, err := pavs.MaybeOpenSeekerFromGoogleStorage(path, client)
	if err != nil {
		return nil, pfx.Err(err)
	}

	r, dt, err := pavs.MaybeDecompressReadCloser(f)
	if err != nil {
		f.Close()
		if err == io.EOF {
			return nil, &MalformedTableError{Path: path, Err: fmt.Errorf("file is empty")}
		}
		return nil, pfx.Err(err)
	}
	defer r.Close()

	if dt != pavs.DataTypeNoCompression {
		log.Printf("Reading %s as %s-compressed data\n", path, dt)
	}

	t, err := Parse(r, opts)
	if err != nil {
		var malformed *MalformedTableError
		if errors.As(err, &malformed) {
			malformed.Path = path
			return nil, malformed
		}
		return nil, pfx.Err(err)
	}

	return t, nil
}

// Parse reads an expression table from r. Errors describing the content of
// the table are *MalformedTableError.
func Parse(r io.Reader, opts Options) (*Table, error) {
	br := bufio.NewReaderSize(r, BufferSize)

	delim := opts.Delimiter
	if delim == 0 {
		// Peek returns whatever is available alongside EOF or ErrBufferFull
		sample, _ := br.Peek(BufferSize)
		delim = pavs.DetermineDelimiter(bytes.NewReader(sample))
		log.Printf("Determined expression table delimiter to be %q\n", string(delim))
	}

	rdr := csv.NewReader(br)
	rdr.Comma = delim
	rdr.ReuseRecord = true

	header, err := rdr.Read()
	if err == io.EOF {
		return nil, &MalformedTableError{Err: fmt.Errorf("file is empty")}
	} else if err != nil {
		return nil, malformedFromCSV(err)
	}

	indexName := strings.TrimPrefix(header[0], "\ufeff")
	columns := NormalizeColumns(opts.Prefix, header[1:])

	rowIDs := make([]string, 0)
	rows := make([][]float64, 0)
	for {
		record, err := rdr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, malformedFromCSV(err)
		}
		line, _ := rdr.FieldPos(0)

		id := strings.TrimSpace(record[0])
		if id == "" {
			return nil, &MalformedTableError{Line: line, Err: fmt.Errorf("missing transcript id in the index column")}
		}

		row := make([]float64, len(record)-1)
		for j, cell := range record[1:] {
			v, err := ParseValue(cell)
			if err != nil {
				return nil, &MalformedTableError{Line: line, Err: fmt.Errorf("transcript %s, column %s: %w", id, columns[j], err)}
			}
			row[j] = v
		}

		rowIDs = append(rowIDs, id)
		rows = append(rows, row)
	}

	t, err := NewTable(indexName, columns, rowIDs, rows)
	if err != nil {
		return nil, &MalformedTableError{Err: err}
	}

	return t, nil
}

// ParseValue parses a single expression cell. Missing-value tokens yield NaN.
func ParseValue(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	if _, missing := missingTokens[cell]; missing {
		return math.NaN(), nil
	}

	return strconv.ParseFloat(cell, 64)
}

// NormalizeColumns strips prefix once from the start of each column name.
func NormalizeColumns(prefix string, columns []string) []string {
	out := make([]string, len(columns))
	for i, col := range columns {
		out[i] = strings.TrimPrefix(col, prefix)
	}

	return out
}

func malformedFromCSV(err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return &MalformedTableError{Line: parseErr.Line, Err: parseErr.Err}
	}

	return &MalformedTableError{Err: err}
}
