/*
Package tabular provides the row/column dataset the payout engine reads and
annotates.

PURPOSE:
  Exports arrive with arbitrary column names and loosely typed cells
  (numbers, numbers-as-text, "96h 43min 48s"). Table keeps every cell as the
  text it arrived as; typing is the engine's job, driven by the column mapping.

CSV:
  ReadCSV accepts comma or semicolon separated files (spreadsheet exports in
  some locales use ';'), strips a UTF-8 BOM, and pads short rows. A row
  with a value past the last header column is rejected.
  WriteCSV always writes comma separated output.

SEE ALSO:
  - rewards/normalize.go: Mapping validation and cell coercion
  - rewards/engine.go: Appends the derived reward columns
*/
package tabular

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrNoHeader is returned when a CSV input has no header row.
	ErrNoHeader = errors.New("csv input has no header row")

	// ErrRowTooWide is returned when a row carries a non-empty cell past the
	// last header column.
	ErrRowTooWide = errors.New("row has more cells than the header")
)

// Table is a header plus rows of text cells.
type Table struct {
	Columns []string
	Rows    [][]string
}

// New creates a table with the given columns and rows. Rows shorter than the
// header are padded with empty cells; cells past the header are dropped.
// Use FromRecords when the rows come from outside.
func New(columns []string, rows [][]string) *Table {
	t := &Table{Columns: append([]string(nil), columns...)}
	for _, r := range rows {
		t.Rows = append(t.Rows, t.normalizeRow(r))
	}
	return t
}

// FromRecords is New for untrusted rows. Short rows are padded and trailing
// empty cells (a dangling separator) are ignored, but a non-empty cell past
// the header is an ErrRowTooWide.
func FromRecords(columns []string, rows [][]string) (*Table, error) {
	for i, r := range rows {
		for j := len(columns); j < len(r); j++ {
			if strings.TrimSpace(r[j]) != "" {
				return nil, fmt.Errorf("%w: row %d has %d cells, header has %d",
					ErrRowTooWide, i+1, len(r), len(columns))
			}
		}
	}
	return New(columns, rows), nil
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([][]string, len(t.Rows)),
	}
	for i, r := range t.Rows {
		out.Rows[i] = append([]string(nil), r...)
	}
	return out
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// ColumnIndex returns the index of the named column, or -1.
// Names are matched exactly; the first duplicate wins.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Cell returns the cell at row i, column col. Out-of-range access returns "".
func (t *Table) Cell(i, col int) string {
	if i < 0 || i >= len(t.Rows) || col < 0 || col >= len(t.Rows[i]) {
		return ""
	}
	return t.Rows[i][col]
}

// SetCell overwrites one cell.
func (t *Table) SetCell(i, col int, v string) {
	if i < 0 || i >= len(t.Rows) || col < 0 || col >= len(t.Columns) {
		return
	}
	t.Rows[i][col] = v
}

// AppendColumn adds a column with one value per row. values must have
// exactly Len() entries.
func (t *Table) AppendColumn(name string, values []string) error {
	if len(values) != len(t.Rows) {
		return fmt.Errorf("column %q: got %d values for %d rows", name, len(values), len(t.Rows))
	}
	t.Columns = append(t.Columns, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], values[i])
	}
	return nil
}

func (t *Table) normalizeRow(r []string) []string {
	row := make([]string, len(t.Columns))
	copy(row, r)
	return row
}

// =============================================================================
// CSV
// =============================================================================

// ReadCSV reads a header row followed by data rows.
func ReadCSV(r io.Reader) (*Table, error) {
	br := bufio.NewReader(r)

	// Skip UTF-8 BOM
	if b, err := br.Peek(3); err == nil && bytes.Equal(b, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = br.Discard(3)
	}

	// Peek returns whatever is buffered on a short input along with io.EOF.
	sample, _ := br.Peek(4096)

	cr := csv.NewReader(br)
	cr.Comma = detectDelimiter(string(sample))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNoHeader
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
	}
	return FromRecords(header, records[1:])
}

// WriteCSV writes the header and rows as comma separated values.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// detectDelimiter picks ';' when the header line has more semicolons than
// commas.
func detectDelimiter(sample string) rune {
	header, _, _ := strings.Cut(sample, "\n")
	if strings.Count(header, ";") > strings.Count(header, ",") {
		return ';'
	}
	return ','
}
