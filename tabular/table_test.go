package tabular_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payout-engine/tabular"
)

func TestReadCSV_CommaSeparated(t *testing.T) {
	in := "Creator,Diamonds,Days\nC1,600000,25\nC2,50000\n"

	table, err := tabular.ReadCSV(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []string{"Creator", "Diamonds", "Days"}, table.Columns)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, "600000", table.Cell(0, 1))
	// Short rows are padded
	assert.Equal(t, "", table.Cell(1, 2))
}

func TestReadCSV_SemicolonAndBOM(t *testing.T) {
	in := "\xEF\xBB\xBFID créateur;Diamants;Durée de LIVE\nC1;160000;96h 43min 48s\n"

	table, err := tabular.ReadCSV(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, 0, table.ColumnIndex("ID créateur"))
	assert.Equal(t, "96h 43min 48s", table.Cell(0, 2))
}

func TestReadCSV_RowWiderThanHeader(t *testing.T) {
	// GIVEN: A row with a value past the last header column
	in := "Creator,Diamonds\nC1,600000\nC2,50000,oops\n"

	// WHEN: Reading it
	_, err := tabular.ReadCSV(strings.NewReader(in))

	// THEN: The row is rejected instead of silently truncated
	require.ErrorIs(t, err, tabular.ErrRowTooWide)
	assert.Contains(t, err.Error(), "row 2 has 3 cells, header has 2")
}

func TestReadCSV_TrailingSeparatorIgnored(t *testing.T) {
	in := "Creator;Diamonds\nC1;600000;\n"

	table, err := tabular.ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"C1", "600000"}, table.Rows[0])
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := tabular.ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, tabular.ErrNoHeader)
}

func TestTable_CloneIsDeep(t *testing.T) {
	orig := tabular.New([]string{"a"}, [][]string{{"1"}})
	clone := orig.Clone()
	clone.SetCell(0, 0, "2")

	assert.Equal(t, "1", orig.Cell(0, 0))
	assert.Equal(t, "2", clone.Cell(0, 0))
}

func TestTable_AppendColumnAndWrite(t *testing.T) {
	table := tabular.New([]string{"id"}, [][]string{{"C1"}, {"C2"}})

	require.NoError(t, table.AppendColumn("Reward", []string{"100", "0"}))
	assert.Error(t, table.AppendColumn("Bad", []string{"x"}))

	var buf bytes.Buffer
	require.NoError(t, table.WriteCSV(&buf))
	assert.Equal(t, "id,Reward\nC1,100\nC2,0\n", buf.String())
}

func TestTable_CellOutOfRange(t *testing.T) {
	table := tabular.New([]string{"a"}, nil)
	assert.Equal(t, "", table.Cell(0, 0))
	assert.Equal(t, -1, table.ColumnIndex("missing"))
}
