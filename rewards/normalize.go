package rewards

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/warp/payout-engine/generic"
	"github.com/warp/payout-engine/tabular"
)

// ParseMapping converts a field-name -> column map as received from JSON,
// flags or a form. Keys are trimmed; empty columns are dropped so they
// surface as unmapped warnings later.
func ParseMapping(raw map[string]string) (Mapping, error) {
	m := make(Mapping, len(raw))
	for k, col := range raw {
		f := Field(strings.TrimSpace(k))
		if !isKnownField(f) {
			return nil, fmt.Errorf("%w: %q", generic.ErrUnknownField, k)
		}
		if col = strings.TrimSpace(col); col != "" {
			m[f] = col
		}
	}
	return m, nil
}

// ValidateMapping returns one warning per required field that is unmapped or
// mapped to a column the table does not have. Warnings follow AllFields order.
func ValidateMapping(table *tabular.Table, mapping Mapping, required []Field) []string {
	req := make(map[Field]bool, len(required))
	for _, f := range required {
		req[f] = true
	}

	var warnings []string
	for _, f := range AllFields {
		if !req[f] {
			continue
		}
		col := mapping[f]
		if col == "" || !table.HasColumn(col) {
			warnings = append(warnings, fmt.Sprintf("missing or unmapped column: %s -> '%s'", f, col))
		}
	}
	return warnings
}

// columnSet holds resolved column indexes; -1 means not mapped.
type columnSet struct {
	creatorID     int
	diamonds      int
	liveDays      int
	liveHours     int
	status        int
	daysSinceJoin int
}

func resolveColumns(table *tabular.Table, mapping Mapping) columnSet {
	idx := func(f Field) int {
		if col := mapping[f]; col != "" {
			return table.ColumnIndex(col)
		}
		return -1
	}
	return columnSet{
		creatorID:     idx(FieldCreatorID),
		diamonds:      idx(FieldDiamonds),
		liveDays:      idx(FieldLiveDays),
		liveHours:     idx(FieldLiveHours),
		status:        idx(FieldStatus),
		daysSinceJoin: idx(FieldDaysSinceJoin),
	}
}

// normalizeRow coerces row i. Unparseable numbers become zero and negative
// numbers are clamped to zero; neither is an error.
func (c columnSet) normalizeRow(table *tabular.Table, i int) NormalizedRow {
	row := NormalizedRow{
		Index:     i,
		CreatorID: strings.TrimSpace(table.Cell(i, c.creatorID)),
		Diamonds:  generic.NonNegative(generic.ParseDecimalOrZero(table.Cell(i, c.diamonds))),
		LiveDays:  parseDays(table.Cell(i, c.liveDays)),
		LiveHours: ParseHoursCell(table.Cell(i, c.liveHours)),
		Status:    table.Cell(i, c.status),
	}
	if d, ok := generic.ParseDecimal(table.Cell(i, c.daysSinceJoin)); ok {
		f := d.InexactFloat64()
		row.DaysSinceJoin = &f
	}
	return row
}

// writeBack replaces the mapped numeric cells with their normalized values.
func (c columnSet) writeBack(table *tabular.Table, row NormalizedRow) {
	table.SetCell(row.Index, c.diamonds, row.Diamonds.String())
	table.SetCell(row.Index, c.liveDays, strconv.Itoa(row.LiveDays))
	table.SetCell(row.Index, c.liveHours, strconv.FormatFloat(row.LiveHours, 'f', -1, 64))
	if row.DaysSinceJoin != nil {
		table.SetCell(row.Index, c.daysSinceJoin, strconv.FormatFloat(*row.DaysSinceJoin, 'f', -1, 64))
	} else {
		table.SetCell(row.Index, c.daysSinceJoin, "")
	}
}

// parseDays reads a live-days cell, truncating fractional values.
func parseDays(s string) int {
	d, ok := generic.ParseDecimal(s)
	if !ok || d.IsNegative() {
		return 0
	}
	return int(d.IntPart())
}
