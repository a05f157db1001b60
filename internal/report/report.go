// Package report renders tabular data as hardened CSV or as a minimal,
// self-contained PDF. Renderers are pure: no I/O and no shared state, so
// independent reports can be built concurrently.
package report

import "errors"

// ErrNoColumns is returned when a table has no header cells.
var ErrNoColumns = errors.New("report: table has no columns")

// Table is renderer input. Rows shorter than Headers are padded with empty
// cells; extra cells are dropped.
type Table struct {
	Title    string
	Subtitle string
	Headers  []string
	Rows     [][]string
}

func (t Table) cell(row, col int) string {
	r := t.Rows[row]
	if col < len(r) {
		return r[col]
	}
	return ""
}
