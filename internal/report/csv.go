package report

import (
	"bytes"
	"encoding/csv"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// formulaPrefixes start a cell that spreadsheet applications would
// evaluate.
const formulaPrefixes = "=+-@\t\r\n"

// CSV renders t with a UTF-8 byte-order mark. Cells containing a comma,
// quote or line break are quoted with doubled inner quotes; cells that
// would be read as formulas are prefixed with a single quote.
func CSV(t Table) ([]byte, error) {
	if len(t.Headers) == 0 {
		return nil, ErrNoColumns
	}

	var buf bytes.Buffer
	buf.Write(utf8BOM)

	// LF record ends; UseCRLF would also rewrite line breaks inside cells.
	w := csv.NewWriter(&buf)

	record := make([]string, len(t.Headers))
	for i, h := range t.Headers {
		record[i] = HardenCell(h)
	}
	if err := w.Write(record); err != nil {
		return nil, err
	}
	for r := range t.Rows {
		for c := range t.Headers {
			record[c] = HardenCell(t.cell(r, c))
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// HardenCell prefixes formula-like cells with a single quote.
func HardenCell(s string) string {
	if s != "" && strings.IndexByte(formulaPrefixes, s[0]) >= 0 {
		return "'" + s
	}
	return s
}
