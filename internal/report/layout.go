package report

import (
	"strings"
	"unicode/utf8"
)

const (
	pageWidth  = 842.0 // A4 landscape, points
	pageHeight = 595.0
	margin     = 36.0

	titleSize  = 14.0
	subSize    = 8.0
	fontSize   = 8.0
	lineHeight = fontSize * 1.25
	cellPadX   = 4.0
	cellPadY   = 3.0

	// Average Helvetica glyph width as a fraction of the font size.
	glyphWidthFactor = 0.52

	headerWeightMin  = 8
	headerWeightMax  = 36
	valueWeightMin   = 4
	valueWeightMax   = 42
	weightSampleRows = 500

	minColumnWidth = 40

	tableTop    = pageHeight - margin - titleSize - 6 - subSize - 10
	tableBottom = margin + 14
	tableHeight = tableTop - tableBottom
)

// columnWidths splits total points across columns. Every column gets a
// floor; the remainder is shared by weight, and rounding leftovers go to
// the first columns one point at a time.
func columnWidths(t Table, total int) []int {
	n := len(t.Headers)
	weights := make([]int, n)
	sum := 0
	sample := min(len(t.Rows), weightSampleRows)
	for c, h := range t.Headers {
		hw := clamp(utf8.RuneCountInString(h), headerWeightMin, headerWeightMax)
		longest := 0
		for r := 0; r < sample; r++ {
			longest = max(longest, utf8.RuneCountInString(t.cell(r, c)))
		}
		vw := clamp(longest, valueWeightMin, valueWeightMax)
		weights[c] = max(hw, vw)
		sum += weights[c]
	}

	floor := min(minColumnWidth, total/n)
	spare := total - floor*n

	widths := make([]int, n)
	used := 0
	for c := range widths {
		widths[c] = floor + spare*weights[c]/sum
		used += widths[c]
	}
	for c := 0; used < total; c = (c + 1) % n {
		widths[c]++
		used++
	}
	return widths
}

// charCapacity is how many average glyphs fit in a column.
func charCapacity(width int) int {
	usable := float64(width) - 2*cellPadX
	return max(1, int(usable/(fontSize*glyphWidthFactor)))
}

// wrapText breaks s into lines of at most limit runes, on word boundaries
// where possible. Explicit line breaks are kept. Always returns at least
// one line.
func wrapText(s string, limit int) []string {
	var lines []string
	for _, para := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		lines = append(lines, wrapParagraph(para, limit)...)
	}
	return lines
}

func wrapParagraph(s string, limit int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	var cur []rune
	for _, w := range words {
		rw := []rune(w)
		for len(rw) > limit {
			if len(cur) > 0 {
				lines = append(lines, string(cur))
				cur = cur[:0]
			}
			lines = append(lines, string(rw[:limit]))
			rw = rw[limit:]
		}
		if len(rw) == 0 {
			continue
		}
		switch {
		case len(cur) == 0:
			cur = append(cur, rw...)
		case len(cur)+1+len(rw) <= limit:
			cur = append(cur, ' ')
			cur = append(cur, rw...)
		default:
			lines = append(lines, string(cur))
			cur = append(cur[:0], rw...)
		}
	}
	if len(cur) > 0 {
		lines = append(lines, string(cur))
	}
	return lines
}

// layoutRow holds wrapped cell text and the row's height in points.
type layoutRow struct {
	cells  [][]string
	height float64
}

func rowHeight(lines int) float64 {
	return float64(lines)*lineHeight + 2*cellPadY
}

// layoutCells wraps one row. Cells are truncated at maxLines so that any
// row fits on a page below the header.
func layoutCells(cells []string, caps []int, maxLines int) layoutRow {
	row := layoutRow{cells: make([][]string, len(caps))}
	tallest := 1
	for c, limit := range caps {
		var text string
		if c < len(cells) {
			text = cells[c]
		}
		lines := wrapText(text, limit)
		if len(lines) > maxLines {
			lines = lines[:maxLines]
			last := []rune(lines[maxLines-1])
			if len(last) >= limit {
				last = last[:max(0, limit-3)]
			}
			lines[maxLines-1] = string(last) + "..."
		}
		row.cells[c] = lines
		tallest = max(tallest, len(lines))
	}
	row.height = rowHeight(tallest)
	return row
}

// paginate assigns row indexes to pages. A row joins the current page
// while used+height <= available; the header is repeated on every page.
func paginate(rows []layoutRow, header layoutRow) [][]int {
	pages := [][]int{{}}
	used := header.height
	for i, r := range rows {
		cur := len(pages) - 1
		if used+r.height > tableHeight && len(pages[cur]) > 0 {
			pages = append(pages, []int{})
			cur++
			used = header.height
		}
		pages[cur] = append(pages[cur], i)
		used += r.height
	}
	return pages
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
