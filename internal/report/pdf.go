package report

import (
	"bytes"
	"fmt"
	"strconv"
	"unicode/utf8"
)

const (
	maxHeaderLines = 4

	headerShade = "0.85"
	zebraShade  = "0.94"
	ruleGray    = "0.75"
)

// PDF renders t as a landscape A4 PDF 1.4 document. Column widths are
// fixed for the whole document, the header row repeats on every page, and
// odd data rows are shaded. An empty table still yields one page.
func PDF(t Table) ([]byte, error) {
	if len(t.Headers) == 0 {
		return nil, ErrNoColumns
	}

	widths := columnWidths(t, int(pageWidth-2*margin))
	caps := make([]int, len(widths))
	for i, w := range widths {
		caps[i] = charCapacity(w)
	}

	header := layoutCells(t.Headers, caps, maxHeaderLines)
	maxLines := max(1, int((tableHeight-header.height-2*cellPadY)/lineHeight))
	rows := make([]layoutRow, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = layoutCells(r, caps, maxLines)
	}

	pages := paginate(rows, header)

	streams := make([][]byte, len(pages))
	for i, idx := range pages {
		streams[i] = pageContent(t, widths, header, rows, idx, i+1, len(pages))
	}
	return assemble(streams), nil
}

func pageContent(t Table, widths []int, header layoutRow, rows []layoutRow, idx []int, page, pages int) []byte {
	var b bytes.Buffer
	left := margin
	right := pageWidth - margin

	textAt(&b, "F2", titleSize, left, pageHeight-margin-titleSize, t.Title)
	if t.Subtitle != "" {
		textAt(&b, "F1", subSize, left, pageHeight-margin-titleSize-6-subSize, t.Subtitle)
	}

	y := tableTop
	fill(&b, headerShade, left, y-header.height, right-left, header.height)
	drawCells(&b, "F2", widths, header, y)
	y -= header.height
	rule(&b, left, right, y)

	for _, i := range idx {
		r := rows[i]
		if i%2 == 1 {
			fill(&b, zebraShade, left, y-r.height, right-left, r.height)
		}
		drawCells(&b, "F1", widths, r, y)
		y -= r.height
		rule(&b, left, right, y)
	}

	if len(t.Rows) == 0 {
		textAt(&b, "F1", fontSize, left+cellPadX, y-cellPadY-fontSize, "No rows.")
	}

	footer := fmt.Sprintf("Page %d of %d", page, pages)
	textAt(&b, "F1", fontSize, right-float64(len(footer))*fontSize*glyphWidthFactor, margin-fontSize, footer)
	return b.Bytes()
}

func drawCells(b *bytes.Buffer, font string, widths []int, r layoutRow, top float64) {
	x := margin
	for c, lines := range r.cells {
		baseline := top - cellPadY - fontSize
		for _, line := range lines {
			if line != "" {
				textAt(b, font, fontSize, x+cellPadX, baseline, line)
			}
			baseline -= lineHeight
		}
		x += float64(widths[c])
	}
}

func textAt(b *bytes.Buffer, font string, size, x, y float64, s string) {
	fmt.Fprintf(b, "BT /%s %s Tf 0 g %s %s Td (", font, num(size), num(x), num(y))
	writeEscaped(b, s)
	b.WriteString(") Tj ET\n")
}

func fill(b *bytes.Buffer, gray string, x, y, w, h float64) {
	fmt.Fprintf(b, "%s g %s %s %s %s re f\n", gray, num(x), num(y), num(w), num(h))
}

func rule(b *bytes.Buffer, x1, x2, y float64) {
	fmt.Fprintf(b, "%s G 0.5 w %s %s m %s %s l S\n", ruleGray, num(x1), num(y), num(x2), num(y))
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// writeEscaped writes s as the body of a PDF literal string in
// WinAnsiEncoding. Backslash and parentheses are escaped, control and
// non-ASCII Latin-1 bytes are octal-escaped, and anything above U+00FF
// becomes '?'.
func writeEscaped(b *bytes.Buffer, s string) {
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]
		switch {
		case r == '\\' || r == '(' || r == ')':
			b.WriteByte('\\')
			b.WriteByte(byte(r))
		case r == utf8.RuneError && size == 1, r > 0xFF:
			b.WriteByte('?')
		case r < 0x20 || r >= 0x7F:
			fmt.Fprintf(b, "\\%03o", r)
		default:
			b.WriteByte(byte(r))
		}
	}
}

// assemble writes the object graph: catalog (1), page tree (2), fonts (3,
// 4), then a page and its content stream for each page.
func assemble(streams [][]byte) []byte {
	n := len(streams)
	objCount := 4 + 2*n
	offsets := make([]int, objCount+1)

	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n%\xE2\xE3\xCF\xD3\n")

	begin := func(id int) {
		offsets[id] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n", id)
	}
	end := func() { b.WriteString("endobj\n") }

	begin(1)
	b.WriteString("<< /Type /Catalog /Pages 2 0 R >>\n")
	end()

	begin(2)
	b.WriteString("<< /Type /Pages /Kids [")
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%d 0 R", 5+2*i)
	}
	fmt.Fprintf(&b, "] /Count %d >>\n", n)
	end()

	begin(3)
	b.WriteString("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>\n")
	end()

	begin(4)
	b.WriteString("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica-Bold /Encoding /WinAnsiEncoding >>\n")
	end()

	for i, content := range streams {
		pageID, contentID := 5+2*i, 6+2*i

		begin(pageID)
		fmt.Fprintf(&b, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %s %s] "+
			"/Resources << /Font << /F1 3 0 R /F2 4 0 R >> >> /Contents %d 0 R >>\n",
			num(pageWidth), num(pageHeight), contentID)
		end()

		begin(contentID)
		fmt.Fprintf(&b, "<< /Length %d >>\nstream\n", len(content))
		b.Write(content)
		b.WriteString("\nendstream\n")
		end()
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", objCount+1)
	b.WriteString("0000000000 65535 f \n")
	for id := 1; id <= objCount; id++ {
		fmt.Fprintf(&b, "%010d 00000 n \n", offsets[id])
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", objCount+1, xref)
	return b.Bytes()
}
