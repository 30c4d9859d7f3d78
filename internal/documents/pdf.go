package documents

import (
	"bytes"
	"fmt"
	"strings"
)

// Renderer turns lease text into the binary artifact that gets uploaded.
type Renderer interface {
	Render(leaseText string) ([]byte, error)
}

const (
	pageWidth    = 612
	pageHeight   = 792
	marginLeft   = 72
	marginTop    = 720
	fontSize     = 10
	lineHeight   = 14
	linesPerPage = 46
)

// pdfRenderer writes a plain multi-page PDF with one Helvetica text column.
// Lease documents are simple enough that a full PDF library is not needed.
type pdfRenderer struct{}

// NewPDFRenderer returns the default artifact renderer.
func NewPDFRenderer() Renderer {
	return pdfRenderer{}
}

func (pdfRenderer) Render(leaseText string) ([]byte, error) {
	if strings.TrimSpace(leaseText) == "" {
		return nil, fmt.Errorf("lease text is empty")
	}

	lines := strings.Split(strings.ReplaceAll(leaseText, "\r\n", "\n"), "\n")
	pages := paginate(lines, linesPerPage)

	// object layout: 1 catalog, 2 page tree, 3 font, then a page and a
	// content stream object per page
	objectCount := 3 + 2*len(pages)
	offsets := make([]int, objectCount+1)

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	writeObj := func(num int, body string) {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
	}

	kids := make([]string, 0, len(pages))
	for i := range pages {
		kids = append(kids, fmt.Sprintf("%d 0 R", 4+2*i))
	}

	writeObj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>",
		strings.Join(kids, " "), len(pages)))
	writeObj(3, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	for i, pageLines := range pages {
		pageNum := 4 + 2*i
		contentNum := pageNum + 1

		writeObj(pageNum, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			pageWidth, pageHeight, contentNum))

		stream := contentStream(pageLines)
		writeObj(contentNum, fmt.Sprintf(
			"<< /Length %d >>\nstream\n%sendstream", len(stream), stream))
	}

	xrefStart := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", objectCount+1)
	buf.WriteString("0000000000 65535 f \n")
	for num := 1; num <= objectCount; num++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[num])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		objectCount+1, xrefStart)

	return buf.Bytes(), nil
}

func paginate(lines []string, perPage int) [][]string {
	var pages [][]string
	for len(lines) > perPage {
		pages = append(pages, lines[:perPage])
		lines = lines[perPage:]
	}
	return append(pages, lines)
}

func contentStream(lines []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "BT\n/F1 %d Tf\n%d %d Td\n%d TL\n", fontSize, marginLeft, marginTop, lineHeight)
	for i, line := range lines {
		if i > 0 {
			sb.WriteString("T*\n")
		}
		fmt.Fprintf(&sb, "(%s) Tj\n", escapePDFText(line))
	}
	sb.WriteString("ET\n")
	return sb.String()
}

// escapePDFText escapes string delimiters and transcodes runes to the
// font's WinAnsi single-byte encoding. Latin-1 text passes through;
// anything the encoding cannot represent becomes '?'.
func escapePDFText(text string) string {
	var sb strings.Builder
	for _, r := range text {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '(':
			sb.WriteString(`\(`)
		case ')':
			sb.WriteString(`\)`)
		default:
			switch {
			case r >= 32 && r <= 126, r >= 160 && r <= 255:
				sb.WriteByte(byte(r))
			default:
				sb.WriteByte('?')
			}
		}
	}
	return sb.String()
}
