package documents

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderProducesWellFormedPDF(t *testing.T) {
	data, err := NewPDFRenderer().Render("LEASE\n\nParagraph with (parens) and a \\ backslash.")
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if !bytes.HasPrefix(data, []byte("%PDF-1.4")) {
		t.Fatalf("missing PDF header")
	}
	if !bytes.HasSuffix(bytes.TrimSpace(data), []byte("%%EOF")) {
		t.Fatalf("missing EOF marker")
	}
	content := string(data)
	if !strings.Contains(content, `\(parens\)`) {
		t.Errorf("parentheses not escaped")
	}
	if !strings.Contains(content, `\\ backslash`) {
		t.Errorf("backslash not escaped")
	}
	if !strings.Contains(content, "/Count 1") {
		t.Errorf("expected a single page")
	}
}

func TestRenderPaginatesLongDocuments(t *testing.T) {
	text := strings.Repeat("clause line\n", 100)
	data, err := NewPDFRenderer().Render(text)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(data), "/Count 3") {
		t.Errorf("expected three pages for 101 lines")
	}
}

func TestRenderTranscodesTextToWinAnsi(t *testing.T) {
	data, err := NewPDFRenderer().Render("Tenant: José Müller\nSuite 漢字")
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	content := string(data)
	if !strings.Contains(content, "/WinAnsiEncoding") {
		t.Errorf("font missing WinAnsi encoding")
	}
	// Latin-1 names survive as single WinAnsi bytes, not raw UTF-8
	if !strings.Contains(content, "Jos\xe9 M\xfcller") {
		t.Errorf("latin-1 runes not transcoded")
	}
	if strings.Contains(content, "José") || strings.Contains(content, "漢") {
		t.Errorf("multi-byte UTF-8 leaked into content stream")
	}
	if !strings.Contains(content, "Suite ??") {
		t.Errorf("unencodable runes not replaced")
	}
}

func TestRenderRejectsEmptyText(t *testing.T) {
	if _, err := NewPDFRenderer().Render("   \n  "); err == nil {
		t.Fatalf("expected error for empty lease text")
	}
}
