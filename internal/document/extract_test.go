package document

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"careerpilot/internal/errcode"
)

func TestExtractRejectsUnsupportedMime(t *testing.T) {
	for _, mime := range []string{"image/png", "text/plain", "application/msword", ""} {
		_, err := Extract([]byte("irrelevant"), mime)
		if !errors.Is(err, errcode.ErrUnsupportedFormat) {
			t.Errorf("mime %q: got %v, want ErrUnsupportedFormat", mime, err)
		}
	}
}

func TestIsSupportedMime(t *testing.T) {
	if !IsSupportedMime("application/pdf") || !IsSupportedMime("Application/PDF; charset=binary") {
		t.Error("pdf should be supported")
	}
	if !IsSupportedMime(MimeDOCX) {
		t.Error("docx should be supported")
	}
	if IsSupportedMime("image/png") {
		t.Error("png must not be supported")
	}
}

func TestExtractMalformedPDF(t *testing.T) {
	_, err := Extract([]byte("not a pdf at all"), MimePDF)
	if !errors.Is(err, errcode.ErrDocumentParse) {
		t.Errorf("got %v, want ErrDocumentParse", err)
	}
}

// assembleLines 必须从无序的坐标 run 还原阅读顺序：
// 行按 Y 自上而下（PDF 坐标 Y 向上增长），行内按 X 自左向右。
func TestAssembleLinesReadingOrder(t *testing.T) {
	runs := []textRun{
		{x: 50, y: 700.2, text: "Doe"},
		{x: 10, y: 650, text: "jane@example.com"},
		{x: 10, y: 699.8, text: "Jane"},
	}

	got := assembleLines(runs)
	want := "Jane Doe\njane@example.com"
	if got != want {
		t.Errorf("assembleLines = %q, want %q", got, want)
	}
}

func TestAssembleLinesCollapsesWhitespace(t *testing.T) {
	runs := []textRun{
		{x: 0, y: 100, text: "  Go   "},
		{x: 20, y: 100, text: " Redis "},
	}
	if got := assembleLines(runs); got != "Go Redis" {
		t.Errorf("assembleLines = %q", got)
	}
}

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatalf("write entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestExtractDOCX(t *testing.T) {
	docXML := `<w:document><w:body>` +
		`<w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Skills</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Go</w:t></w:r><w:r><w:t>Redis</w:t></w:r></w:p>` +
		`</w:body></w:document>`

	text, err := Extract(buildDOCX(t, docXML), MimeDOCX)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	lines := strings.Split(text, "\n")
	if len(lines) != 3 || lines[0] != "Jane Doe" || lines[2] != "Go Redis" {
		t.Errorf("unexpected text: %q", text)
	}
}

func TestExtractDOCXMissingDocumentXML(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if _, err := zw.Create("word/other.xml"); err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	_, err := Extract(buf.Bytes(), MimeDOCX)
	if !errors.Is(err, errcode.ErrDocumentParse) {
		t.Errorf("got %v, want ErrDocumentParse", err)
	}
}

func TestParserNormalizesDOCX(t *testing.T) {
	docXML := `<w:document><w:body>` +
		`<w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>jane@example.com</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Skills</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Go</w:t></w:r></w:p>` +
		`</w:body></w:document>`

	parser := NewParser(nil, slog.Default(), 0)
	structured, err := parser.Parse(context.Background(), buildDOCX(t, docXML), MimeDOCX)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if structured.Name != "Jane Doe" || len(structured.Skills) != 1 || structured.Skills[0] != "Go" {
		t.Errorf("unexpected structured resume: %+v", structured)
	}
}
