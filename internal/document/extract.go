package document

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"careerpilot/internal/errcode"
)

// 支持的上传类型白名单。白名单校验必须发生在任何解析动作之前。
const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// IsSupportedMime 判断 MIME 类型是否在白名单内。
func IsSupportedMime(mimeType string) bool {
	switch normalizeMime(mimeType) {
	case MimePDF, MimeDOCX:
		return true
	}
	return false
}

func normalizeMime(mimeType string) string {
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// Extract 将 PDF/DOCX 二进制内容转换为纯文本。
// 不支持的类型返回 ErrUnsupportedFormat，损坏或加密的文档返回 ErrDocumentParse。
func Extract(data []byte, mimeType string) (string, error) {
	switch normalizeMime(mimeType) {
	case MimePDF:
		return extractPDF(data)
	case MimeDOCX:
		return extractDOCX(data)
	}
	return "", fmt.Errorf("%w: %q", errcode.ErrUnsupportedFormat, mimeType)
}

type textRun struct {
	x, y float64
	text string
}

// extractPDF 从 PDF 的文本 run 重建阅读顺序：
// 按取整后的纵坐标聚成行，行间自上而下、行内自左向右排序。
func extractPDF(data []byte) (text string, err error) {
	// 该库在部分损坏文件上会 panic，统一折算为解析失败。
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errcode.ErrDocumentParse, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", errcode.ErrDocumentParse, err)
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		runs := make([]textRun, 0, len(page.Content().Text))
		for _, t := range page.Content().Text {
			runs = append(runs, textRun{x: t.X, y: t.Y, text: t.S})
		}
		if pageText := assembleLines(runs); pageText != "" {
			pages = append(pages, pageText)
		}
	}

	return strings.Join(pages, "\n\n"), nil
}

// assembleLines 把无序的文本 run 还原为有序的行文本。
// PDF 坐标系原点在左下角，因此行序按 Y 从大到小排列。
func assembleLines(runs []textRun) string {
	lines := make(map[int][]textRun)
	for _, r := range runs {
		key := int(math.Round(r.y))
		lines[key] = append(lines[key], r)
	}

	ys := make([]int, 0, len(lines))
	for y := range lines {
		ys = append(ys, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ys)))

	out := make([]string, 0, len(ys))
	for _, y := range ys {
		row := lines[y]
		sort.Slice(row, func(i, j int) bool { return row[i].x < row[j].x })

		parts := make([]string, 0, len(row))
		for _, r := range row {
			parts = append(parts, r.text)
		}
		line := collapseWhitespace(strings.Join(parts, " "))
		if line != "" {
			out = append(out, line)
		}
	}

	return strings.Join(out, "\n")
}

var (
	docxParagraph = strings.NewReplacer("</w:p>", "\n", "<w:tab/>", "\t", "<w:br/>", "\n")
	xmlTags       = regexp.MustCompile(`<[^>]+>`)
	spaceRuns     = regexp.MustCompile(`[ \t]+`)
)

// extractDOCX 解包 docx 并抽取 word/document.xml 的正文文本。
func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", errcode.ErrDocumentParse, err)
	}

	var docXML []byte
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("%w: %v", errcode.ErrDocumentParse, err)
		}
		docXML, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("%w: %v", errcode.ErrDocumentParse, err)
		}
		break
	}
	if len(docXML) == 0 {
		return "", fmt.Errorf("%w: word/document.xml missing", errcode.ErrDocumentParse)
	}

	text := docxParagraph.Replace(string(docXML))
	text = xmlTags.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = collapseWhitespace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n"), nil
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(spaceRuns.ReplaceAllString(s, " "))
}
