package process

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"

	"github.com/ragdesk/ragdesk/pkg/types"
)

// extractSources 将落盘文件归一化为摄取单元。
// 表格类文件一行一个单元，文本类文件整体一个单元。
func extractSources(doc types.Document) ([]types.IngestDocument, error) {
	switch strings.ToLower(filepath.Ext(doc.Name)) {
	case ".csv":
		return extractCSV(doc)
	case ".xlsx":
		return extractXLSX(doc)
	case ".pdf":
		return extractPDF(doc)
	case ".docx":
		return extractDOCX(doc)
	default:
		return extractText(doc)
	}
}

func singleSource(doc types.Document, content string) []types.IngestDocument {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	return []types.IngestDocument{{
		SourceID: doc.ID,
		Content:  content,
		Metadata: types.Meta{"source": doc.Name},
	}}
}

func extractText(doc types.Document) ([]types.IngestDocument, error) {
	raw, err := os.ReadFile(doc.FilePath)
	if err != nil {
		return nil, err
	}
	return singleSource(doc, string(raw)), nil
}

func extractCSV(doc types.Document) ([]types.IngestDocument, error) {
	f, err := os.Open(doc.FilePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return rowsToSources(doc, rows), nil
}

func extractXLSX(doc types.Document) ([]types.IngestDocument, error) {
	x, err := excelize.OpenFile(doc.FilePath)
	if err != nil {
		return nil, err
	}
	defer x.Close()

	sheets := x.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := x.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	return rowsToSources(doc, rows), nil
}

// rowsToSources 首行为表头，之后一行一个摄取单元。
// 空行跳过不报错，行号从 1 开始计入 source_id。
func rowsToSources(doc types.Document, rows [][]string) []types.IngestDocument {
	if len(rows) < 2 {
		return nil
	}

	header := rows[0]
	var sources []types.IngestDocument
	for i, row := range rows[1:] {
		content := rowContent(header, row)
		if content == "" {
			continue
		}
		rowNum := i + 1
		sources = append(sources, types.IngestDocument{
			SourceID: fmt.Sprintf("%s_row_%d", doc.ID, rowNum),
			Content:  content,
			Metadata: types.Meta{
				"source": doc.Name,
				"row":    strconv.Itoa(rowNum),
			},
		})
	}
	return sources
}

// rowContent 行内容归一化：标题与描述置顶，其余非空列逐行追加
func rowContent(header, row []string) string {
	get := func(i int) string {
		if i >= 0 && i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	titleIdx, descIdx := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "标题", "title":
			if titleIdx == -1 {
				titleIdx = i
			}
		case "描述", "description", "desc", "内容", "content":
			if descIdx == -1 {
				descIdx = i
			}
		}
	}
	if titleIdx == -1 {
		titleIdx = 0
	}
	if descIdx == -1 && len(header) > 1 && titleIdx != 1 {
		descIdx = 1
	}

	empty := true
	for i := range header {
		if get(i) != "" {
			empty = false
			break
		}
	}
	if empty {
		return ""
	}

	b := strings.Builder{}
	fmt.Fprintf(&b, "标题: %s\n", get(titleIdx))
	fmt.Fprintf(&b, "描述: %s\n", get(descIdx))
	for i, h := range header {
		if i == titleIdx || i == descIdx {
			continue
		}
		v := get(i)
		if v == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", strings.TrimSpace(h), v)
	}
	return b.String()
}

func extractPDF(doc types.Document) ([]types.IngestDocument, error) {
	raw, err := os.ReadFile(doc.FilePath)
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("error creating PDF reader: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("could not read content of pdf: %w", err)
	}

	var buf bytes.Buffer
	if _, err = buf.ReadFrom(plain); err != nil {
		return nil, err
	}
	return singleSource(doc, buf.String()), nil
}

// extractDOCX 解压 docx 取 word/document.xml，
// 遍历 XML 收集文本，段落结束补换行
func extractDOCX(doc types.Document) ([]types.IngestDocument, error) {
	r, err := zip.OpenReader(doc.FilePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var document io.ReadCloser
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			if document, err = f.Open(); err != nil {
				return nil, err
			}
			break
		}
	}
	if document == nil {
		return nil, fmt.Errorf("invalid docx file: %s", doc.Name)
	}
	defer document.Close()

	decoder := xml.NewDecoder(document)
	b := strings.Builder{}
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := token.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.EndElement:
			if t.Name.Local == "p" {
				b.WriteString("\n")
			}
		}
	}
	return singleSource(doc, b.String()), nil
}
