package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"proposal-rag/internal/models"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
)

// Extract pulls best-effort plain text out of a file. For PDFs it runs the
// fallback chain: structured per-page extraction first, then a lenient
// row-based pass. A file no extractor can read yields ExtractionFailed with
// a nil error; callers decide whether that halts their pipeline.
func Extract(filePath string) (models.Extraction, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".pdf":
		return extractPDF(filePath), nil
	case ".docx":
		return extractDOCX(filePath), nil
	case ".xlsx":
		return extractXLSX(filePath), nil
	case ".ods":
		return extractODS(filePath), nil
	case ".txt", ".md":
		return extractText(filePath), nil
	default:
		return models.Extraction{Status: models.ExtractionFailed}, fmt.Errorf("unsupported file format: %s", ext)
	}
}

func extractPDF(filePath string) models.Extraction {
	f, err := os.Open(filePath)
	if err != nil {
		log.Error().Err(err).Str("file", filePath).Msg("Error opening PDF")
		return models.Extraction{Status: models.ExtractionFailed}
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return models.Extraction{Status: models.ExtractionFailed}
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		log.Warn().Err(err).Str("file", filePath).Msg("Error initializing PDF reader")
		return models.Extraction{Status: models.ExtractionFailed}
	}

	var text strings.Builder
	numPages := reader.NumPage()
	failedPages := 0
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			failedPages++
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil || strings.TrimSpace(pageText) == "" {
			// lenient pass: reassemble the page from positioned rows
			rowText, rowErr := extractPageByRows(page)
			if rowErr != nil || strings.TrimSpace(rowText) == "" {
				failedPages++
				continue
			}
			pageText = rowText
		}
		text.WriteString(pageText)
		text.WriteString("\n")
	}

	extracted := strings.TrimSpace(text.String())
	if extracted == "" {
		log.Error().Str("file", filePath).Msg("No readable text found in PDF")
		return models.Extraction{Status: models.ExtractionFailed}
	}
	status := models.ExtractionOK
	if failedPages > 0 {
		log.Warn().Int("failed_pages", failedPages).Str("file", filePath).Msg("Partial PDF extraction")
		status = models.ExtractionPartial
	}
	return models.Extraction{Text: extracted, Status: status}
}

func extractPageByRows(page pdf.Page) (string, error) {
	rows, err := page.GetTextByRow()
	if err != nil {
		return "", err
	}
	var text strings.Builder
	for _, row := range rows {
		for _, word := range row.Content {
			text.WriteString(word.S)
			text.WriteString(" ")
		}
		text.WriteString("\n")
	}
	return text.String(), nil
}

func extractDOCX(filePath string) models.Extraction {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		log.Error().Err(err).Str("file", filePath).Msg("Error reading DOCX")
		return models.Extraction{Status: models.ExtractionFailed}
	}
	defer r.Close()

	content := r.Editable().GetContent()
	var text strings.Builder
	for _, p := range strings.Split(content, "\n") {
		if strings.TrimSpace(p) == "" {
			continue
		}
		text.WriteString(p)
		text.WriteString("\n")
	}
	return fromText(text.String())
}

func extractXLSX(filePath string) models.Extraction {
	f, err := xlsx.OpenFile(filePath)
	if err != nil {
		log.Error().Err(err).Str("file", filePath).Msg("Error reading XLSX")
		return models.Extraction{Status: models.ExtractionFailed}
	}

	var text strings.Builder
	for _, sheet := range f.Sheets {
		text.WriteString(fmt.Sprintf("## Sheet: %s\n", sheet.Name))
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				text.WriteString(cell.String() + "\t")
			}
			text.WriteString("\n")
		}
	}
	return fromText(text.String())
}

func extractODS(filePath string) models.Extraction {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		log.Error().Err(err).Str("file", filePath).Msg("Error reading ODS")
		return models.Extraction{Status: models.ExtractionFailed}
	}
	defer f.Close()

	var text strings.Builder
	partial := false
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			partial = true
			continue
		}
		text.WriteString(fmt.Sprintf("## Sheet: %s\n", sheetName))
		for _, row := range rows {
			for _, cell := range row {
				text.WriteString(cell + "\t")
			}
			text.WriteString("\n")
		}
	}
	e := fromText(text.String())
	if partial && e.Status == models.ExtractionOK {
		e.Status = models.ExtractionPartial
	}
	return e
}

func extractText(filePath string) models.Extraction {
	data, err := os.ReadFile(filePath)
	if err != nil {
		log.Error().Err(err).Str("file", filePath).Msg("Error reading text file")
		return models.Extraction{Status: models.ExtractionFailed}
	}
	return fromText(string(data))
}

func fromText(text string) models.Extraction {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Extraction{Status: models.ExtractionFailed}
	}
	return models.Extraction{Text: text, Status: models.ExtractionOK}
}
