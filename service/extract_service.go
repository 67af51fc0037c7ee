package service

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/caselens/casefile-be/config"
	"github.com/caselens/casefile-be/types"
)

var audioExtensions = map[string]bool{
	".ogg": true,
	".mp3": true,
	".m4a": true,
	".wav": true,
}

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// wtTag matches <w:t>text</w:t> with any attributes on the opening tag.
var wtTag = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)

// Tesseract takes ISO 639-2 codes, Whisper takes ISO 639-1.
var transcriptionLanguages = map[string]string{
	"por": "pt",
	"eng": "en",
	"spa": "es",
	"fra": "fr",
	"deu": "de",
	"ita": "it",
}

// ExtractService routes a file to the extraction strategy for its
// extension and category and returns raw text. Extraction failures
// propagate to the lifecycle controller; only "OCR found nothing" is a
// legitimate empty result.
type ExtractService struct {
	transcriber Transcriber
	ocrLanguage string
	ocrDPI      int
	logger      *zap.SugaredLogger
}

func NewExtractService(transcriber Transcriber, cfg config.OCRConfig, logger *zap.SugaredLogger) *ExtractService {
	return &ExtractService{
		transcriber: transcriber,
		ocrLanguage: cfg.Language,
		ocrDPI:      cfg.DPI,
		logger:      logger,
	}
}

// Extract dispatches on the file extension and declared category, never
// on content sniffing.
func (s *ExtractService) Extract(ctx context.Context, data []byte, filename, mimeType, docType string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	if (docType == types.DOCUMENT_TYPE_AUDIO || docType == types.DOCUMENT_TYPE_WHATSAPP_AUDIO) && audioExtensions[ext] {
		lang := transcriptionLanguages[s.ocrLanguage]
		if lang == "" {
			lang = s.ocrLanguage
		}
		return s.transcriber.Transcribe(ctx, filename, data, lang)
	}

	switch {
	case ext == ".pdf":
		return s.extractPDF(ctx, data)
	case imageExtensions[ext]:
		return s.ocrImage(ctx, data, ext)
	case ext == ".txt" || ext == ".csv":
		return extractPlain(data), nil
	case ext == ".doc" || ext == ".docx":
		return extractDOCX(data)
	case ext == ".xlsx" || ext == ".xls":
		return extractSpreadsheet(data)
	default:
		return extractPlain(data), nil
	}
}

// extractPDF pulls embedded text page by page. When no page yields any
// text the file is treated as a scanned PDF and every page is rasterized
// and OCRed instead.
func (s *ExtractService) extractPDF(ctx context.Context, data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	var pages []string
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to extract text from page %d: %w", i, err)
		}
		if strings.TrimSpace(text) != "" {
			pages = append(pages, text)
		}
	}

	if len(pages) == 0 {
		s.logger.Infow("PDF has no embedded text, falling back to OCR")
		return s.ocrPDF(ctx, data)
	}
	return strings.Join(pages, "\n\n"), nil
}

// ocrPDF rasterizes every page at the configured DPI and concatenates the
// per-page OCR output. An empty result is not an error.
func (s *ExtractService) ocrPDF(ctx context.Context, data []byte) (string, error) {
	tempDir, err := os.MkdirTemp("", "casefile-ocr-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	pdfPath := filepath.Join(tempDir, "document.pdf")
	if err := os.WriteFile(pdfPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write temp PDF: %w", err)
	}

	convertCmd := exec.CommandContext(ctx, "pdftoppm",
		"-r", strconv.Itoa(s.ocrDPI),
		"-png",
		pdfPath,
		filepath.Join(tempDir, "page"))
	if out, err := convertCmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("failed to rasterize PDF: %v: %s", err, out)
	}

	images, err := filepath.Glob(filepath.Join(tempDir, "page-*.png"))
	if err != nil || len(images) == 0 {
		return "", fmt.Errorf("no page images produced: %v", err)
	}
	sort.Strings(images)

	var pages []string
	for _, image := range images {
		text, err := s.runTesseract(ctx, image)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(text) != "" {
			pages = append(pages, strings.TrimSpace(text))
		}
	}
	return strings.Join(pages, "\n\n"), nil
}

func (s *ExtractService) ocrImage(ctx context.Context, data []byte, ext string) (string, error) {
	tempFile, err := os.CreateTemp("", "casefile-img-*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tempFile.Name())

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return "", fmt.Errorf("failed to write temp image: %w", err)
	}
	tempFile.Close()

	return s.runTesseract(ctx, tempFile.Name())
}

func (s *ExtractService) runTesseract(ctx context.Context, imagePath string) (string, error) {
	ocrCmd := exec.CommandContext(ctx, "tesseract",
		imagePath,
		"stdout",
		"-l", s.ocrLanguage,
		"--oem", "3",
		"--psm", "3",
	)
	var out bytes.Buffer
	ocrCmd.Stdout = &out
	if err := ocrCmd.Run(); err != nil {
		return "", fmt.Errorf("failed to run tesseract: %w", err)
	}
	return out.String(), nil
}

// extractPlain decodes bytes as UTF-8, replacing invalid sequences
// instead of failing.
func extractPlain(data []byte) string {
	return strings.ToValidUTF8(string(data), "�")
}

// extractDOCX reads the OOXML main document and joins the text nodes of
// each paragraph, paragraphs separated by newlines.
func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open document: %w", err)
	}

	var docXML []byte
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open document body: %w", err)
		}
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(rc); err != nil {
			rc.Close()
			return "", fmt.Errorf("failed to read document body: %w", err)
		}
		rc.Close()
		docXML = buf.Bytes()
		break
	}
	if docXML == nil {
		return "", fmt.Errorf("word/document.xml not found")
	}

	var paragraphs []string
	for _, para := range strings.Split(string(docXML), "</w:p>") {
		var b strings.Builder
		for _, match := range wtTag.FindAllStringSubmatch(para, -1) {
			b.WriteString(match[1])
		}
		if text := strings.TrimSpace(b.String()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	return strings.Join(paragraphs, "\n"), nil
}

// extractSpreadsheet concatenates cell values row by row, cells joined
// with " | ", skipping blank rows.
func extractSpreadsheet(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	var lines []string
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("failed to read sheet %q: %w", sheet, err)
		}
		for _, row := range rows {
			blank := true
			for _, cell := range row {
				if strings.TrimSpace(cell) != "" {
					blank = false
					break
				}
			}
			if blank {
				continue
			}
			lines = append(lines, strings.Join(row, " | "))
		}
	}
	return strings.Join(lines, "\n"), nil
}
