// Package pdfprocessor provides PDF text extraction and the character-based
// token budgeting applied to text before it is sent to a completion backend.
//
// extractor.go wraps github.com/ledongthuc/pdf and classifies its failures as
// NotFound, ExtractionFailed or NoText.
package pdfprocessor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"mindmap_backend/core"

	"github.com/ledongthuc/pdf"
)

// ErrEmptyPath is returned when no PDF path is provided.
var ErrEmptyPath = errors.New("empty PDF path provided")

// PageResult contains extraction results for a single page.
type PageResult struct {
	PageNumber      int
	Text            string
	EstimatedTokens int
	Error           error
}

// ExtractionResult contains the complete extraction output.
type ExtractionResult struct {
	// Text is the concatenated text of all non-empty pages.
	Text string

	TotalPages      int
	ExtractedPages  int
	SkippedPages    int
	EstimatedTokens int
	Pages           []PageResult
	Errors          []error
}

// ExtractorConfig configures extraction behavior.
type ExtractorConfig struct {
	// PageSeparator is placed between page texts.
	PageSeparator string

	// ContinueOnError keeps going when a single page fails to decode.
	ContinueOnError bool

	// MaxPages limits pages processed (0 = unlimited).
	MaxPages int
}

// DefaultExtractorConfig returns the configuration used by the pipelines.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		PageSeparator:   "\n",
		ContinueOnError: true,
		MaxPages:        0,
	}
}

// Extractor extracts plain text from PDF files.
type Extractor struct {
	config ExtractorConfig
}

// NewExtractor creates an Extractor with the given configuration.
func NewExtractor(config ExtractorConfig) *Extractor {
	if config.PageSeparator == "" {
		config.PageSeparator = "\n"
	}
	return &Extractor{config: config}
}

// NewDefaultExtractor creates an Extractor with DefaultExtractorConfig.
func NewDefaultExtractor() *Extractor {
	return NewExtractor(DefaultExtractorConfig())
}

// ExtractText returns the raw text of the PDF at path. Failures are
// *core.Error values of kind NotFound, ExtractionFailed or NoText.
func (e *Extractor) ExtractText(path string) (string, error) {
	result, err := e.Extract(path)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// Extract returns the full per-page extraction result.
func (e *Extractor) Extract(path string) (*ExtractionResult, error) {
	if path == "" {
		return nil, core.WrapError(core.KindNotFound, ErrEmptyPath, "PDF file not found")
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, core.NewError(core.KindNotFound, "PDF file not found: %s", path)
		}
		return nil, core.WrapError(core.KindExtractionFailed, err, "Failed to extract text from PDF")
	}
	if info.IsDir() {
		return nil, core.NewError(core.KindNotFound, "PDF file not found: %s is a directory", path)
	}

	return e.extractFile(path)
}

// extractFile opens and reads the document. The pdf package panics on some
// malformed inputs, so panics are converted into ExtractionFailed.
func (e *Extractor) extractFile(path string) (result *ExtractionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = core.NewError(core.KindExtractionFailed, "Failed to extract text from PDF: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, core.WrapError(core.KindExtractionFailed, err, "Failed to extract text from PDF")
	}
	defer f.Close()

	return e.extractFromReader(r)
}

func (e *Extractor) extractFromReader(r *pdf.Reader) (*ExtractionResult, error) {
	totalPages := r.NumPage()

	result := &ExtractionResult{
		TotalPages: totalPages,
		Pages:      make([]PageResult, 0, totalPages),
	}

	pagesToProcess := totalPages
	if e.config.MaxPages > 0 && e.config.MaxPages < totalPages {
		pagesToProcess = e.config.MaxPages
	}

	var textBuilder strings.Builder
	for pageIndex := 1; pageIndex <= pagesToProcess; pageIndex++ {
		page := e.extractPage(r, pageIndex)
		result.Pages = append(result.Pages, page)

		if page.Error != nil {
			result.Errors = append(result.Errors, fmt.Errorf("page %d: %w", pageIndex, page.Error))
			result.SkippedPages++
			if !e.config.ContinueOnError {
				return nil, core.WrapError(core.KindExtractionFailed, page.Error,
					fmt.Sprintf("Failed to extract text from PDF page %d", pageIndex))
			}
			continue
		}

		if page.Text == "" {
			result.SkippedPages++
			continue
		}

		result.ExtractedPages++
		if textBuilder.Len() > 0 {
			textBuilder.WriteString(e.config.PageSeparator)
		}
		textBuilder.WriteString(page.Text)
	}

	result.Text = textBuilder.String()
	result.EstimatedTokens = EstimateTokenCount(result.Text)

	if strings.TrimSpace(result.Text) == "" {
		// Every page failed: report the decode problem rather than "no text".
		if len(result.Errors) > 0 && len(result.Errors) == pagesToProcess {
			return nil, core.WrapError(core.KindExtractionFailed, result.Errors[0], "Failed to extract text from PDF")
		}
		return nil, core.NewError(core.KindNoText, "No extractable text found in PDF")
	}

	return result, nil
}

func (e *Extractor) extractPage(r *pdf.Reader, pageIndex int) PageResult {
	result := PageResult{PageNumber: pageIndex}

	p := r.Page(pageIndex)
	if p.V.IsNull() {
		return result
	}

	text, err := p.GetPlainText(nil)
	if err != nil {
		result.Error = fmt.Errorf("failed to extract text: %w", err)
		return result
	}

	result.Text = strings.TrimSpace(text)
	result.EstimatedTokens = EstimateTokenCount(result.Text)
	return result
}
