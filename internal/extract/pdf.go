package extract

import (
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/localaid/localaid/internal/domain"
)

// extractPDF returns the text of every page in order, skipping pages that
// yield no text. A document whose pages all fail to decode is an
// ErrExtractionFailure, as is any panic raised by the pdf library on
// malformed input.
func extractPDF(r io.ReaderAt, size int64) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = fmt.Errorf("%w: malformed pdf: %v", domain.ErrExtractionFailure, rec)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("%w: open pdf: %w", domain.ErrExtractionFailure, err)
	}

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)
	var (
		firstErr error
		failed   int
	)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			failed++
			if firstErr == nil {
				firstErr = fmt.Errorf("page %d: %w", i, err)
			}
			continue
		}
		if pageText == "" {
			continue
		}
		pages = append(pages, pageText)
	}

	if numPages > 0 && failed == numPages {
		return "", fmt.Errorf("%w: %w", domain.ErrExtractionFailure, firstErr)
	}
	return strings.Join(pages, "\n"), nil
}
