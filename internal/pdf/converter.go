// Package pdf renders document pages into the encoded image payloads the
// analysis pipeline consumes. Used by the CLI path; the HTTP API receives
// pre-rendered payloads from its caller.
package pdf

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/planlens/blueprint-qa/internal/domain"
)

// baseDPI is go-fitz's base resolution: page bounds are reported in
// 72-dpi units.
const baseDPI = 72.0

// Converter renders PDF pages to base64 JPEG data URLs.
type Converter struct {
	targetLongEdgePx int
	jpegQuality      int
}

// NewConverter creates a converter targeting the given long-edge pixel count
// and JPEG quality (1-100).
func NewConverter(targetLongEdgePx, jpegQuality int) *Converter {
	return &Converter{
		targetLongEdgePx: targetLongEdgePx,
		jpegQuality:      jpegQuality,
	}
}

// Render converts every page of a PDF into a PageRequest carrying a JPEG
// data URL no larger than the configured long edge. The onPage callback, if
// set, is invoked after each rendered page.
func (c *Converter) Render(ctx context.Context, pdfPath string, onPage func(pageNumber int)) ([]domain.PageRequest, error) {
	if err := validatePDFPath(pdfPath); err != nil {
		return nil, err
	}

	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, domain.ConversionError("Failed to open PDF", err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return nil, domain.ConversionError("PDF has no pages", nil)
	}

	pages := make([]domain.PageRequest, 0, pageCount)

	for pageNum := 0; pageNum < pageCount; pageNum++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		img, err := doc.ImageDPI(pageNum, c.dpiFor(doc, pageNum))
		if err != nil {
			return nil, domain.ConversionError(fmt.Sprintf("Failed to render page %d", pageNum+1), err)
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: c.jpegQuality}); err != nil {
			return nil, domain.ConversionError(fmt.Sprintf("Failed to encode page %d as JPEG", pageNum+1), err)
		}

		pages = append(pages, domain.PageRequest{
			PageNumber: pageNum + 1,
			Image:      "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		})

		if onPage != nil {
			onPage(pageNum + 1)
		}
	}

	return pages, nil
}

// dpiFor picks the render resolution that puts the page's long edge at the
// configured pixel target.
func (c *Converter) dpiFor(doc *fitz.Document, pageNum int) float64 {
	bound, err := doc.Bound(pageNum)
	if err != nil {
		return baseDPI
	}

	longEdge := bound.Dx()
	if bound.Dy() > longEdge {
		longEdge = bound.Dy()
	}
	if longEdge <= 0 {
		return baseDPI
	}

	return baseDPI * float64(c.targetLongEdgePx) / float64(longEdge)
}

func validatePDFPath(pdfPath string) error {
	if pdfPath == "" {
		return domain.InvalidRequestError("PDF path is required", nil)
	}

	info, err := os.Stat(pdfPath)
	if err != nil {
		return domain.IOError(fmt.Sprintf("Cannot access PDF file: %s", pdfPath), err)
	}
	if info.IsDir() {
		return domain.InvalidRequestError(fmt.Sprintf("Path is a directory, not a PDF: %s", pdfPath), nil)
	}
	if !strings.EqualFold(filepath.Ext(pdfPath), ".pdf") {
		return domain.InvalidRequestError(fmt.Sprintf("Not a PDF file: %s", pdfPath), nil)
	}

	return nil
}
