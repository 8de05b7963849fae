// Package docscan classifies uploaded application documents and rejects
// files that cannot be opened by reviewers.
package docscan

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

const (
	MimePDF  = "application/pdf"
	MimePNG  = "image/png"
	MimeJPEG = "image/jpeg"
)

var (
	ErrEmpty       = errors.New("empty file")
	ErrUnsupported = errors.New("unsupported file type")
	ErrUnreadable  = errors.New("file cannot be read")
)

var extensions = map[string]string{
	MimePDF:  ".pdf",
	MimePNG:  ".png",
	MimeJPEG: ".jpg",
}

// Result describes an accepted upload.
type Result struct {
	ContentType string
	Extension   string
	// Pages is set for PDFs only.
	Pages int
}

// Inspect detects the content type from the bytes themselves, ignoring any
// client-supplied type, and verifies PDFs parse with at least one page.
func Inspect(data []byte) (Result, error) {
	if len(data) == 0 {
		return Result{}, ErrEmpty
	}
	contentType := mimetype.Detect(data).String()
	ext, ok := extensions[contentType]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupported, contentType)
	}
	res := Result{ContentType: contentType, Extension: ext}
	if contentType == MimePDF {
		pages, err := countPages(data)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
		}
		if pages < 1 {
			return Result{}, fmt.Errorf("%w: no pages", ErrUnreadable)
		}
		res.Pages = pages
	}
	return res, nil
}

func countPages(data []byte) (pages int, err error) {
	// The pdf reader panics on some malformed cross-reference tables.
	defer func() {
		if rec := recover(); rec != nil {
			pages, err = 0, fmt.Errorf("malformed pdf: %v", rec)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, err
	}
	return r.NumPage(), nil
}
