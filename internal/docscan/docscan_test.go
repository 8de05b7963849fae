package docscan

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

// minimalPDF builds a one-page PDF with a correct cross-reference table.
func minimalPDF() []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>",
	}
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestInspectAcceptsReadablePDF(t *testing.T) {
	res, err := Inspect(minimalPDF())
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if res.ContentType != MimePDF || res.Extension != ".pdf" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Pages != 1 {
		t.Fatalf("expected 1 page, got %d", res.Pages)
	}
}

func TestInspectRejectsTruncatedPDF(t *testing.T) {
	_, err := Inspect([]byte("%PDF-1.4\nthis is not really a pdf"))
	if !errors.Is(err, ErrUnreadable) {
		t.Fatalf("expected ErrUnreadable, got %v", err)
	}
}

func TestInspectAcceptsPNG(t *testing.T) {
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	res, err := Inspect(png)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if res.ContentType != MimePNG || res.Extension != ".png" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestInspectRejectsOtherTypes(t *testing.T) {
	if _, err := Inspect([]byte("plain text resume")); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if _, err := Inspect(nil); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}
