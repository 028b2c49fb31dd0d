// Package pdftext extracts the plain text of uploaded PDF documents.
package pdftext

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

// MaxUploadBytes caps the size of an accepted PDF.
const MaxUploadBytes = 10 << 20

// MIMEType is the only accepted upload type.
const MIMEType = "application/pdf"

var (
	blankRuns = regexp.MustCompile(`[ \t\r\f\v\x{00A0}]+`)
	lineRuns  = regexp.MustCompile(`\n\s*\n+`)
)

// Document is the text content of a PDF.
type Document struct {
	Pages int
	Text  string
}

// Error reports a PDF that could not be read.
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("pdf error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("pdf error: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsPDF reports whether data looks like a PDF by its content, whatever
// the client claimed.
func IsPDF(data []byte) bool {
	return mimetype.Detect(data).Is(MIMEType)
}

// Extract reads every page of data and returns its text with whitespace
// runs collapsed.
func Extract(data []byte) (doc *Document, err error) {
	if !IsPDF(data) {
		return nil, &Error{Message: "not a PDF document"}
	}
	// The reader panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, &Error{Message: "malformed PDF", Cause: fmt.Errorf("%v", r)}
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &Error{Message: "failed to open PDF", Cause: err}
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return nil, &Error{Message: "failed to extract text", Cause: err}
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return nil, &Error{Message: "failed to extract text", Cause: err}
	}
	return &Document{Pages: r.NumPage(), Text: normalize(buf.String())}, nil
}

func normalize(s string) string {
	s = blankRuns.ReplaceAllString(s, " ")
	s = lineRuns.ReplaceAllString(s, "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
