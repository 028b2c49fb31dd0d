// Package export converts rendered resume HTML into downloadable documents.
package export

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// DefaultTimeout bounds a single PDF render, including browser start-up.
const DefaultTimeout = 60 * time.Second

// A4 in inches.
const (
	paperWidth  = 8.27
	paperHeight = 11.69
)

// PDFRenderer prints an HTML document to PDF.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

// ChromeRenderer prints with a headless Chrome driven by chromedp.
type ChromeRenderer struct {
	// ChromePath overrides the browser binary; empty uses chromedp's lookup.
	ChromePath string
	Timeout    time.Duration
}

// NewChromeRenderer returns a renderer using the given Chrome binary.
func NewChromeRenderer(chromePath string) *ChromeRenderer {
	return &ChromeRenderer{ChromePath: chromePath, Timeout: DefaultTimeout}
}

// RenderPDF implements PDFRenderer.
func (r *ChromeRenderer) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if r.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.ChromePath))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	tmpDir, err := os.MkdirTemp("", "resume-pdf-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	htmlPath := filepath.Join(tmpDir, "index.html")
	if err := os.WriteFile(htmlPath, []byte(html), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write HTML: %w", err)
	}

	start := time.Now()
	var pdf []byte
	err = chromedp.Run(browserCtx,
		chromedp.Navigate("file://"+htmlPath),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(paperWidth).
				WithPaperHeight(paperHeight).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("pdf rendering failed: %w", err)
	}

	log.Printf("[export] rendered PDF: %d bytes in %s", len(pdf), time.Since(start).Round(time.Millisecond))
	return pdf, nil
}

var documentShell = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>@page{size:A4;margin:12mm}body{margin:0;-webkit-print-color-adjust:exact;print-color-adjust:exact}</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// WrapDocument embeds a rendered resume fragment in a standalone HTML page.
// fragment must already be escaped HTML, as produced by the rendering package.
func WrapDocument(title, fragment string) (string, error) {
	var buf bytes.Buffer
	err := documentShell.Execute(&buf, struct {
		Title string
		Body  template.HTML
	}{
		Title: title,
		Body:  template.HTML(fragment), //nolint:gosec // fragment comes from html/template output
	})
	if err != nil {
		return "", fmt.Errorf("failed to wrap document: %w", err)
	}
	return buf.String(), nil
}
