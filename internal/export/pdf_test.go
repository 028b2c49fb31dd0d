package export

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapDocument(t *testing.T) {
	doc, err := WrapDocument(`Jane <Doe>`, `<div class="resume">Hi</div>`)
	require.NoError(t, err)

	assert.Contains(t, doc, "<!DOCTYPE html>")
	assert.Contains(t, doc, "<title>Jane &lt;Doe&gt;</title>")
	assert.Contains(t, doc, `<div class="resume">Hi</div>`, "fragment is embedded unescaped")
	assert.Contains(t, doc, "size:A4")
}

func TestNewChromeRenderer(t *testing.T) {
	r := NewChromeRenderer("/opt/chrome")
	assert.Equal(t, "/opt/chrome", r.ChromePath)
	assert.Equal(t, DefaultTimeout, r.Timeout)

	var _ PDFRenderer = r
}

func chromeBinary(t *testing.T) string {
	t.Helper()
	if p := os.Getenv("CHROME_PATH"); p != "" {
		return p
	}
	for _, name := range []string{"google-chrome", "chromium", "chromium-browser", "headless-shell"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	t.Skip("Chrome not available, skipping PDF rendering test")
	return ""
}

func TestChromeRenderer_RenderPDF(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	r := &ChromeRenderer{ChromePath: chromeBinary(t), Timeout: 45 * time.Second}

	doc, err := WrapDocument("Test", `<div><h1>Jane Doe</h1></div>`)
	require.NoError(t, err)

	pdf, err := r.RenderPDF(context.Background(), doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}
