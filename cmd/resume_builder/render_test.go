package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/jonathan/resume-builder/internal/rendering"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResponse = `{"response":"Done. ATS Score: 80%","resume_json":{"resume":{"basics":{"name":"Ada Lovelace","label":"Engineer"},"experience":[],"education":[],"skills":{"keywords":["Go"]}}}}`

type capturePDF struct {
	html string
	err  error
}

func (c *capturePDF) RenderPDF(_ context.Context, html string) ([]byte, error) {
	c.html = html
	return []byte("%PDF"), c.err
}

func TestRenderDocument_HTML(t *testing.T) {
	var out bytes.Buffer
	err := renderDocument(context.Background(), &out, []byte(sampleResponse), []byte(`{"location":"London"}`), "creative", nil)
	require.NoError(t, err)

	html := out.String()
	assert.Contains(t, html, "resume--creative")
	assert.Contains(t, html, "Ada Lovelace")
	assert.Contains(t, html, "London")
}

func TestRenderDocument_PDF(t *testing.T) {
	var out bytes.Buffer
	pdf := &capturePDF{}
	require.NoError(t, renderDocument(context.Background(), &out, []byte(sampleResponse), nil, "4", pdf))

	assert.Equal(t, "%PDF", out.String())
	assert.Contains(t, pdf.html, "<title>Ada Lovelace - Resume</title>")
	assert.Contains(t, pdf.html, "resume--minimalist")

	pdf.err = errors.New("no chrome")
	assert.Error(t, renderDocument(context.Background(), &out, []byte(sampleResponse), nil, "4", pdf))
}

func TestRenderDocument_Errors(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, renderDocument(context.Background(), &out, []byte(sampleResponse), nil, "Baroque", nil))
	assert.Error(t, renderDocument(context.Background(), &out, []byte(`[]`), nil, "Professional", nil))
	assert.Empty(t, out.String())
}

func TestRenderDocument_NotGenerated(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, renderDocument(context.Background(), &out, []byte(`{"response":"hello"}`), nil, "Professional", nil))
	assert.Equal(t, rendering.NotGeneratedHTML, out.String())
}
