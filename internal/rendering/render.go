package rendering

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jonathan/resume-builder/internal/types"
	"golang.org/x/sync/errgroup"
)

// NotGeneratedHTML is rendered for every layout until the agent has produced
// resume content.
const NotGeneratedHTML = `<div class="resume resume--pending"><p class="placeholder">Your resume has not been generated yet. Start a conversation with the assistant to create it.</p></div>`

// Render renders resume in the selected layout. A nil resume yields
// NotGeneratedHTML. The inputs are never modified and the output depends only
// on them.
func Render(resume *types.Resume, profile types.Identity, selector types.TemplateSelector) (string, error) {
	if !selector.Valid() {
		return "", &RenderError{Message: fmt.Sprintf("unknown template %q", selector)}
	}
	if resume == nil {
		return NotGeneratedHTML, nil
	}

	doc := prepare(resume.Clone(), profile, selector)

	var buf bytes.Buffer
	if err := layouts.ExecuteTemplate(&buf, string(selector), doc); err != nil {
		return "", &TemplateError{
			Layout:  string(selector),
			Message: "failed to execute layout",
			Cause:   err,
		}
	}
	return buf.String(), nil
}

// Preview is one rendered layout.
type Preview struct {
	Template types.TemplateInfo `json:"template"`
	HTML     string             `json:"html"`
}

// RenderAll renders every layout concurrently, in gallery order.
func RenderAll(ctx context.Context, resume *types.Resume, profile types.Identity) ([]Preview, error) {
	out := make([]Preview, len(types.Templates))
	g, ctx := errgroup.WithContext(ctx)

	for i, info := range types.Templates {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			html, err := Render(resume, profile, info.Selector)
			if err != nil {
				return err
			}
			out[i] = Preview{Template: info, HTML: html}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
