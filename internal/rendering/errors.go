// Package rendering turns a normalized resume and profile identity into one of four HTML layouts.
package rendering

import "fmt"

// TemplateError represents an error executing a layout template
type TemplateError struct {
	Layout  string
	Message string
	Cause   error
}

func (e *TemplateError) Error() string {
	msg := e.Message
	if e.Layout != "" {
		msg = fmt.Sprintf("%s (layout %s)", e.Message, e.Layout)
	}
	if e.Cause != nil {
		return fmt.Sprintf("template error: %s: %v", msg, e.Cause)
	}
	return fmt.Sprintf("template error: %s", msg)
}

func (e *TemplateError) Unwrap() error {
	return e.Cause
}

// RenderError represents a general rendering failure, such as an unknown layout
type RenderError struct {
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("render error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("render error: %s", e.Message)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}
