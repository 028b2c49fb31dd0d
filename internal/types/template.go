package types

import (
	"fmt"
	"strings"
)

// TemplateSelector identifies one of the fixed resume layouts.
type TemplateSelector string

const (
	// TemplateProfessional is a single column with a header band.
	TemplateProfessional TemplateSelector = "Professional"
	// TemplateModernSidebar is two panes with a colored identity sidebar.
	TemplateModernSidebar TemplateSelector = "ModernSidebar"
	// TemplateCreative is a banner header over a two-column card grid.
	TemplateCreative TemplateSelector = "Creative"
	// TemplateMinimalist is a single typographic column without color blocks.
	TemplateMinimalist TemplateSelector = "Minimalist"
)

// TemplateInfo describes a layout for the template gallery.
type TemplateInfo struct {
	ID          int              `json:"id"`
	Selector    TemplateSelector `json:"selector"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
}

// Templates lists the layouts in gallery order. IDs match the numeric ids
// older clients send.
var Templates = []TemplateInfo{
	{ID: 1, Selector: TemplateProfessional, Name: "Professional", Description: "Single column with a bold header band"},
	{ID: 2, Selector: TemplateModernSidebar, Name: "Modern Sidebar", Description: "Colored sidebar for contact, skills and education"},
	{ID: 3, Selector: TemplateCreative, Name: "Creative", Description: "Gradient banner over a two-column card grid"},
	{ID: 4, Selector: TemplateMinimalist, Name: "Minimalist", Description: "Clean typographic single column"},
}

// ParseTemplateSelector accepts a selector name (case-insensitive, spaces and
// dashes ignored) or a numeric gallery id.
func ParseTemplateSelector(s string) (TemplateSelector, error) {
	key := strings.ToLower(strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.TrimSpace(s)))
	for _, t := range Templates {
		if key == strings.ToLower(string(t.Selector)) || key == fmt.Sprintf("%d", t.ID) {
			return t.Selector, nil
		}
	}
	if key == "modern" {
		return TemplateModernSidebar, nil
	}
	return "", fmt.Errorf("unknown template %q", s)
}

// Valid reports whether the selector names a known layout.
func (t TemplateSelector) Valid() bool {
	for _, info := range Templates {
		if info.Selector == t {
			return true
		}
	}
	return false
}
