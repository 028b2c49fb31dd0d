// Package fields resolves a single display value from an ordered list of
// candidate sources.
package fields

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Placeholders substituted when no source provides a value.
const (
	PlaceholderName     = "Your Name"
	PlaceholderTitle    = "Professional Title"
	PlaceholderEmail    = "email@example.com"
	PlaceholderPhone    = "(000) 000-0000"
	PlaceholderLocation = "City, State"
	PlaceholderSummary  = "Professional summary will appear here..."
)

// Candidate is one possible source for a field.
type Candidate struct {
	Value   string
	Present bool
}

// Value wraps a plain string. Empty strings are skipped by Resolve.
func Value(s string) Candidate {
	return Candidate{Value: s, Present: true}
}

// Explicit wraps a value that may already hold the field's placeholder.
// A placeholder is not an explicit value and is treated as absent.
func Explicit(value, placeholder string) Candidate {
	return Candidate{Value: value, Present: strings.TrimSpace(value) != placeholder}
}

// FromJSON wraps a gjson result. Only strings and numbers count as present;
// objects, arrays, booleans and nulls do not.
func FromJSON(r gjson.Result) Candidate {
	switch r.Type {
	case gjson.String, gjson.Number:
		return Candidate{Value: r.String(), Present: true}
	default:
		return Candidate{}
	}
}

// FromPaths returns one candidate per path looked up under obj, in order.
func FromPaths(obj gjson.Result, paths ...string) []Candidate {
	out := make([]Candidate, 0, len(paths))
	for _, p := range paths {
		out = append(out, FromJSON(obj.Get(p)))
	}
	return out
}

// Resolve returns the first present candidate with a non-blank value,
// trimmed, or the placeholder when none qualifies.
func Resolve(placeholder string, candidates ...Candidate) string {
	for _, c := range candidates {
		if !c.Present {
			continue
		}
		if v := strings.TrimSpace(c.Value); v != "" {
			return v
		}
	}
	return placeholder
}

// JoinPresent joins the non-blank parts with sep. It never emits a dangling
// separator.
func JoinPresent(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// Strings collects the non-blank scalar elements of a JSON array. Anything
// that is not an array yields an empty, non-nil slice.
func Strings(r gjson.Result) []string {
	out := []string{}
	if !r.IsArray() {
		return out
	}
	r.ForEach(func(_, v gjson.Result) bool {
		if c := FromJSON(v); c.Present {
			if s := strings.TrimSpace(c.Value); s != "" {
				out = append(out, s)
			}
		}
		return true
	})
	return out
}
