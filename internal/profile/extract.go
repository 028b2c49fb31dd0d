// Package profile normalizes stored profile records (LinkedIn scrapes, GitHub
// imports, manual entries) into a fixed identity block.
package profile

import (
	"github.com/jonathan/resume-builder/internal/fields"
	"github.com/jonathan/resume-builder/internal/types"
	"github.com/tidwall/gjson"
)

// Extract returns the identity found in raw. Every field falls back to the
// empty string; invalid or non-object input yields an empty identity.
func Extract(raw []byte) types.Identity {
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return types.Identity{}
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return types.Identity{}
	}

	// The nested profile object wins over flat fields on the same record.
	scopes := make([]gjson.Result, 0, 3)
	if p := root.Get("profile"); p.IsObject() {
		scopes = append(scopes, p)
	}
	scopes = append(scopes, root)

	return types.Identity{
		Name:     resolveName(scopes),
		Title:    fields.Resolve("", lookup(scopes, "headline", "title", "jobTitle", "label")...),
		Email:    fields.Resolve("", lookup(scopes, "email", "emailAddress", "personalinfo.email", "personalInfo.email")...),
		Phone:    fields.Resolve("", lookup(scopes, "phone", "phoneNumber", "personalinfo.phone", "personalInfo.phone")...),
		Location: resolveLocation(scopes),
	}
}

// lookup returns candidates for every key in every scope, scope-major.
func lookup(scopes []gjson.Result, keys ...string) []fields.Candidate {
	out := make([]fields.Candidate, 0, len(scopes)*len(keys))
	for _, s := range scopes {
		out = append(out, fields.FromPaths(s, keys...)...)
	}
	return out
}

// resolveName prefers direct name fields in any scope; the first/last name
// concatenation is only consulted when none are present.
func resolveName(scopes []gjson.Result) string {
	if name := fields.Resolve("", lookup(scopes, "name", "fullName", "full_name", "fullname", "personalinfo.name", "personalInfo.name")...); name != "" {
		return name
	}
	for _, s := range scopes {
		first := fields.Resolve("", fields.FromPaths(s, "firstName", "first_name")...)
		last := fields.Resolve("", fields.FromPaths(s, "lastName", "last_name")...)
		if name := fields.JoinPresent(" ", first, last); name != "" {
			return name
		}
	}
	return ""
}

func resolveLocation(scopes []gjson.Result) string {
	cands := make([]fields.Candidate, 0, len(scopes)*5)
	for _, s := range scopes {
		loc := s.Get("location")
		if loc.IsObject() {
			cands = append(cands, fields.Value(ComposeLocation(loc)))
		} else {
			cands = append(cands, fields.FromJSON(loc))
		}
		cands = append(cands, fields.FromPaths(s, "address", "city", "personalinfo.location", "personalInfo.location")...)
	}
	return fields.Resolve("", cands...)
}

// ComposeLocation renders a structured location object as "City, Region".
func ComposeLocation(loc gjson.Result) string {
	city := fields.Resolve("", fields.FromPaths(loc, "city")...)
	region := fields.Resolve("", fields.FromPaths(loc, "region", "state", "countryCode", "country")...)
	return fields.JoinPresent(", ", city, region)
}
