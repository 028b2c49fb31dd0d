// Package parsing normalizes agent chat payloads into the fixed resume shape.
package parsing

import (
	"github.com/jonathan/resume-builder/internal/fields"
	"github.com/jonathan/resume-builder/internal/types"
	"github.com/tidwall/gjson"
)

// ResumePath is the only location inside an agent response that carries resume content.
const ResumePath = "resume_json.resume"

// ResumeSource returns the raw resume object of an agent response, unwrapping
// a resume_json that arrives as a JSON-encoded string. ok is false when the
// object is absent or not an object.
func ResumeSource(raw []byte) (gjson.Result, bool) {
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return gjson.Result{}, false
	}
	root := gjson.ParseBytes(raw)
	wrapper := root.Get("resume_json")
	if wrapper.Type == gjson.String && gjson.Valid(wrapper.Str) {
		wrapper = gjson.Parse(wrapper.Str)
	}
	resume := wrapper.Get("resume")
	if resume.Type == gjson.String && gjson.Valid(resume.Str) {
		resume = gjson.Parse(resume.Str)
	}
	if !resume.IsObject() {
		return gjson.Result{}, false
	}
	return resume, true
}

// MapAgentResponse maps raw into a normalized resume. It returns (nil, false)
// when the response carries no resume yet; that is not an error.
func MapAgentResponse(raw []byte) (*types.Resume, bool) {
	src, ok := ResumeSource(raw)
	if !ok {
		return nil, false
	}
	resume := MapResume(src)
	return &resume, true
}

// MapResume normalizes a resume object. Identity and summary leaves are
// always populated; collections are never nil.
func MapResume(src gjson.Result) types.Resume {
	basics := src.Get("basics")
	if !basics.IsObject() {
		basics = firstObject(src, "personalInfo", "personal_info")
	}

	out := types.NewResume()
	out.PersonalInfo = types.Identity{
		Name:     fields.Resolve(fields.PlaceholderName, fields.FromPaths(basics, "name")...),
		Title:    fields.Resolve(fields.PlaceholderTitle, fields.FromPaths(basics, "label", "title", "headline")...),
		Email:    fields.Resolve(fields.PlaceholderEmail, fields.FromPaths(basics, "email")...),
		Phone:    fields.Resolve(fields.PlaceholderPhone, fields.FromPaths(basics, "phone")...),
		Location: fields.Resolve(fields.PlaceholderLocation, location(basics.Get("location"))),
	}
	out.Summary = fields.Resolve(fields.PlaceholderSummary,
		append(fields.FromPaths(basics, "summary"), fields.FromPaths(src, "summary")...)...)

	work := src.Get("experience")
	if !work.IsArray() {
		work = src.Get("work")
	}
	if work.IsArray() {
		work.ForEach(func(_, v gjson.Result) bool {
			if v.IsObject() {
				out.Experience = append(out.Experience, mapExperience(v))
			}
			return true
		})
	}

	if edu := src.Get("education"); edu.IsArray() {
		edu.ForEach(func(_, v gjson.Result) bool {
			if v.IsObject() {
				out.Education = append(out.Education, mapEducation(v))
			}
			return true
		})
	}

	out.Skills = mapSkills(src.Get("skills"))
	return out
}

// location composes city and region. A plain string is used as-is.
func location(loc gjson.Result) fields.Candidate {
	if !loc.IsObject() {
		return fields.FromJSON(loc)
	}
	city := fields.Resolve("", fields.FromPaths(loc, "city")...)
	region := fields.Resolve("", fields.FromPaths(loc, "region", "state", "countryCode")...)
	return fields.Value(fields.JoinPresent(", ", city, region))
}

func mapExperience(v gjson.Result) types.ExperienceEntry {
	// JSON Resume "work" entries name the employer in "name" next to "position".
	positionKeys := []string{"position", "title", "name"}
	companyKeys := []string{"company", "organization"}
	if v.Get("position").Exists() || v.Get("title").Exists() {
		positionKeys = positionKeys[:2]
		companyKeys = append(companyKeys, "name")
	}

	return types.ExperienceEntry{
		Position:         fields.Resolve("", fields.FromPaths(v, positionKeys...)...),
		Company:          fields.Resolve("", fields.FromPaths(v, companyKeys...)...),
		StartDate:        fields.Resolve("", fields.FromPaths(v, "startDate", "start_date")...),
		EndDate:          fields.Resolve("", fields.FromPaths(v, "endDate", "end_date")...),
		Summary:          fields.Resolve("", fields.FromPaths(v, "summary", "description")...),
		Highlights:       nonEmpty(fields.Strings(v.Get("highlights"))),
		Responsibilities: nonEmpty(fields.Strings(v.Get("responsibilities"))),
	}
}

func mapEducation(v gjson.Result) types.EducationEntry {
	return types.EducationEntry{
		Degree:      fields.Resolve("", fields.FromPaths(v, "studyType", "level", "degree")...),
		Field:       fields.Resolve("", fields.FromPaths(v, "area", "field")...),
		Institution: fields.Resolve("", fields.FromPaths(v, "institution", "school")...),
		EndDate:     fields.Resolve("", fields.FromPaths(v, "endDate", "end_date", "graduation_date")...),
		Score:       fields.Resolve("", fields.FromPaths(v, "score", "gpa")...),
	}
}

// mapSkills accepts {keywords:[...]}, {technical:[...], soft:[...]} and the
// JSON Resume list of {name, keywords} groups.
func mapSkills(s gjson.Result) []string {
	out := []string{}
	switch {
	case s.IsObject():
		for _, key := range []string{"keywords", "technical", "soft"} {
			out = append(out, fields.Strings(s.Get(key))...)
		}
	case s.IsArray():
		s.ForEach(func(_, v gjson.Result) bool {
			if !v.IsObject() {
				if c := fields.FromJSON(v); c.Present {
					out = appendNonBlank(out, c.Value)
				}
				return true
			}
			if kw := fields.Strings(v.Get("keywords")); len(kw) > 0 {
				out = append(out, kw...)
			} else {
				out = appendNonBlank(out, fields.Resolve("", fields.FromPaths(v, "name")...))
			}
			return true
		})
	}
	return out
}

func appendNonBlank(out []string, s string) []string {
	if s = fields.JoinPresent("", s); s != "" {
		out = append(out, s)
	}
	return out
}

func firstObject(src gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if v := src.Get(k); v.IsObject() {
			return v
		}
	}
	return gjson.Result{}
}

func nonEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}
