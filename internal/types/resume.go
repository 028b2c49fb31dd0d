// Package types provides type definitions for structured data used throughout the resume-builder system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Identity is the contact block shown at the top of every layout.
type Identity struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
}

// Resume is the normalized form of an agent-generated resume.
// Experience, Education and Skills are never nil.
type Resume struct {
	PersonalInfo Identity          `json:"personal_info"`
	Summary      string            `json:"summary"`
	Experience   []ExperienceEntry `json:"experience"`
	Education    []EducationEntry  `json:"education"`
	Skills       []string          `json:"skills"`
}

// ExperienceEntry is a single work history item. Empty fields are filled
// with layout placeholders at render time.
type ExperienceEntry struct {
	Position         string   `json:"position"`
	Company          string   `json:"company"`
	StartDate        string   `json:"start_date"`
	EndDate          string   `json:"end_date"`
	Summary          string   `json:"summary,omitempty"`
	Highlights       []string `json:"highlights,omitempty"`
	Responsibilities []string `json:"responsibilities,omitempty"`
}

// EducationEntry is a single education item.
type EducationEntry struct {
	Degree      string `json:"degree"`
	Field       string `json:"field,omitempty"`
	Institution string `json:"institution"`
	EndDate     string `json:"end_date"`
	Score       string `json:"score,omitempty"`
}

// NewResume returns a resume with empty, non-nil collections.
func NewResume() Resume {
	return Resume{
		Experience: []ExperienceEntry{},
		Education:  []EducationEntry{},
		Skills:     []string{},
	}
}

// Clone returns a deep copy so renders never share slices with the caller.
func (r Resume) Clone() Resume {
	out := r
	out.Experience = make([]ExperienceEntry, len(r.Experience))
	for i, e := range r.Experience {
		e.Highlights = cloneStrings(e.Highlights)
		e.Responsibilities = cloneStrings(e.Responsibilities)
		out.Experience[i] = e
	}
	out.Education = make([]EducationEntry, len(r.Education))
	copy(out.Education, r.Education)
	out.Skills = make([]string, len(r.Skills))
	copy(out.Skills, r.Skills)
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// ATSScore is the applicant-tracking-system match score reported by the agent.
type ATSScore struct {
	Overall         float64            `json:"overall_score"`
	Source          string             `json:"source"` // "structured" or "text"
	Breakdown       map[string]float64 `json:"breakdown,omitempty"`
	Recommendations []string           `json:"recommendations,omitempty"`
	MissingKeywords []string           `json:"missing_keywords,omitempty"`
}
