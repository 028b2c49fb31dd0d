package rendering

import (
	"strings"

	"github.com/jonathan/resume-builder/internal/fields"
	"github.com/jonathan/resume-builder/internal/types"
)

// Placeholders for entry fields and empty sections.
const (
	PlaceholderPosition    = "Position"
	PlaceholderCompany     = "Company Name"
	PlaceholderStart       = "Start"
	PlaceholderEnd         = "End"
	PlaceholderEntryBody   = "Key responsibilities and achievements"
	PlaceholderDegree      = "Degree"
	PlaceholderField       = "Field of Study"
	PlaceholderInstitution = "Institution"
	PlaceholderYear        = "Year"

	EmptyExperience = "Experience details will appear here..."
	EmptyEducation  = "Education details will appear here..."
	EmptySkills     = "Skills will appear here..."
)

// document is the layout-independent view every template consumes.
type document struct {
	Layout     string
	Identity   types.Identity
	Summary    string
	Experience []experienceCard
	Education  []educationLine
	Skills     []string

	EmptyExperience string
	EmptyEducation  string
	EmptySkills     string
}

// experienceCard has exactly one body: Summary, Bullets or Fallback.
type experienceCard struct {
	Position string
	Company  string
	Dates    string
	Summary  string
	Bullets  []string
	Fallback string
}

type educationLine struct {
	Degree      string
	Field       string
	Institution string
	Year        string
	Score       string
}

// MergeIdentity resolves each contact field as resume value (unless it is
// still the placeholder), then profile value, then placeholder.
func MergeIdentity(resume, profile types.Identity) types.Identity {
	merge := func(resumeVal, profileVal, placeholder string) string {
		return fields.Resolve(placeholder, fields.Explicit(resumeVal, placeholder), fields.Value(profileVal))
	}
	return types.Identity{
		Name:     merge(resume.Name, profile.Name, fields.PlaceholderName),
		Title:    merge(resume.Title, profile.Title, fields.PlaceholderTitle),
		Email:    merge(resume.Email, profile.Email, fields.PlaceholderEmail),
		Phone:    merge(resume.Phone, profile.Phone, fields.PlaceholderPhone),
		Location: merge(resume.Location, profile.Location, fields.PlaceholderLocation),
	}
}

func prepare(resume types.Resume, profile types.Identity, layout types.TemplateSelector) document {
	doc := document{
		Layout:          layoutClass(layout),
		Identity:        MergeIdentity(resume.PersonalInfo, profile),
		Summary:         fields.Resolve(fields.PlaceholderSummary, fields.Value(resume.Summary)),
		Experience:      make([]experienceCard, 0, len(resume.Experience)),
		Education:       make([]educationLine, 0, len(resume.Education)),
		Skills:          make([]string, 0, len(resume.Skills)),
		EmptyExperience: EmptyExperience,
		EmptyEducation:  EmptyEducation,
		EmptySkills:     EmptySkills,
	}

	for _, e := range resume.Experience {
		doc.Experience = append(doc.Experience, prepareExperience(e))
	}
	for _, e := range resume.Education {
		doc.Education = append(doc.Education, educationLine{
			Degree:      fields.Resolve(PlaceholderDegree, fields.Value(e.Degree)),
			Field:       fields.Resolve(PlaceholderField, fields.Value(e.Field)),
			Institution: fields.Resolve(PlaceholderInstitution, fields.Value(e.Institution)),
			Year:        fields.Resolve(PlaceholderYear, fields.Value(e.EndDate)),
			Score:       strings.TrimSpace(e.Score),
		})
	}
	for _, s := range resume.Skills {
		if s = strings.TrimSpace(s); s != "" {
			doc.Skills = append(doc.Skills, s)
		}
	}
	return doc
}

func prepareExperience(e types.ExperienceEntry) experienceCard {
	card := experienceCard{
		Position: fields.Resolve(PlaceholderPosition, fields.Value(e.Position)),
		Company:  fields.Resolve(PlaceholderCompany, fields.Value(e.Company)),
		Dates: fields.Resolve(PlaceholderStart, fields.Value(e.StartDate)) + " - " +
			fields.Resolve(PlaceholderEnd, fields.Value(e.EndDate)),
	}

	switch {
	case strings.TrimSpace(e.Summary) != "":
		card.Summary = strings.TrimSpace(e.Summary)
	case hasText(e.Highlights):
		card.Bullets = trimmed(e.Highlights)
	case hasText(e.Responsibilities):
		card.Bullets = trimmed(e.Responsibilities)
	default:
		card.Fallback = PlaceholderEntryBody
	}
	return card
}

func layoutClass(layout types.TemplateSelector) string {
	return strings.ToLower(string(layout))
}

func hasText(items []string) bool {
	for _, s := range items {
		if strings.TrimSpace(s) != "" {
			return true
		}
	}
	return false
}

func trimmed(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
