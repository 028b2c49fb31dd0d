package rendering

import (
	"context"
	"strings"
	"testing"

	"github.com/jonathan/resume-builder/internal/fields"
	"github.com/jonathan/resume-builder/internal/parsing"
	"github.com/jonathan/resume-builder/internal/profile"
	"github.com/jonathan/resume-builder/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allSelectors() []types.TemplateSelector {
	out := make([]types.TemplateSelector, 0, len(types.Templates))
	for _, info := range types.Templates {
		out = append(out, info.Selector)
	}
	return out
}

func sampleResume() *types.Resume {
	r := types.NewResume()
	r.PersonalInfo = types.Identity{
		Name:     "Jane Doe",
		Title:    "Backend Engineer",
		Email:    "jane@x.com",
		Phone:    fields.PlaceholderPhone,
		Location: "Austin, TX",
	}
	r.Summary = "Builds reliable services."
	r.Experience = []types.ExperienceEntry{
		{Position: "Engineer", Company: "Acme", StartDate: "2020", EndDate: "2023", Highlights: []string{"Cut latency 40%"}},
	}
	r.Education = []types.EducationEntry{{Degree: "BSc", Field: "CS", Institution: "MIT", EndDate: "2019", Score: "3.9"}}
	r.Skills = []string{"Go", "PostgreSQL"}
	return &r
}

func TestRender_ScenarioA(t *testing.T) {
	raw := `{"resume_json":{"resume":{"basics":{"name":"Jane Doe","email":"jane@x.com"},"experience":[],"education":[],"skills":{"keywords":["Go"]}}}}`
	resume, ok := parsing.MapAgentResponse([]byte(raw))
	require.True(t, ok)

	html, err := Render(resume, profile.Extract([]byte(`{}`)), types.TemplateProfessional)
	require.NoError(t, err)

	assert.Contains(t, html, "Jane Doe")
	assert.Contains(t, html, "jane@x.com")
	assert.Contains(t, html, "Go")
	assert.Contains(t, html, EmptyExperience)
	assert.Contains(t, html, EmptyEducation)
	assert.NotContains(t, html, EmptySkills)
}

func TestRender_ScenarioB(t *testing.T) {
	resume, ok := parsing.MapAgentResponse([]byte(`{}`))
	require.False(t, ok)

	for _, sel := range allSelectors() {
		html, err := Render(resume, types.Identity{Name: "Ignored"}, sel)
		require.NoError(t, err)
		assert.Equal(t, NotGeneratedHTML, html, "selector %s", sel)
	}
}

func TestRender_ScenarioC(t *testing.T) {
	resume, ok := parsing.MapAgentResponse([]byte(`{"resume_json":{"resume":{"basics":{"name":"Sam"}}}}`))
	require.True(t, ok)
	prof := profile.Extract([]byte(`{"profile":{"fullName":"Sam Lee","phone":"555-1111"}}`))

	merged := MergeIdentity(resume.PersonalInfo, prof)
	assert.Equal(t, "555-1111", merged.Phone)
	assert.Equal(t, fields.PlaceholderEmail, merged.Email)
	assert.Equal(t, "Sam", merged.Name, "explicit resume name wins over profile")

	html, err := Render(resume, prof, types.TemplateMinimalist)
	require.NoError(t, err)
	assert.Contains(t, html, "555-1111")
	assert.Contains(t, html, fields.PlaceholderEmail)
}

func TestMergeIdentity(t *testing.T) {
	placeholders := types.Identity{
		Name:     fields.PlaceholderName,
		Title:    fields.PlaceholderTitle,
		Email:    fields.PlaceholderEmail,
		Phone:    fields.PlaceholderPhone,
		Location: fields.PlaceholderLocation,
	}
	prof := types.Identity{Name: "P Name", Title: "P Title", Email: "p@x.com", Phone: "555", Location: "Lisbon"}

	assert.Equal(t, prof, MergeIdentity(placeholders, prof))
	assert.Equal(t, placeholders, MergeIdentity(placeholders, types.Identity{}))
	assert.Equal(t, placeholders, MergeIdentity(types.Identity{}, types.Identity{}))

	explicit := types.Identity{Name: "R", Title: "RT", Email: "r@x.com", Phone: "111", Location: "Porto"}
	assert.Equal(t, explicit, MergeIdentity(explicit, prof))

	blank := types.Identity{Name: "  ", Email: "   "}
	got := MergeIdentity(blank, prof)
	assert.Equal(t, "P Name", got.Name)
	assert.Equal(t, "p@x.com", got.Email)
}

func TestRender_Idempotent(t *testing.T) {
	resume := sampleResume()
	prof := types.Identity{Phone: "555-0100"}

	for _, sel := range allSelectors() {
		first, err := Render(resume, prof, sel)
		require.NoError(t, err)
		second, err := Render(resume, prof, sel)
		require.NoError(t, err)
		assert.Equal(t, first, second, "selector %s", sel)
	}
}

func TestRender_DoesNotMutateInput(t *testing.T) {
	resume := sampleResume()
	resume.Experience[0].Highlights = []string{"  padded  "}
	before := resume.Clone()

	_, err := Render(resume, types.Identity{}, types.TemplateCreative)
	require.NoError(t, err)
	assert.Equal(t, before, *resume)
}

func TestRender_SelectorSwitchKeepsIdentity(t *testing.T) {
	resume := sampleResume()
	prof := types.Identity{Phone: "555-0100", Email: "other@x.com"}
	merged := MergeIdentity(resume.PersonalInfo, prof)

	for _, sel := range allSelectors() {
		html, err := Render(resume, prof, sel)
		require.NoError(t, err)
		for _, v := range []string{merged.Name, merged.Title, merged.Email, merged.Phone, merged.Location} {
			assert.Contains(t, html, v, "selector %s", sel)
		}
		assert.NotContains(t, html, "other@x.com", "resume email wins in every layout")
	}
}

func TestRender_LayoutsDiffer(t *testing.T) {
	resume := sampleResume()
	seen := map[string]types.TemplateSelector{}
	for _, sel := range allSelectors() {
		html, err := Render(resume, types.Identity{}, sel)
		require.NoError(t, err)
		assert.Contains(t, html, "resume--"+strings.ToLower(string(sel)))
		_, dup := seen[html]
		assert.False(t, dup, "layout %s duplicates another layout", sel)
		seen[html] = sel
	}

	sidebar, _ := Render(resume, types.Identity{}, types.TemplateModernSidebar)
	assert.Contains(t, sidebar, `<aside class="sidebar">`)
	minimal, _ := Render(resume, types.Identity{}, types.TemplateMinimalist)
	assert.Contains(t, minimal, "Go • PostgreSQL")
}

func TestRender_EmptySectionsShowPlaceholders(t *testing.T) {
	empty := types.NewResume()
	for _, sel := range allSelectors() {
		html, err := Render(&empty, types.Identity{}, sel)
		require.NoError(t, err)

		assert.Contains(t, html, fields.PlaceholderName)
		assert.Contains(t, html, fields.PlaceholderSummary)
		assert.Contains(t, html, EmptyExperience)
		assert.Contains(t, html, EmptyEducation)
		assert.Contains(t, html, EmptySkills)
	}
}

func TestPrepareExperience_BodyPriority(t *testing.T) {
	tests := []struct {
		name  string
		entry types.ExperienceEntry
		want  experienceCard
	}{
		{
			name:  "summary wins",
			entry: types.ExperienceEntry{Summary: "Led team", Highlights: []string{"h"}, Responsibilities: []string{"r"}},
			want:  experienceCard{Position: PlaceholderPosition, Company: PlaceholderCompany, Dates: "Start - End", Summary: "Led team"},
		},
		{
			name:  "highlights before responsibilities",
			entry: types.ExperienceEntry{Highlights: []string{"h"}, Responsibilities: []string{"r"}},
			want:  experienceCard{Position: PlaceholderPosition, Company: PlaceholderCompany, Dates: "Start - End", Bullets: []string{"h"}},
		},
		{
			name:  "responsibilities",
			entry: types.ExperienceEntry{Position: "Eng", Highlights: []string{" "}, Responsibilities: []string{"r"}},
			want:  experienceCard{Position: "Eng", Company: PlaceholderCompany, Dates: "Start - End", Bullets: []string{"r"}},
		},
		{
			name:  "placeholder sentence",
			entry: types.ExperienceEntry{Company: "Acme", StartDate: "2020", Summary: "  "},
			want:  experienceCard{Position: PlaceholderPosition, Company: "Acme", Dates: "2020 - End", Fallback: PlaceholderEntryBody},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, prepareExperience(tt.entry))
		})
	}
}

func TestRender_ExperienceNeverEmptyBody(t *testing.T) {
	r := types.NewResume()
	r.Experience = []types.ExperienceEntry{{}}
	html, err := Render(&r, types.Identity{}, types.TemplateProfessional)
	require.NoError(t, err)

	assert.Contains(t, html, PlaceholderEntryBody)
	assert.Contains(t, html, PlaceholderPosition)
	assert.Contains(t, html, PlaceholderCompany)
}

func TestRender_Education(t *testing.T) {
	r := types.NewResume()
	r.Education = []types.EducationEntry{{Institution: "MIT"}, {Degree: "MSc", Score: "4.0"}}
	html, err := Render(&r, types.Identity{}, types.TemplateModernSidebar)
	require.NoError(t, err)

	assert.Contains(t, html, "Degree Field of Study")
	assert.Contains(t, html, "MIT")
	assert.Contains(t, html, PlaceholderYear)
	assert.Contains(t, html, "Score: 4.0")
	assert.Equal(t, 1, strings.Count(html, "Score:"))
}

func TestRender_EscapesContent(t *testing.T) {
	r := types.NewResume()
	r.PersonalInfo.Name = `<script>alert("x")</script>`
	r.Skills = []string{"C & C++"}
	html, err := Render(&r, types.Identity{}, types.TemplateProfessional)
	require.NoError(t, err)

	assert.NotContains(t, html, "<script>alert")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.Contains(t, html, "C &amp; C&#43;&#43;")
}

func TestRender_UnknownSelector(t *testing.T) {
	_, err := Render(sampleResume(), types.Identity{}, types.TemplateSelector("Fancy"))
	require.Error(t, err)

	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Contains(t, renderErr.Error(), "Fancy")

	_, err = Render(nil, types.Identity{}, types.TemplateSelector(""))
	assert.Error(t, err)
}

func TestRenderAll(t *testing.T) {
	resume := sampleResume()
	previews, err := RenderAll(context.Background(), resume, types.Identity{})
	require.NoError(t, err)
	require.Len(t, previews, len(types.Templates))

	for i, p := range previews {
		assert.Equal(t, types.Templates[i], p.Template)
		want, err := Render(resume, types.Identity{}, p.Template.Selector)
		require.NoError(t, err)
		assert.Equal(t, want, p.HTML)
	}
}

func TestRenderAll_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RenderAll(ctx, sampleResume(), types.Identity{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTemplateError(t *testing.T) {
	err := &TemplateError{Layout: "Creative", Message: "failed", Cause: assert.AnError}
	assert.Contains(t, err.Error(), "layout Creative")
	assert.ErrorIs(t, err, assert.AnError)
}
