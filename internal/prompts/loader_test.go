package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	ClearCache()

	prompt, err := Get(AgentFile, "resume-consultant-system")
	require.NoError(t, err)
	assert.Contains(t, prompt, `"response"`)
	assert.Contains(t, prompt, "ats_score")

	_, err = Get("nonexistent.json", "some-key")
	assert.ErrorContains(t, err, "failed to read prompt file")

	_, err = Get(AgentFile, "nonexistent-key")
	assert.ErrorContains(t, err, "not found")
}

func TestMustGet(t *testing.T) {
	ClearCache()

	assert.Panics(t, func() { MustGet("nonexistent.json", "some-key") })
	assert.NotPanics(t, func() { assert.NotEmpty(t, MustGet(AgentFile, "user-turn")) })
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		template string
		data     map[string]string
		want     string
	}{
		{"substitutes", "Hello {{.Name}}, welcome to {{.Company}}!", map[string]string{"Name": "Alice", "Company": "Acme"}, "Hello Alice, welcome to Acme!"},
		{"no placeholders", "plain", map[string]string{"Key": "Value"}, "plain"},
		{"missing key left as is", "Hello {{.Name}}", nil, "Hello {{.Name}}"},
		{"values are not re-expanded", "{{.A}}", map[string]string{"A": "{{.B}}", "B": "x"}, "{{.B}}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.template, tt.data))
		})
	}
}

func TestAgentPromptSections(t *testing.T) {
	ClearCache()

	keys, err := List(AgentFile)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"history-section",
		"job-section",
		"profile-section",
		"resume-available",
		"resume-consultant-system",
		"resume-missing",
		"user-turn",
	}, keys)

	got := Format(MustGet(AgentFile, "user-turn"), map[string]string{"Message": "shorten it"})
	assert.Equal(t, "User: shorten it", got)
}
