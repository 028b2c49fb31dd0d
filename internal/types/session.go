package types

import "encoding/json"

// CreateSessionRequest starts a builder session. Both fields are optional;
// a session without a template starts in template selection.
type CreateSessionRequest struct {
	Template       string `json:"template,omitempty"`
	JobDescription string `json:"job_description,omitempty" validate:"omitempty,max=20000"`
}

// SelectTemplateRequest switches the layout of a session.
type SelectTemplateRequest struct {
	Template string `json:"template" validate:"required"`
}

// JobDescriptionRequest sets the job description used for generation:
// as text, as a saved job posting or as the URL of a public posting.
// Text wins over a saved posting, which wins over a URL.
type JobDescriptionRequest struct {
	JobDescription string `json:"job_description,omitempty" validate:"required_without_all=JobURL JobPostingID,max=20000"`
	JobPostingID   string `json:"job_posting_id,omitempty" validate:"omitempty,uuid"`
	JobURL         string `json:"job_url,omitempty" validate:"omitempty,url"`
	Generate       bool   `json:"generate,omitempty"`
}

// ChatRequest is a single user turn.
type ChatRequest struct {
	Message string `json:"message" validate:"required,max=8000"`
}

// RenderRequest renders a resume without a session.
type RenderRequest struct {
	AgentResponse json.RawMessage `json:"agent_response"`
	Profile       json.RawMessage `json:"profile,omitempty"`
	Template      string          `json:"template" validate:"required"`
}

// GitHubImportRequest imports a public GitHub profile into the profile record.
type GitHubImportRequest struct {
	Username string `json:"username" validate:"required,max=39"`
}

// Transcript authors.
const (
	ChatFromUser  = "user"
	ChatFromAgent = "agent"
)

// ChatMessage is one entry of a session transcript.
type ChatMessage struct {
	From string `json:"from"`
	Text string `json:"text"`
}

// TurnResult is returned for each completed chat turn.
type TurnResult struct {
	Reply    string    `json:"reply"`
	HTML     string    `json:"html"`
	ATS      *ATSScore `json:"ats_score,omitempty"`
	Warnings []string  `json:"warnings,omitempty"`
}
