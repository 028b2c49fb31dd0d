// Package session runs resume builder sessions: template selection, job
// description entry, generation and the chat + preview loop.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-builder/internal/types"
)

// State is a step of the builder flow.
type State string

const (
	StateTemplateSelection State = "template_selection"
	StateJobDescription    State = "job_description"
	StateGenerating        State = "generating"
	StateBuilder           State = "builder"
)

// GenerateMessage opens every session's conversation with the agent.
const GenerateMessage = "Hi, please create a full resume for me based on my profile and this job description."

// FailureMessage is appended to the transcript when a turn fails.
const FailureMessage = "Something went wrong. Please try again."

var (
	// ErrNotFound is returned for unknown sessions and sessions owned by another user.
	ErrNotFound = errors.New("session not found")
	// ErrTurnInFlight is returned when a turn is submitted while another is pending.
	ErrTurnInFlight = errors.New("a chat turn is already in progress")
	// ErrInvalidState is returned when an operation does not apply to the current step.
	ErrInvalidState = errors.New("operation not allowed in current state")
	// ErrUnknownTemplate is returned for a template name that matches no layout.
	ErrUnknownTemplate = errors.New("unknown template")
)

// Session is a point-in-time copy of a builder session.
type Session struct {
	ID             uuid.UUID              `json:"id"`
	UserID         uuid.UUID              `json:"user_id"`
	State          State                  `json:"state"`
	Template       types.TemplateSelector `json:"template,omitempty"`
	JobDescription string                 `json:"job_description,omitempty"`
	Identity       types.Identity         `json:"identity"`
	Resume         *types.Resume          `json:"resume,omitempty"`
	HTML           string                 `json:"html,omitempty"`
	ATS            *types.ATSScore        `json:"ats_score,omitempty"`
	ConversationID string                 `json:"conversation_id,omitempty"`
	Messages       []types.ChatMessage    `json:"messages"`
	Warnings       []string               `json:"warnings,omitempty"`
	// Error is the last turn failure, cleared by the next success or DismissError.
	Error     string    `json:"error,omitempty"`
	Pending   bool      `json:"pending"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// touched is the last time any operation looked the session up.
	touched time.Time
}

func (s *Session) clone() *Session {
	out := *s
	if s.Resume != nil {
		r := s.Resume.Clone()
		out.Resume = &r
	}
	if s.ATS != nil {
		ats := *s.ATS
		out.ATS = &ats
	}
	out.Messages = append([]types.ChatMessage{}, s.Messages...)
	out.Warnings = append([]string(nil), s.Warnings...)
	return &out
}

func stateError(op string, state State) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidState, op, state)
}
