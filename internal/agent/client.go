// Package agent talks to the resume chat agent, either over HTTP or in-process through Gemini.
package agent

import (
	"context"
	"fmt"
)

// ChatRequest is one user turn sent to the agent.
type ChatRequest struct {
	Message        string `json:"message"`
	UserID         string `json:"user_id"`
	JobDescription string `json:"job_description,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// Client sends a chat turn and returns the raw agent response body.
type Client interface {
	Chat(ctx context.Context, req ChatRequest) ([]byte, error)
}

// TransportError is a network, HTTP or model failure talking to the agent.
// The caller keeps whatever it rendered before.
type TransportError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *TransportError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("agent transport error: %s: %v", msg, e.Cause)
	}
	return fmt.Sprintf("agent transport error: %s", msg)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}
