package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// User represents an account
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	PasswordHash string    `json:"-" db:"password_hash"` // Never serialize to JSON
	PasswordSet  bool      `json:"password_set" db:"password_set"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Profile sources
const (
	ProfileSourceManual   = "manual"
	ProfileSourceLinkedIn = "linkedin"
	ProfileSourceGitHub   = "github"
)

// Profile is a stored profile record. Content keeps whatever shape the
// importer produced.
type Profile struct {
	UserID    uuid.UUID       `json:"user_id"`
	Content   json.RawMessage `json:"content"`
	Source    string          `json:"source"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Snapshot is one successful chat turn: the raw agent response and the
// document rendered from it.
type Snapshot struct {
	ID             uuid.UUID       `json:"id"`
	SessionID      uuid.UUID       `json:"session_id"`
	UserID         uuid.UUID       `json:"user_id"`
	Template       string          `json:"template"`
	ConversationID string          `json:"conversation_id,omitempty"`
	AgentResponse  json.RawMessage `json:"agent_response"`
	HTML           string          `json:"html"`
	ATSScore       *float64        `json:"ats_score,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Job types
const (
	JobTypeFullTime   = "full-time"
	JobTypePartTime   = "part-time"
	JobTypeContract   = "contract"
	JobTypeInternship = "internship"
	JobTypeTemporary  = "temporary"
)

// JobPosting is a job a user saved to tailor resumes against.
type JobPosting struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	Categories  []string  `json:"categories"`
	JobType     string    `json:"job_type"`
	Stipend     string    `json:"stipend,omitempty"`
	URL         string    `json:"url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListJobPostingsOptions contains filters for listing job postings
type ListJobPostingsOptions struct {
	JobType string // Filter by job type
	Limit   int    // Pagination limit
	Offset  int    // Pagination offset
}
