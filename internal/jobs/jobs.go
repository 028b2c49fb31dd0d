// Package jobs keeps the job postings users save and turns them into the
// job description text a builder session sends to the agent.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/types"
)

// ErrNotFound is returned for unknown postings and postings owned by another user.
var ErrNotFound = errors.New("job posting not found")

// Service manages the saved job postings of each user.
type Service struct {
	store Store
}

// NewService creates a Service over store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create saves a new posting for userID.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, req types.JobPostingRequest) (*db.JobPosting, error) {
	p := fromRequest(userID, req)
	if err := s.store.CreateJobPosting(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save job posting: %w", err)
	}
	log.Printf("[jobs] %s saved for user %s", p.ID, userID)
	return p, nil
}

// Get returns one of userID's postings.
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*db.JobPosting, error) {
	p, err := s.store.GetJobPosting(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load job posting: %w", err)
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

// Update replaces every editable field of one of userID's postings.
func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, req types.JobPostingRequest) (*db.JobPosting, error) {
	p := fromRequest(userID, req)
	p.ID = id
	ok, err := s.store.UpdateJobPosting(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to update job posting: %w", err)
	}
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

// Delete removes one of userID's postings.
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	ok, err := s.store.DeleteJobPosting(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete job posting: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// List returns a page of userID's postings, newest first, and the total.
func (s *Service) List(ctx context.Context, userID uuid.UUID, opts db.ListJobPostingsOptions) ([]db.JobPosting, int, error) {
	postings, total, err := s.store.ListJobPostings(ctx, userID, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list job postings: %w", err)
	}
	return postings, total, nil
}

// Description loads a posting and renders it as job description text.
func (s *Service) Description(ctx context.Context, userID, id uuid.UUID) (string, error) {
	p, err := s.Get(ctx, userID, id)
	if err != nil {
		return "", err
	}
	return Describe(p), nil
}

// Describe renders a posting as the plain text handed to the agent: a
// header line, the description, then any categories and stipend.
func Describe(p *db.JobPosting) string {
	var sb strings.Builder
	sb.WriteString(p.Title)
	if p.Company != "" {
		sb.WriteString(" at " + p.Company)
	}
	details := make([]string, 0, 2)
	for _, d := range []string{p.Location, p.JobType} {
		if d != "" {
			details = append(details, d)
		}
	}
	if len(details) > 0 {
		sb.WriteString(" (" + strings.Join(details, ", ") + ")")
	}
	sb.WriteString("\n\n")
	sb.WriteString(strings.TrimSpace(p.Description))
	if len(p.Categories) > 0 {
		sb.WriteString("\n\nCategories: " + strings.Join(p.Categories, ", "))
	}
	if p.Stipend != "" {
		sb.WriteString("\nCompensation: " + p.Stipend)
	}
	return sb.String()
}

func fromRequest(userID uuid.UUID, req types.JobPostingRequest) *db.JobPosting {
	categories := make([]string, 0, len(req.Categories))
	for _, c := range req.Categories {
		if c = strings.TrimSpace(c); c != "" {
			categories = append(categories, c)
		}
	}
	return &db.JobPosting{
		UserID:      userID,
		Title:       strings.TrimSpace(req.Title),
		Company:     strings.TrimSpace(req.Company),
		Location:    strings.TrimSpace(req.Location),
		Description: req.Description,
		Categories:  categories,
		JobType:     req.JobType,
		Stipend:     strings.TrimSpace(req.Stipend),
		URL:         req.URL,
	}
}
