package profiles

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/fetch"
	"github.com/jonathan/resume-builder/internal/profile"
	"github.com/jonathan/resume-builder/internal/schemas"
	"github.com/jonathan/resume-builder/internal/types"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// InvalidProfileError reports a profile record that cannot be stored.
type InvalidProfileError struct {
	Message string
	Cause   error
}

func (e *InvalidProfileError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid profile: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("invalid profile: %s", e.Message)
}

func (e *InvalidProfileError) Unwrap() error {
	return e.Cause
}

// GitHubFetcher reads a public GitHub profile.
type GitHubFetcher interface {
	Profile(ctx context.Context, username string) (*fetch.GitHubProfile, error)
}

// Service validates, stores and enriches profile records.
type Service struct {
	store  Store
	github GitHubFetcher
}

// NewService creates a Service. github may be nil to disable imports.
func NewService(store Store, github GitHubFetcher) *Service {
	return &Service{store: store, github: github}
}

// Get returns the raw record of a user, or nil when none is stored.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	raw, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return raw, nil
}

// Lookup returns the raw record for a user id in string form.
func (s *Service) Lookup(ctx context.Context, userID string) ([]byte, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", userID, err)
	}
	return s.Get(ctx, id)
}

// Identity extracts the contact block from the stored record. A failed
// lookup is logged and yields an empty identity.
func (s *Service) Identity(ctx context.Context, userID uuid.UUID) types.Identity {
	raw, err := s.Get(ctx, userID)
	if err != nil {
		log.Printf("[profiles] lookup for %s failed: %v", userID, err)
		return types.Identity{}
	}
	return profile.Extract(raw)
}

// Put validates raw and stores it as the user's record.
func (s *Service) Put(ctx context.Context, userID uuid.UUID, raw []byte, source string) error {
	if !gjson.ValidBytes(raw) || !gjson.ParseBytes(raw).IsObject() {
		return &InvalidProfileError{Message: "profile must be a JSON object"}
	}
	if err := schemas.ValidateProfile(raw); err != nil {
		return &InvalidProfileError{Message: "schema validation failed", Cause: err}
	}
	if err := s.store.Put(ctx, userID, raw, source); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// ImportGitHub fetches username's public profile, merges it into the
// stored record and returns the result.
func (s *Service) ImportGitHub(ctx context.Context, userID uuid.UUID, username string) ([]byte, error) {
	if s.github == nil {
		return nil, fmt.Errorf("github import is not configured")
	}
	gh, err := s.github.Profile(ctx, username)
	if err != nil {
		return nil, err
	}
	existing, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	merged, err := MergeGitHub(existing, gh)
	if err != nil {
		return nil, err
	}
	if err := s.Put(ctx, userID, merged, db.ProfileSourceGitHub); err != nil {
		return nil, err
	}
	log.Printf("[profiles] imported github profile %s for %s", gh.Username, userID)
	return merged, nil
}

type update struct {
	path  string
	value any
}

// MergeGitHub writes gh under "github" and fills profile identity fields
// that the existing record does not already resolve.
func MergeGitHub(existing []byte, gh *fetch.GitHubProfile) ([]byte, error) {
	out := existing
	if len(out) == 0 {
		out = []byte(`{}`)
	}
	current := profile.Extract(out)

	sets := []update{
		{"github.username", gh.Username},
		{"github.followers", gh.Followers},
		{"github.following", gh.Following},
		{"github.repos", gh.Repos},
	}
	if gh.Bio != "" {
		sets = append(sets, update{"github.bio", gh.Bio})
	}
	if gh.Website != "" {
		sets = append(sets, update{"github.website", gh.Website})
	}
	if len(gh.Pinned) > 0 {
		sets = append(sets, update{"github.pinned", gh.Pinned})
	}

	// Identity fields only fill gaps; a manual or LinkedIn value wins.
	fill := func(path, value, have string) {
		if value != "" && have == "" {
			sets = append(sets, update{path, value})
		}
	}
	fill("profile.fullName", gh.Name, current.Name)
	fill("profile.headline", gh.Bio, current.Title)
	fill("profile.location", gh.Location, current.Location)
	if !gjson.GetBytes(out, "profile.company").Exists() {
		fill("profile.company", gh.Company, "")
	}

	var err error
	for _, set := range sets {
		if out, err = sjson.SetBytes(out, set.path, set.value); err != nil {
			return nil, fmt.Errorf("failed to merge github profile: %w", err)
		}
	}
	return out, nil
}
