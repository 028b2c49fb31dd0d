package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// -----------------------------------------------------------------------------
// Job Posting Methods
// -----------------------------------------------------------------------------

const jobPostingColumns = `id, user_id, title, company, location, description, categories, job_type, stipend, url, created_at, updated_at`

func scanJobPosting(row pgx.Row) (*JobPosting, error) {
	var p JobPosting
	var categoriesJSON []byte
	err := row.Scan(&p.ID, &p.UserID, &p.Title, &p.Company, &p.Location, &p.Description,
		&categoriesJSON, &p.JobType, &p.Stipend, &p.URL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Categories = []string{}
	if categoriesJSON != nil {
		_ = json.Unmarshal(categoriesJSON, &p.Categories)
	}
	return &p, nil
}

func marshalCategories(categories []string) ([]byte, error) {
	if categories == nil {
		categories = []string{}
	}
	raw, err := json.Marshal(categories)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal categories: %w", err)
	}
	return raw, nil
}

// CreateJobPosting stores p for its user and fills in ID and timestamps
func (db *DB) CreateJobPosting(ctx context.Context, p *JobPosting) error {
	categoriesJSON, err := marshalCategories(p.Categories)
	if err != nil {
		return err
	}
	err = db.pool.QueryRow(ctx,
		`INSERT INTO job_postings (user_id, title, company, location, description, categories, job_type, stipend, url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at, updated_at`,
		p.UserID, p.Title, p.Company, p.Location, p.Description, categoriesJSON, p.JobType, p.Stipend, p.URL,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create job posting: %w", err)
	}
	return nil
}

// GetJobPosting retrieves a posting owned by userID, or nil
func (db *DB) GetJobPosting(ctx context.Context, userID, id uuid.UUID) (*JobPosting, error) {
	p, err := scanJobPosting(db.pool.QueryRow(ctx,
		`SELECT `+jobPostingColumns+` FROM job_postings WHERE id = $1 AND user_id = $2`,
		id, userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job posting: %w", err)
	}
	return p, nil
}

// UpdateJobPosting replaces the editable fields of a posting owned by
// p.UserID. It returns false when no such posting exists.
func (db *DB) UpdateJobPosting(ctx context.Context, p *JobPosting) (bool, error) {
	categoriesJSON, err := marshalCategories(p.Categories)
	if err != nil {
		return false, err
	}
	err = db.pool.QueryRow(ctx,
		`UPDATE job_postings
		 SET title = $3, company = $4, location = $5, description = $6, categories = $7,
		     job_type = $8, stipend = $9, url = $10, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING created_at, updated_at`,
		p.ID, p.UserID, p.Title, p.Company, p.Location, p.Description, categoriesJSON, p.JobType, p.Stipend, p.URL,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to update job posting: %w", err)
	}
	return true, nil
}

// DeleteJobPosting removes a posting owned by userID. It returns false
// when no such posting exists.
func (db *DB) DeleteJobPosting(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM job_postings WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete job posting: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListJobPostings lists a user's postings, newest first, with the total
// count before pagination
func (db *DB) ListJobPostings(ctx context.Context, userID uuid.UUID, opts ListJobPostingsOptions) ([]JobPosting, int, error) {
	conditions := []string{"user_id = $1"}
	args := []any{userID}
	argIndex := 2

	if opts.JobType != "" {
		conditions = append(conditions, fmt.Sprintf("job_type = $%d", argIndex))
		args = append(args, opts.JobType)
		argIndex++
	}
	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := db.pool.QueryRow(ctx, "SELECT COUNT(*) FROM job_postings "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count job postings: %w", err)
	}

	limit, offset := ClampPage(opts.Limit, opts.Offset)
	args = append(args, limit, offset)
	rows, err := db.pool.Query(ctx, fmt.Sprintf(
		`SELECT `+jobPostingColumns+` FROM job_postings %s
		 ORDER BY created_at DESC
		 LIMIT $%d OFFSET $%d`,
		whereClause, argIndex, argIndex+1,
	), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list job postings: %w", err)
	}
	defer rows.Close()

	postings := []JobPosting{}
	for rows.Next() {
		p, err := scanJobPosting(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan job posting: %w", err)
		}
		postings = append(postings, *p)
	}
	return postings, total, rows.Err()
}

// ClampPage applies the listing defaults: 50 per page, at most 100.
func ClampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
