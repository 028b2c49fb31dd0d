package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// GetProfile returns the stored profile record of a user, or nil when none exists
func (db *DB) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	var p Profile
	err := db.pool.QueryRow(ctx,
		`SELECT user_id, content, source, updated_at FROM profiles WHERE user_id = $1`, userID,
	).Scan(&p.UserID, &p.Content, &p.Source, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

// UpsertProfile replaces the profile record of a user
func (db *DB) UpsertProfile(ctx context.Context, userID uuid.UUID, content json.RawMessage, source string) error {
	if source == "" {
		source = ProfileSourceManual
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO profiles (user_id, content, source)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO UPDATE SET content = $2, source = $3, updated_at = NOW()`,
		userID, []byte(content), source,
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// DeleteProfile removes the profile record of a user
func (db *DB) DeleteProfile(ctx context.Context, userID uuid.UUID) error {
	if _, err := db.pool.Exec(ctx, `DELETE FROM profiles WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}
