package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const snapshotColumns = `id, session_id, user_id, template, conversation_id, agent_response, html, ats_score, created_at`

func scanSnapshot(row pgx.Row) (*Snapshot, error) {
	var s Snapshot
	err := row.Scan(&s.ID, &s.SessionID, &s.UserID, &s.Template, &s.ConversationID, &s.AgentResponse, &s.HTML, &s.ATSScore, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveSnapshot stores a chat turn and fills in its ID and creation time
func (db *DB) SaveSnapshot(ctx context.Context, s *Snapshot) error {
	err := db.pool.QueryRow(ctx,
		`INSERT INTO resume_snapshots (session_id, user_id, template, conversation_id, agent_response, html, ats_score)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		s.SessionID, s.UserID, s.Template, s.ConversationID, []byte(s.AgentResponse), s.HTML, s.ATSScore,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the newest snapshot of a session, or nil
func (db *DB) LatestSnapshot(ctx context.Context, sessionID uuid.UUID) (*Snapshot, error) {
	s, err := scanSnapshot(db.pool.QueryRow(ctx,
		`SELECT `+snapshotColumns+` FROM resume_snapshots WHERE session_id = $1 ORDER BY created_at DESC LIMIT 1`,
		sessionID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}
	return s, nil
}

// ListSnapshots returns a user's snapshots, newest first
func (db *DB) ListSnapshots(ctx context.Context, userID uuid.UUID, limit int) ([]Snapshot, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := db.pool.Query(ctx,
		`SELECT `+snapshotColumns+` FROM resume_snapshots WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	out := []Snapshot{}
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// RevokeToken records a JWT id as revoked until it expires
func (db *DB) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO revoked_tokens (jti, expires_at) VALUES ($1, $2) ON CONFLICT (jti) DO NOTHING`,
		jti, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsTokenRevoked reports whether a JWT id was revoked
func (db *DB) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM revoked_tokens WHERE jti = $1 AND expires_at > NOW())`, jti,
	).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("failed to check token: %w", err)
	}
	return revoked, nil
}

// PurgeRevokedTokens deletes revocations whose tokens have expired anyway
func (db *DB) PurgeRevokedTokens(ctx context.Context) (int64, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM revoked_tokens WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge revoked tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
