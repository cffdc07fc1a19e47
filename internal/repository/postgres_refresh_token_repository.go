package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prohmpiriya/storefront/internal/domain"
)

// PostgresRefreshTokenRepository implements RefreshTokenRepository using PostgreSQL
type PostgresRefreshTokenRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRefreshTokenRepository creates a new PostgresRefreshTokenRepository
func NewPostgresRefreshTokenRepository(db *pgxpool.Pool) *PostgresRefreshTokenRepository {
	return &PostgresRefreshTokenRepository{db: db}
}

// Create persists a new refresh token record
func (r *PostgresRefreshTokenRepository) Create(ctx context.Context, t *domain.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (
			id, principal_id, token_hash, expires_at, created_at
		) VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Exec(ctx, query,
		t.ID,
		t.PrincipalID,
		t.TokenHash,
		t.ExpiresAt,
		t.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}

	return nil
}

// GetByHash retrieves a token record by its hash
func (r *PostgresRefreshTokenRepository) GetByHash(ctx context.Context, hash string) (*domain.RefreshToken, error) {
	query := `
		SELECT id, principal_id, token_hash, expires_at, revoked_at,
			replaced_by, created_at
		FROM refresh_tokens
		WHERE token_hash = $1
	`

	t := &domain.RefreshToken{}
	err := r.db.QueryRow(ctx, query, hash).Scan(
		&t.ID,
		&t.PrincipalID,
		&t.TokenHash,
		&t.ExpiresAt,
		&t.RevokedAt,
		&t.ReplacedBy,
		&t.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found, but not an error
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	return t, nil
}

// Revoke marks a token revoked, recording its replacement if any
func (r *PostgresRefreshTokenRepository) Revoke(ctx context.Context, id string, replacedBy string) error {
	query := `
		UPDATE refresh_tokens SET
			revoked_at = $2,
			replaced_by = $3
		WHERE id = $1 AND revoked_at IS NULL
	`

	_, err := r.db.Exec(ctx, query, id, time.Now(), replacedBy)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	return nil
}

// RevokeAllForPrincipal revokes every live token for a principal
func (r *PostgresRefreshTokenRepository) RevokeAllForPrincipal(ctx context.Context, principalID string) error {
	query := `
		UPDATE refresh_tokens SET revoked_at = $2
		WHERE principal_id = $1 AND revoked_at IS NULL
	`

	_, err := r.db.Exec(ctx, query, principalID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}

	return nil
}

// DeleteExpired removes tokens that expired before the cutoff
func (r *PostgresRefreshTokenRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE expires_at < $1`

	tag, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}

	return tag.RowsAffected(), nil
}

// Ensure PostgresRefreshTokenRepository implements RefreshTokenRepository
var _ RefreshTokenRepository = (*PostgresRefreshTokenRepository)(nil)
