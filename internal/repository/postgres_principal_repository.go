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

// PostgresPrincipalRepository implements PrincipalRepository using PostgreSQL
type PostgresPrincipalRepository struct {
	db *pgxpool.Pool
}

// NewPostgresPrincipalRepository creates a new PostgresPrincipalRepository
func NewPostgresPrincipalRepository(db *pgxpool.Pool) *PostgresPrincipalRepository {
	return &PostgresPrincipalRepository{db: db}
}

// Create creates a new principal record
func (r *PostgresPrincipalRepository) Create(ctx context.Context, p *domain.Principal) error {
	query := `
		INSERT INTO principals (
			id, email, password_hash, name, role, is_active, is_banned,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		p.ID,
		p.Email,
		p.PasswordHash,
		p.Name,
		string(p.Role),
		p.IsActive,
		p.IsBanned,
		p.CreatedAt,
		p.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create principal: %w", err)
	}

	return nil
}

// GetByID retrieves a principal by ID
func (r *PostgresPrincipalRepository) GetByID(ctx context.Context, id string) (*domain.Principal, error) {
	query := `
		SELECT id, email, password_hash, name, role, is_active, is_banned,
			created_at, updated_at
		FROM principals
		WHERE id = $1
	`

	p, err := r.scanOne(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("failed to get principal: %w", err)
	}

	return p, nil
}

// GetByEmail retrieves a principal by email
func (r *PostgresPrincipalRepository) GetByEmail(ctx context.Context, email string) (*domain.Principal, error) {
	query := `
		SELECT id, email, password_hash, name, role, is_active, is_banned,
			created_at, updated_at
		FROM principals
		WHERE email = $1
	`

	p, err := r.scanOne(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found, but not an error
		}
		return nil, fmt.Errorf("failed to get principal by email: %w", err)
	}

	return p, nil
}

// ExistsByEmail checks if a principal exists with the given email
func (r *PostgresPrincipalRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM principals WHERE email = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check principal existence: %w", err)
	}

	return exists, nil
}

// SetBanned flips the banned flag
func (r *PostgresPrincipalRepository) SetBanned(ctx context.Context, id string, banned bool) error {
	return r.setFlag(ctx, id, "is_banned", banned)
}

// SetActive flips the active flag
func (r *PostgresPrincipalRepository) SetActive(ctx context.Context, id string, active bool) error {
	return r.setFlag(ctx, id, "is_active", active)
}

func (r *PostgresPrincipalRepository) setFlag(ctx context.Context, id, column string, value bool) error {
	// column comes from the two callers above, never from input
	query := fmt.Sprintf(`UPDATE principals SET %s = $2, updated_at = $3 WHERE id = $1`, column)

	tag, err := r.db.Exec(ctx, query, id, value, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update principal %s: %w", column, err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrPrincipalNotFound
	}

	return nil
}

func (r *PostgresPrincipalRepository) scanOne(row pgx.Row) (*domain.Principal, error) {
	p := &domain.Principal{}
	var role string

	err := row.Scan(
		&p.ID,
		&p.Email,
		&p.PasswordHash,
		&p.Name,
		&role,
		&p.IsActive,
		&p.IsBanned,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Role = domain.Role(role)
	return p, nil
}

// Ensure PostgresPrincipalRepository implements PrincipalRepository
var _ PrincipalRepository = (*PostgresPrincipalRepository)(nil)
