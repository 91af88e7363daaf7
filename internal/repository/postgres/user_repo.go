// internal/repository/postgres/user_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"invoicely-service/internal/domain/user"
	xerrors "invoicely-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, full_name, email, plan, plan_expires_at, is_banned, role,
		       auth_provider, password_hash, created_at, updated_at`

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row rowScanner) (*user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID, &u.FullName, &u.Email, &u.Plan, &u.PlanExpiresAt, &u.IsBanned, &u.Role,
		&u.AuthProvider, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

// Create inserts a user. A duplicate email maps to ErrConflict.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (id, full_name, email, plan, plan_expires_at, is_banned, role, auth_provider, password_hash)
		VALUES ($1, $2, LOWER($3), $4, $5, $6, $7, $8, $9)
		RETURNING email, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		u.ID, u.FullName, u.Email, u.Plan, u.PlanExpiresAt, u.IsBanned, u.Role, u.AuthProvider, u.PasswordHash,
	).Scan(&u.Email, &u.CreatedAt, &u.UpdatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return xerrors.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = LOWER($1)`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = LOWER($1))`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

// ListAll returns every user, newest first.
func (r *UserRepository) ListAll(ctx context.Context) ([]user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []user.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id, fullName string) (*user.User, error) {
	query := `UPDATE users SET full_name = $1, updated_at = NOW() WHERE id = $2 RETURNING ` + userColumns
	return scanUser(r.db.QueryRow(ctx, query, fullName, id))
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// UpdatePlan writes plan and expiry together so the pair can never disagree.
func (r *UserRepository) UpdatePlan(ctx context.Context, id string, plan user.Plan, expiresAt *time.Time) (*user.User, error) {
	query := `
		UPDATE users SET plan = $1, plan_expires_at = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING ` + userColumns
	return scanUser(r.db.QueryRow(ctx, query, plan, expiresAt, id))
}

func (r *UserRepository) ToggleBan(ctx context.Context, id string) (bool, error) {
	var banned bool
	err := r.db.QueryRow(ctx,
		`UPDATE users SET is_banned = NOT is_banned, updated_at = NOW() WHERE id = $1 RETURNING is_banned`, id,
	).Scan(&banned)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, xerrors.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("failed to toggle ban: %w", err)
	}
	return banned, nil
}

// PromoteByEmail only touches an existing row; it never creates an account.
func (r *UserRepository) PromoteByEmail(ctx context.Context, email string, role user.Role) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET role = $1, updated_at = NOW() WHERE email = LOWER($2) AND role <> $1`, role, email,
	)
	if err != nil {
		return false, fmt.Errorf("failed to promote user: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *UserRepository) DowngradeExpired(ctx context.Context, now time.Time) ([]string, error) {
	query := `
		UPDATE users SET plan = $1, plan_expires_at = NULL, updated_at = NOW()
		WHERE plan <> $1 AND plan_expires_at IS NOT NULL AND plan_expires_at < $2
		RETURNING id
	`

	rows, err := r.db.Query(ctx, query, user.PlanFree, now)
	if err != nil {
		return nil, fmt.Errorf("failed to downgrade expired plans: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
