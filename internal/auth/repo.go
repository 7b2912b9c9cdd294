package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/furu-identity/furu-identity/internal/platform/db"
	"github.com/furu-identity/furu-identity/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	CreateUser(ctx context.Context, user *User) (*User, error)
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	FindUserByID(ctx context.Context, id int64) (*User, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	MarkUserVerified(ctx context.Context, id int64, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id int64, hash string, at time.Time) error
	DeactivateUser(ctx context.Context, id int64, at time.Time) error

	TokenRepository
}

const uniqueViolation = "23505"

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, email, username, password_hash, full_name, is_active, is_verified, plan, created_at, updated_at, last_login`

func scanUser(row pgx.Row) (*User, error) {
	var user User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.FullName,
		&user.IsActive,
		&user.IsVerified,
		&user.Plan,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.LastLogin,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CreateUser inserts a new account. Unique constraint violations are mapped
// to ErrEmailTaken / ErrUsernameTaken so races lose cleanly.
func (r *PGRepository) CreateUser(ctx context.Context, user *User) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, username, password_hash, full_name, is_active, is_verified, plan, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING `+userColumns,
		user.Email, user.Username, user.PasswordHash, user.FullName,
		user.IsActive, user.IsVerified, user.Plan, user.CreatedAt,
	)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			switch pgErr.ConstraintName {
			case "users_email_key":
				return nil, shared.ErrEmailTaken
			case "users_username_key":
				return nil, shared.ErrUsernameTaken
			}
		}
		return nil, err
	}
	return created, nil
}

// FindUserByEmail fetches a user by normalized email.
func (r *PGRepository) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// FindUserByID fetches a user by id.
func (r *PGRepository) FindUserByID(ctx context.Context, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// UpdateLastLogin stamps the last successful login.
func (r *PGRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login = $2, updated_at = $2 WHERE id = $1`, id, at)
	return err
}

// MarkUserVerified flips is_verified to true.
func (r *PGRepository) MarkUserVerified(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET is_verified = TRUE, updated_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdatePasswordHash replaces the stored password hash.
func (r *PGRepository) UpdatePasswordHash(ctx context.Context, id int64, hash string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`, id, hash, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeactivateUser flips is_active to false. Terminal for the account.
func (r *PGRepository) DeactivateUser(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET is_active = FALSE, updated_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ReplaceEphemeralToken supersedes prior unconsumed tokens of the same class
// and inserts the new row in one transaction.
func (r *PGRepository) ReplaceEphemeralToken(ctx context.Context, token EphemeralToken) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			UPDATE ephemeral_tokens SET is_used = TRUE
			WHERE user_id = $1 AND class = $2 AND is_used = FALSE`,
			token.UserID, token.Class,
		); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO ephemeral_tokens (user_id, token, class, created_at, expires_at, is_used)
			VALUES ($1, $2, $3, $4, $5, FALSE)`,
			token.UserID, token.Token, token.Class, token.CreatedAt, token.ExpiresAt,
		)
		return err
	})
}

// ConsumeEphemeralToken performs the atomic conditional consume. The guarded
// UPDATE ensures exactly one concurrent caller wins; losers fall through to
// the classification query.
func (r *PGRepository) ConsumeEphemeralToken(ctx context.Context, secret string, class TokenClass, now time.Time) (int64, error) {
	var userID int64
	err := r.pool.QueryRow(ctx, `
		UPDATE ephemeral_tokens SET is_used = TRUE
		WHERE token = $1 AND class = $2 AND is_used = FALSE AND expires_at >= $3
		RETURNING user_id`,
		secret, class, now,
	).Scan(&userID)
	if err == nil {
		return userID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}

	var isUsed bool
	var expiresAt time.Time
	err = r.pool.QueryRow(ctx, `
		SELECT is_used, expires_at FROM ephemeral_tokens
		WHERE token = $1 AND class = $2`,
		secret, class,
	).Scan(&isUsed, &expiresAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return 0, shared.ErrTokenNotFound
	case err != nil:
		return 0, err
	case isUsed:
		return 0, shared.ErrTokenAlreadyUsed
	case now.After(expiresAt):
		return 0, shared.ErrTokenExpired
	default:
		// Lost a race that completed between the two statements.
		return 0, shared.ErrTokenAlreadyUsed
	}
}

var _ Repository = (*PGRepository)(nil)
