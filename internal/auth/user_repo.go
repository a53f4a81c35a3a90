package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"storefront/internal/db"
	"storefront/internal/domain/user"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

const emailConstraint = "users_email_key"

const userColumns = `id, email, password_hash, role, is_active, created_at, updated_at`

type UserRepo struct {
	db db.Querier
}

func NewUserRepo(db db.Querier) *UserRepo {
	return &UserRepo{db: db}
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return user.User{}, ErrUserNotFound
	}
	return u, err
}

func (r *UserRepo) Create(ctx context.Context, email, passwordHash, role string) (user.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, role)
		VALUES ($1,$2,$3)
		RETURNING `+userColumns, email, passwordHash, role))
	if db.IsUniqueViolation(err, emailConstraint) {
		return user.User{}, ErrEmailTaken
	}
	if err != nil {
		return user.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (r *UserRepo) ByEmail(ctx context.Context, email string) (user.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email))
}

func (r *UserRepo) ByID(ctx context.Context, id int64) (user.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

// SetPassword replaces the hash and role of an existing account and
// reactivates it.
func (r *UserRepo) SetPassword(ctx context.Context, email, passwordHash, role string) error {
	ct, err := r.db.Exec(ctx, `
		UPDATE users
		SET password_hash=$2, role=$3, is_active=true, updated_at=now()
		WHERE email=$1
	`, email, passwordHash, role)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
