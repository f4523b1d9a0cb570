package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/minicrm/server/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

// uniqueViolation is the postgres error code raised when an insert hits
// the unique email index.
const uniqueViolation = "23505"

type UserRepository struct {
	db *Connection
}

func NewUserRepository(db *Connection) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	var user model.User
	query := `SELECT id, email, name, password_hash, google_id, picture, role, email_verified, created_at, updated_at
			  FROM users WHERE lower(email) = lower($1)`

	err := r.db.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.GoogleID,
		&user.Picture, &user.Role, &user.EmailVerified, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	var user model.User
	query := `SELECT id, email, name, password_hash, google_id, picture, role, email_verified, created_at, updated_at
			  FROM users WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.GoogleID,
		&user.Picture, &user.Role, &user.EmailVerified, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	query := `INSERT INTO users (id, email, name, password_hash, google_id, picture, role, email_verified, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  RETURNING id, email, name, password_hash, google_id, picture, role, email_verified, created_at, updated_at`

	var savedUser model.User
	err := r.db.QueryRow(ctx, query,
		user.ID, user.Email, user.Name, user.PasswordHash, user.GoogleID,
		user.Picture, user.Role, user.EmailVerified, user.CreatedAt, user.UpdatedAt,
	).Scan(
		&savedUser.ID, &savedUser.Email, &savedUser.Name, &savedUser.PasswordHash, &savedUser.GoogleID,
		&savedUser.Picture, &savedUser.Role, &savedUser.EmailVerified, &savedUser.CreatedAt, &savedUser.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.User{}, model.ErrEmailTaken
		}
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return savedUser, nil
}

func (r *UserRepository) Update(ctx context.Context, user model.User) (model.User, error) {
	query := `UPDATE users
			  SET email = $2, name = $3, password_hash = $4, google_id = $5, picture = $6,
				  role = $7, email_verified = $8, updated_at = now()
			  WHERE id = $1
			  RETURNING id, email, name, password_hash, google_id, picture, role, email_verified, created_at, updated_at`

	var savedUser model.User
	err := r.db.QueryRow(ctx, query,
		user.ID, user.Email, user.Name, user.PasswordHash, user.GoogleID,
		user.Picture, user.Role, user.EmailVerified,
	).Scan(
		&savedUser.ID, &savedUser.Email, &savedUser.Name, &savedUser.PasswordHash, &savedUser.GoogleID,
		&savedUser.Picture, &savedUser.Role, &savedUser.EmailVerified, &savedUser.CreatedAt, &savedUser.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to update user: %w", err)
	}

	return savedUser, nil
}
