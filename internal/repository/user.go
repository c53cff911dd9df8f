package repository

import (
	"context"
	"errors"

	"story-backend/internal/apperrors"
	"story-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository handles database operations for users
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, handle, token, push_token, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query, user.ID, user.Handle, user.Token, user.PushToken, user.CreatedAt)
	if err != nil {
		return apperrors.Transient("create user", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, handle, token, push_token, created_at
		FROM users
		WHERE id = $1
	`
	var user models.User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Handle, &user.Token, &user.PushToken, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("user", id)
		}
		return nil, apperrors.Transient("get user", err)
	}
	return &user, nil
}

// HandleExists checks if a handle is already taken
func (r *UserRepository) HandleExists(ctx context.Context, handle string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE handle = $1)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, handle).Scan(&exists); err != nil {
		return false, apperrors.Transient("check handle", err)
	}
	return exists, nil
}

// Exists checks if a user id is known
func (r *UserRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, apperrors.Transient("check user", err)
	}
	return exists, nil
}

// UpdatePushToken updates the push token for a user
func (r *UserRepository) UpdatePushToken(ctx context.Context, userID string, pushToken *string) error {
	query := `UPDATE users SET push_token = $1 WHERE id = $2`
	result, err := r.db.Exec(ctx, query, pushToken, userID)
	if err != nil {
		return apperrors.Transient("update push token", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NotFound("user", userID)
	}
	return nil
}

// GetPushToken returns the device token of a user, nil when none is registered
func (r *UserRepository) GetPushToken(ctx context.Context, userID string) (*string, error) {
	var token *string
	err := r.db.QueryRow(ctx, `SELECT push_token FROM users WHERE id = $1`, userID).Scan(&token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("user", userID)
		}
		return nil, apperrors.Transient("get push token", err)
	}
	return token, nil
}
