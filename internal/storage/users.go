package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"livereport-bot/core/logger"
	"livereport-bot/internal/model"
)

const pgUniqueViolation = "23505"

// Users provides access to user registration records.
type Users struct {
	db *sqlx.DB
}

// NewUsers constructs a Users repository.
func NewUsers(db *sqlx.DB) *Users {
	return &Users{db: db}
}

// ByTelegramID loads a user by their Telegram identity.
func (s *Users) ByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u,
		`SELECT * FROM users WHERE telegram_user_id = $1`, telegramID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("users by telegram id: %w", err)
	}
	return &u, nil
}

// ByID loads a user by primary key.
func (s *Users) ByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u, `SELECT * FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("users by id: %w", err)
	}
	return &u, nil
}

// Create inserts a fresh registration record at the name stage.
func (s *Users) Create(ctx context.Context, telegramID int64, username string) (*model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u, `
		INSERT INTO users (telegram_user_id, username, registration_stage, is_approved, is_active)
		VALUES ($1, $2, $3, FALSE, FALSE)
		RETURNING *`,
		telegramID, username, model.StageName)
	if err != nil {
		return nil, fmt.Errorf("users create: %w", err)
	}
	logger.DB.Info("user created",
		slog.String("event", "users.create"),
		slog.Int64("telegram_user_id", telegramID),
	)
	return &u, nil
}

// SetFullName stores the collected name and advances to the email stage.
func (s *Users) SetFullName(ctx context.Context, telegramID int64, fullName, username string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET full_name = $1, username = $2, registration_stage = $3, updated_at = NOW()
		WHERE telegram_user_id = $4`,
		fullName, username, model.StageEmail, telegramID)
	if err != nil {
		return fmt.Errorf("users set full name: %w", err)
	}
	return nil
}

// EmailInUse reports whether the email belongs to a different user.
// The comparison is case-insensitive.
func (s *Users) EmailInUse(ctx context.Context, email string, excludeTelegramID int64) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(1) FROM users
		WHERE LOWER(email) = LOWER($1) AND telegram_user_id <> $2`,
		email, excludeTelegramID)
	if err != nil {
		return false, fmt.Errorf("users email in use: %w", err)
	}
	return count > 0, nil
}

// SetEmail stores the collected email and advances to the password stage.
// The email is normalized to lower case before insertion.
func (s *Users) SetEmail(ctx context.Context, telegramID int64, email string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET email = $1, registration_stage = $2, updated_at = NOW()
		WHERE telegram_user_id = $3`,
		strings.ToLower(email), model.StagePassword, telegramID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
			return ErrEmailTaken
		}
		return fmt.Errorf("users set email: %w", err)
	}
	return nil
}

// SetPassword stores the password hash and completes registration.
// The account stays unapproved and inactive until a manager acts on it.
func (s *Users) SetPassword(ctx context.Context, telegramID int64, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash = $1, registration_stage = $2,
		    is_approved = FALSE, is_active = FALSE, updated_at = NOW()
		WHERE telegram_user_id = $3`,
		passwordHash, model.StageComplete, telegramID)
	if err != nil {
		return fmt.Errorf("users set password: %w", err)
	}
	return nil
}

// SetApproval updates the manager approval flag. Approving also activates
// the account; revoking approval deactivates it.
func (s *Users) SetApproval(ctx context.Context, telegramID int64, approved bool) (*model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u, `
		UPDATE users
		SET is_approved = $1, is_active = $1, updated_at = NOW()
		WHERE telegram_user_id = $2
		RETURNING *`,
		approved, telegramID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("users set approval: %w", err)
	}
	return &u, nil
}

// SetActive toggles the active flag without touching approval.
func (s *Users) SetActive(ctx context.Context, telegramID int64, active bool) (*model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u, `
		UPDATE users
		SET is_active = $1, updated_at = NOW()
		WHERE telegram_user_id = $2
		RETURNING *`,
		active, telegramID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("users set active: %w", err)
	}
	return &u, nil
}
