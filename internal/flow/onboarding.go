package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"livereport-bot/core/logger"
	"livereport-bot/internal/storage"
)

const (
	minNameLength     = 3
	minPasswordLength = 6
	maxPasswordLength = 50
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func (s *Service) handleName(ctx context.Context, in Inbound, reply Replier) error {
	name := strings.TrimSpace(in.Text)
	if utf8.RuneCountInString(name) < minNameLength {
		return reply(msgNameTooShort)
	}

	if err := s.users.SetFullName(ctx, in.UserID, name, in.Username); err != nil {
		return fmt.Errorf("save full name: %w", err)
	}
	logger.Info(ctx, "flow", "onboarding.name_set", slog.Int64("user_id", in.UserID))
	return reply(msgAskEmail)
}

func (s *Service) handleEmail(ctx context.Context, in Inbound, reply Replier) error {
	email := strings.ToLower(strings.TrimSpace(in.Text))
	if !emailRe.MatchString(email) {
		return reply(msgEmailInvalid)
	}

	taken, err := s.users.EmailInUse(ctx, email, in.UserID)
	if err != nil {
		return fmt.Errorf("check email uniqueness: %w", err)
	}
	if taken {
		return reply(msgEmailTaken)
	}

	if err := s.users.SetEmail(ctx, in.UserID, email); err != nil {
		// The uniqueness check above races with concurrent registrations,
		// the constraint violation is the authoritative answer.
		if errors.Is(err, storage.ErrEmailTaken) {
			return reply(msgEmailTaken)
		}
		return fmt.Errorf("save email: %w", err)
	}
	logger.Info(ctx, "flow", "onboarding.email_set", slog.Int64("user_id", in.UserID))
	return reply(msgAskPassword)
}

func (s *Service) handlePassword(ctx context.Context, in Inbound, reply Replier) error {
	password := in.Text
	if utf8.RuneCountInString(password) < minPasswordLength {
		return reply(msgPasswordShort)
	}
	if utf8.RuneCountInString(password) > maxPasswordLength {
		return reply(msgPasswordLong)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.SetPassword(ctx, in.UserID, string(hash)); err != nil {
		return fmt.Errorf("save password: %w", err)
	}

	logger.Info(ctx, "flow", "onboarding.completed", slog.Int64("user_id", in.UserID))
	return reply(msgRegistrationDone)
}
