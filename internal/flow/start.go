package flow

import (
	"context"
	"fmt"
	"log/slog"

	"livereport-bot/core/logger"
	"livereport-bot/internal/model"
)

// HandleStart begins or resumes onboarding. The next step is always
// derived from the durable user record, so /start is safe to repeat at
// any point without losing progress.
func (s *Service) HandleStart(ctx context.Context, in Inbound, reply Replier) error {
	// A restart abandons any staged report confirmation.
	if err := s.states.Clear(ctx, in.UserID); err != nil {
		logger.Warn(ctx, "flow", "state.clear",
			slog.String("status", "error"),
			slog.String("err", err.Error()),
		)
	}

	user, err := s.lookupUser(ctx, in.UserID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	if user == nil {
		if _, err := s.users.Create(ctx, in.UserID, in.Username); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		logger.Info(ctx, "flow", "onboarding.started", slog.Int64("user_id", in.UserID))
		return reply(msgAskName)
	}

	return reply(resumeMessage(user))
}

// resumeMessage picks the prompt matching where the user left off.
func resumeMessage(user *model.User) string {
	switch user.RegistrationStage {
	case model.StageName:
		return msgAskName
	case model.StageEmail:
		return msgAskEmail
	case model.StagePassword:
		return msgAskPassword
	}

	switch {
	case !user.IsApproved:
		return msgAlreadyPending
	case !user.IsActive:
		return msgAccountInactive
	default:
		return msgWelcomeBack
	}
}
