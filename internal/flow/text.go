package flow

import (
	"context"
	"fmt"

	"livereport-bot/internal/convstate"
	"livereport-bot/internal/model"
)

// HandleText routes a plain text message. A staged confirmation takes
// precedence; otherwise the message is interpreted against the user's
// durable registration stage.
func (s *Service) HandleText(ctx context.Context, in Inbound, reply Replier) error {
	entry, err := s.states.Get(ctx, in.UserID)
	if err != nil {
		return fmt.Errorf("load conversation state: %w", err)
	}
	if entry != nil && entry.Stage == convstate.StageWaitingConfirmation && entry.Report != nil {
		return s.handleConfirmation(ctx, in, entry.Report, reply)
	}

	user, err := s.lookupUser(ctx, in.UserID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return reply(msgNotRegistered)
	}

	switch user.RegistrationStage {
	case model.StageName:
		return s.handleName(ctx, in, reply)
	case model.StageEmail:
		return s.handleEmail(ctx, in, reply)
	case model.StagePassword:
		return s.handlePassword(ctx, in, reply)
	}

	return reply(msgTextFallback)
}
