package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"livereport-bot/core/logger"
	"livereport-bot/internal/convstate"
	"livereport-bot/internal/model"
)

var (
	affirmTokens   = map[string]bool{"Y": true, "YA": true, "YES": true}
	negativeTokens = map[string]bool{"N": true, "NO": true, "TIDAK": true, "CANCEL": true}
)

// handleConfirmation resolves a staged report. Anything that is neither
// an affirmation nor a cancellation re-prompts and keeps the state.
func (s *Service) handleConfirmation(ctx context.Context, in Inbound, pending *convstate.PendingReport, reply Replier) error {
	token := strings.ToUpper(strings.TrimSpace(in.Text))

	switch {
	case affirmTokens[token]:
		return s.persistReport(ctx, in, pending, reply)
	case negativeTokens[token]:
		if err := s.states.Clear(ctx, in.UserID); err != nil {
			return fmt.Errorf("clear conversation state: %w", err)
		}
		logger.Info(ctx, "flow", "report.cancelled", slog.Int64("user_id", in.UserID))
		return reply(msgConfirmCancelled)
	default:
		return reply(msgConfirmReprompt)
	}
}

func (s *Service) persistReport(ctx context.Context, in Inbound, pending *convstate.PendingReport, reply Replier) error {
	user, err := s.lookupUser(ctx, in.UserID)
	if err != nil {
		return fmt.Errorf("load user for report: %w", err)
	}
	if user == nil {
		_ = s.states.Clear(ctx, in.UserID)
		return reply(msgNotRegistered)
	}

	report := &model.Report{
		HostID:        user.ID,
		GMVAmount:     pending.GMVAmount,
		ScreenshotURL: pending.ScreenshotURL,
		OCRRawText:    pending.RawOCRText,
	}
	if pending.DurationLabel != "" {
		report.DurationLabel.String = pending.DurationLabel
		report.DurationLabel.Valid = true
	}

	saved, err := s.reports.Create(ctx, report)
	if err != nil {
		logger.Error(ctx, "flow", "report.persist",
			slog.Int64("user_id", in.UserID),
			slog.String("err", err.Error()),
		)
		// The staged data is gone either way, otherwise the user is stuck
		// replaying the same failing confirmation.
		_ = s.states.Clear(ctx, in.UserID)
		return reply(msgPersistFailed)
	}

	if err := s.states.Clear(ctx, in.UserID); err != nil {
		return fmt.Errorf("clear conversation state: %w", err)
	}

	logger.Info(ctx, "flow", "report.saved",
		slog.Int64("user_id", in.UserID),
		slog.Int64("report_id", saved.ID),
		slog.Float64("gmv", saved.GMVAmount),
	)
	return reply(fmt.Sprintf(msgConfirmSaved, saved.ID, saved.CreatedAt.Format("02 Jan 2006 15:04")))
}
