package flow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"livereport-bot/core/logger"
	"livereport-bot/internal/convstate"
	"livereport-bot/internal/extract"
	"livereport-bot/internal/notify"
	"livereport-bot/internal/ocr"
)

// HandlePhoto validates the sender and spawns the OCR pipeline. A new
// photo always supersedes a previously staged confirmation. The
// pipeline runs in its own goroutine so a slow OCR call never blocks
// update handling.
func (s *Service) HandlePhoto(ctx context.Context, in Inbound, fileID string, reply Replier) error {
	user, err := s.lookupUser(ctx, in.UserID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	switch {
	case user == nil || !user.Registered():
		return reply(msgNotRegistered)
	case !user.IsApproved:
		return reply(msgAlreadyPending)
	case !user.IsActive:
		return reply(msgAccountInactive)
	}

	if err := s.states.Clear(ctx, in.UserID); err != nil {
		logger.Warn(ctx, "flow", "state.clear",
			slog.String("status", "error"),
			slog.String("err", err.Error()),
		)
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(ctx, "flow", "pipeline.panic",
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())),
				)
			}
		}()
		s.runPipeline(ctx, in, fileID, reply)
	}()
	return nil
}

// runPipeline downloads the screenshot, runs OCR, parses GMV and
// duration and stages the result for confirmation.
func (s *Service) runPipeline(ctx context.Context, in Inbound, fileID string, reply Replier) {
	if err := reply(msgProcessing); err != nil {
		logger.Warn(ctx, "flow", "pipeline.ack",
			slog.String("status", "error"),
			slog.String("err", err.Error()),
		)
	}

	start := time.Now()
	tempPath := filepath.Join(s.tempDirOrDefault(), uuid.NewString()+".jpg")
	// An aborted download can still leave a partial file behind, so the
	// cleanup is registered before the fetch.
	defer func() {
		if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
			logger.Warn(ctx, "flow", "pipeline.cleanup", slog.String("err", err.Error()))
		}
	}()
	fileURL, err := s.media.Fetch(ctx, fileID, tempPath)
	if err != nil {
		logger.Error(ctx, "flow", "pipeline.download",
			slog.Int64("user_id", in.UserID),
			slog.String("err", err.Error()),
		)
		_ = reply(msgDownloadFailed)
		return
	}

	rawText, err := s.extractWithRetry(ctx, tempPath)
	if err != nil {
		logger.Error(ctx, "flow", "pipeline.ocr",
			slog.Int64("user_id", in.UserID),
			slog.String("err", err.Error()),
		)
		_ = reply(fmt.Sprintf(msgOCRFailed, err.Error()))
		return
	}

	gmv := extract.GMV(rawText)
	duration := extract.Duration(rawText)

	report := &convstate.PendingReport{
		OwnerID:       in.UserID,
		ChatID:        in.ChatID,
		GMVAmount:     gmv,
		ScreenshotURL: fileURL,
		RawOCRText:    rawText,
		DurationLabel: duration,
	}
	if err := s.states.Set(ctx, in.UserID, convstate.StageWaitingConfirmation, report); err != nil {
		logger.Error(ctx, "flow", "pipeline.stage",
			slog.Int64("user_id", in.UserID),
			slog.String("err", err.Error()),
		)
		_ = reply(msgPersistFailed)
		return
	}

	logger.Info(ctx, "flow", "pipeline.staged",
		slog.Int64("user_id", in.UserID),
		slog.Float64("gmv", gmv),
		slog.String("duration", duration),
		slog.Duration("took", logger.Took(start)),
	)

	durationText := duration
	if durationText == "" {
		durationText = msgNoDuration
	}
	_ = reply(fmt.Sprintf(msgSummary, notify.FormatRupiah(gmv), durationText))
}

// extractWithRetry calls the OCR provider with linear backoff. Provider
// errors flagged permanent abort immediately, the message is surfaced
// to the user as-is.
func (s *Service) extractWithRetry(ctx context.Context, path string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= s.ocrMaxRetries+1; attempt++ {
		text, err := s.ocr.Extract(ctx, ocr.Request{FilePath: path})
		if err == nil {
			return text, nil
		}
		lastErr = err
		if ocr.IsPermanent(err) || ctx.Err() != nil {
			break
		}
		if attempt <= s.ocrMaxRetries {
			logger.Warn(ctx, "flow", "ocr.retry",
				slog.Int("attempt", attempt),
				slog.String("err", err.Error()),
			)
			s.retryWait(attempt)
		}
	}
	return "", lastErr
}

func (s *Service) tempDirOrDefault() string {
	if s.tempDir != "" {
		return s.tempDir
	}
	return os.TempDir()
}
