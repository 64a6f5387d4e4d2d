// Package flow implements the conversation logic of the bot: operator
// onboarding, screenshot report intake with OCR, the confirmation step
// and the admin verification commands.
package flow

import (
	"context"
	"errors"
	"time"

	"livereport-bot/internal/convstate"
	"livereport-bot/internal/model"
	"livereport-bot/internal/ocr"
	"livereport-bot/internal/storage"
)

// Users is the slice of the user repository the flow depends on.
type Users interface {
	ByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	ByID(ctx context.Context, id int64) (*model.User, error)
	Create(ctx context.Context, telegramID int64, username string) (*model.User, error)
	SetFullName(ctx context.Context, telegramID int64, fullName, username string) error
	EmailInUse(ctx context.Context, email string, excludeTelegramID int64) (bool, error)
	SetEmail(ctx context.Context, telegramID int64, email string) error
	SetPassword(ctx context.Context, telegramID int64, passwordHash string) error
	SetApproval(ctx context.Context, telegramID int64, approved bool) (*model.User, error)
	SetActive(ctx context.Context, telegramID int64, active bool) (*model.User, error)
}

// Reports is the slice of the report repository the flow depends on.
type Reports interface {
	Create(ctx context.Context, r *model.Report) (*model.Report, error)
	ByID(ctx context.Context, id int64) (*model.Report, error)
	SetStatus(ctx context.Context, id int64, status model.ReportStatus, notes string) (*model.Report, error)
}

// Media fetches a Telegram file to local disk and reports the public
// file URL it was served from.
type Media interface {
	Fetch(ctx context.Context, fileID, destPath string) (fileURL string, err error)
}

// Notifier pushes an out-of-band message to a user.
type Notifier interface {
	Send(ctx context.Context, recipientID int64, text string) error
}

// Replier sends a message back into the chat the update came from.
// Handlers receive one bound to the current Telegram context.
type Replier func(text string) error

// Inbound carries the update fields the flow needs, decoupled from the
// transport types.
type Inbound struct {
	UserID   int64
	ChatID   int64
	Username string
	Text     string
}

// Service wires the conversation logic to its dependencies.
type Service struct {
	users   Users
	reports Reports
	states  convstate.Store
	ocr     ocr.Client
	media   Media
	notify  Notifier

	ocrMaxRetries int
	// retryWait sleeps between OCR attempts, injectable for tests.
	retryWait func(attempt int)
	tempDir   string
}

// Options configures optional Service behavior.
type Options struct {
	OCRMaxRetries int
	TempDir       string
}

// New builds the conversation service. The bot-backed Media and
// Notifier are attached separately, see AttachTransport.
func New(users Users, reports Reports, states convstate.Store, ocrClient ocr.Client, opts Options) *Service {
	if opts.OCRMaxRetries <= 0 {
		opts.OCRMaxRetries = 3
	}
	s := &Service{
		users:         users,
		reports:       reports,
		states:        states,
		ocr:           ocrClient,
		ocrMaxRetries: opts.OCRMaxRetries,
		tempDir:       opts.TempDir,
	}
	s.retryWait = func(attempt int) {
		time.Sleep(time.Duration(attempt) * 2 * time.Second)
	}
	return s
}

// lookupUser normalizes a missing user to nil so callers branch on the
// value instead of the repository's sentinel error.
func (s *Service) lookupUser(ctx context.Context, telegramID int64) (*model.User, error) {
	user, err := s.users.ByTelegramID(ctx, telegramID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return user, err
}
