// Package convstate stores per-user ephemeral conversation state with a TTL.
//
// The store is intentionally last-write-wins: concurrent events for the same
// user race freely and only the content of the last completed write is
// retained. Callers that need stronger guarantees must serialize upstream.
package convstate

import (
	"context"
	"time"
)

// Stage identifies the conversation step that determines how the next
// inbound message is interpreted.
type Stage string

const (
	// StageWaitingConfirmation means a parsed report is staged and the next
	// text reply is interpreted as a yes/no confirmation.
	StageWaitingConfirmation Stage = "waiting_confirmation"
)

// DefaultTTL is the inactivity window after which state is discarded.
const DefaultTTL = 10 * time.Minute

// PendingReport is the payload staged while waiting for confirmation.
type PendingReport struct {
	OwnerID       int64   `json:"owner_id"`
	ChatID        int64   `json:"chat_id"`
	GMVAmount     float64 `json:"gmv_amount"`
	ScreenshotURL string  `json:"screenshot_url"`
	RawOCRText    string  `json:"raw_ocr_text"`
	DurationLabel string  `json:"duration_label,omitempty"`
}

// Entry is a single user's conversation state.
type Entry struct {
	Stage         Stage          `json:"stage"`
	Report        *PendingReport `json:"report,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	LastTouchedAt time.Time      `json:"last_touched_at"`
}

// Store keeps at most one conversation state per user.
type Store interface {
	// Set overwrites the user's state unconditionally and stamps the current time.
	Set(ctx context.Context, userID int64, stage Stage, report *PendingReport) error
	// Get returns the state, or nil when absent or expired. Expired entries
	// are evicted lazily on read.
	Get(ctx context.Context, userID int64) (*Entry, error)
	// Clear removes the user's state.
	Clear(ctx context.Context, userID int64) error
}
