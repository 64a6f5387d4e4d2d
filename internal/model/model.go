package model

import (
	"database/sql"
	"time"
)

// RegistrationStage tracks how far a user progressed through onboarding.
// It is an explicit durable field; the current conversation step is always
// derivable from it after a process restart or state expiry.
type RegistrationStage string

const (
	// StageName means the user has not yet provided a full name.
	StageName RegistrationStage = "name"
	// StageEmail means the name is set but the email is still missing.
	StageEmail RegistrationStage = "email"
	// StagePassword means name and email are set but no password yet.
	StagePassword RegistrationStage = "password"
	// StageComplete means registration data is complete; the account may still
	// await manager approval.
	StageComplete RegistrationStage = "complete"
)

// User is a field operator registered through the bot.
type User struct {
	ID                int64             `db:"id"`
	TelegramUserID    int64             `db:"telegram_user_id"`
	Username          string            `db:"username"`
	FullName          sql.NullString    `db:"full_name"`
	Email             sql.NullString    `db:"email"`
	PasswordHash      sql.NullString    `db:"password_hash"`
	RegistrationStage RegistrationStage `db:"registration_stage"`
	IsApproved        bool              `db:"is_approved"`
	IsActive          bool              `db:"is_active"`
	CreatedAt         time.Time         `db:"created_at"`
	UpdatedAt         time.Time         `db:"updated_at"`
}

// Registered reports whether the user completed the registration flow.
func (u *User) Registered() bool {
	return u != nil && u.RegistrationStage == StageComplete
}

// ReportStatus is the managerial verification status of a report.
type ReportStatus string

const (
	ReportPending  ReportStatus = "PENDING"
	ReportVerified ReportStatus = "VERIFIED"
	ReportRejected ReportStatus = "REJECTED"
)

// Report is a confirmed livestream session report awaiting verification.
type Report struct {
	ID            int64          `db:"id"`
	HostID        int64          `db:"host_id"`
	GMVAmount     float64        `db:"gmv_amount"`
	ScreenshotURL string         `db:"screenshot_url"`
	OCRRawText    string         `db:"ocr_raw_text"`
	DurationLabel sql.NullString `db:"duration_label"`
	Status        ReportStatus   `db:"status"`
	Notes         sql.NullString `db:"notes"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}
