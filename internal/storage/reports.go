package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"livereport-bot/core/logger"
	"livereport-bot/internal/model"
)

// Reports provides access to session report records.
type Reports struct {
	db *sqlx.DB
}

// NewReports constructs a Reports repository.
func NewReports(db *sqlx.DB) *Reports {
	return &Reports{db: db}
}

// Create inserts a new report with PENDING status and returns the stored row.
func (s *Reports) Create(ctx context.Context, r *model.Report) (*model.Report, error) {
	var saved model.Report
	err := s.db.GetContext(ctx, &saved, `
		INSERT INTO reports (host_id, gmv_amount, screenshot_url, ocr_raw_text, duration_label, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *`,
		r.HostID, r.GMVAmount, r.ScreenshotURL, r.OCRRawText, r.DurationLabel, model.ReportPending)
	if err != nil {
		return nil, fmt.Errorf("reports create: %w", err)
	}
	logger.DB.Info("report created",
		slog.String("event", "reports.create"),
		slog.Int64("report_id", saved.ID),
		slog.Int64("host_id", saved.HostID),
	)
	return &saved, nil
}

// ByID loads a report by primary key.
func (s *Reports) ByID(ctx context.Context, id int64) (*model.Report, error) {
	var r model.Report
	err := s.db.GetContext(ctx, &r, `SELECT * FROM reports WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reports by id: %w", err)
	}
	return &r, nil
}

// SetStatus updates the verification status and manager notes of a report.
func (s *Reports) SetStatus(ctx context.Context, id int64, status model.ReportStatus, notes string) (*model.Report, error) {
	noteVal := sql.NullString{String: notes, Valid: notes != ""}
	var r model.Report
	err := s.db.GetContext(ctx, &r, `
		UPDATE reports
		SET status = $1, notes = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING *`,
		status, noteVal, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reports set status: %w", err)
	}
	return &r, nil
}
