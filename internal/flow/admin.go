package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"livereport-bot/core/logger"
	"livereport-bot/internal/model"
	"livereport-bot/internal/notify"
	"livereport-bot/internal/storage"
)

// Admin commands. Arguments come in as the raw text after the command.
// Replies go to the admin chat, lifecycle notifications to the affected
// operator.

func (s *Service) HandleApprove(ctx context.Context, args string, reply Replier) error {
	return s.setApproval(ctx, args, true, reply)
}

func (s *Service) HandleReject(ctx context.Context, args string, reply Replier) error {
	return s.setApproval(ctx, args, false, reply)
}

func (s *Service) setApproval(ctx context.Context, args string, approved bool, reply Replier) error {
	telegramID, _, err := parseIDArg(args)
	if err != nil {
		return reply("Format: perintah diikuti Telegram ID pengguna, contoh: /approve 123456789")
	}

	user, err := s.users.SetApproval(ctx, telegramID, approved)
	if errors.Is(err, storage.ErrNotFound) {
		return reply(fmt.Sprintf("Pengguna dengan Telegram ID %d tidak ditemukan.", telegramID))
	}
	if err != nil {
		return fmt.Errorf("set approval: %w", err)
	}

	if approved {
		notify.AccountApproved(ctx, s.notify, user)
		logger.Info(ctx, "flow", "admin.approved", slog.Int64("target_id", telegramID))
		return reply(fmt.Sprintf("✅ %s disetujui.", displayName(user)))
	}
	notify.AccountRejected(ctx, s.notify, user)
	logger.Info(ctx, "flow", "admin.rejected", slog.Int64("target_id", telegramID))
	return reply(fmt.Sprintf("❌ Pendaftaran %s ditolak.", displayName(user)))
}

func (s *Service) HandleDeactivate(ctx context.Context, args string, reply Replier) error {
	return s.setActive(ctx, args, false, reply)
}

func (s *Service) HandleReactivate(ctx context.Context, args string, reply Replier) error {
	return s.setActive(ctx, args, true, reply)
}

func (s *Service) setActive(ctx context.Context, args string, active bool, reply Replier) error {
	telegramID, _, err := parseIDArg(args)
	if err != nil {
		return reply("Format: perintah diikuti Telegram ID pengguna, contoh: /deactivate 123456789")
	}

	user, err := s.users.SetActive(ctx, telegramID, active)
	if errors.Is(err, storage.ErrNotFound) {
		return reply(fmt.Sprintf("Pengguna dengan Telegram ID %d tidak ditemukan.", telegramID))
	}
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}

	if active {
		notify.AccountReactivated(ctx, s.notify, user)
		logger.Info(ctx, "flow", "admin.reactivated", slog.Int64("target_id", telegramID))
		return reply(fmt.Sprintf("✅ Akun %s diaktifkan kembali.", displayName(user)))
	}
	notify.AccountDeactivated(ctx, s.notify, user)
	logger.Info(ctx, "flow", "admin.deactivated", slog.Int64("target_id", telegramID))
	return reply(fmt.Sprintf("⛔ Akun %s dinonaktifkan.", displayName(user)))
}

func (s *Service) HandleVerifyReport(ctx context.Context, args string, reply Replier) error {
	return s.setReportStatus(ctx, args, model.ReportVerified, reply)
}

func (s *Service) HandleRejectReport(ctx context.Context, args string, reply Replier) error {
	return s.setReportStatus(ctx, args, model.ReportRejected, reply)
}

func (s *Service) setReportStatus(ctx context.Context, args string, status model.ReportStatus, reply Replier) error {
	reportID, notes, err := parseIDArg(args)
	if err != nil {
		return reply("Format: perintah diikuti ID laporan dan catatan opsional, contoh: /verify 42 data cocok")
	}

	report, err := s.reports.SetStatus(ctx, reportID, status, notes)
	if errors.Is(err, storage.ErrNotFound) {
		return reply(fmt.Sprintf("Laporan #%d tidak ditemukan.", reportID))
	}
	if err != nil {
		return fmt.Errorf("set report status: %w", err)
	}

	host, err := s.users.ByID(ctx, report.HostID)
	if err != nil || host == nil {
		logger.Warn(ctx, "flow", "admin.report_host",
			slog.Int64("report_id", reportID),
			slog.Int64("host_id", report.HostID),
		)
	} else if status == model.ReportVerified {
		notify.ReportVerified(ctx, s.notify, host.TelegramUserID, report)
	} else {
		notify.ReportRejected(ctx, s.notify, host.TelegramUserID, report)
	}

	logger.Info(ctx, "flow", "admin.report_status",
		slog.Int64("report_id", reportID),
		slog.String("report_status", string(status)),
	)
	if status == model.ReportVerified {
		return reply(fmt.Sprintf("✅ Laporan #%d diverifikasi.", reportID))
	}
	return reply(fmt.Sprintf("❌ Laporan #%d ditolak.", reportID))
}

// parseIDArg splits "<id> [rest...]" and parses the leading ID.
func parseIDArg(args string) (int64, string, error) {
	fields := strings.Fields(strings.TrimSpace(args))
	if len(fields) == 0 {
		return 0, "", fmt.Errorf("missing id argument")
	}
	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("parse id argument: %w", err)
	}
	return id, strings.Join(fields[1:], " "), nil
}

func displayName(user *model.User) string {
	if user.FullName.Valid && user.FullName.String != "" {
		return user.FullName.String
	}
	if user.Username != "" {
		return "@" + user.Username
	}
	return strconv.FormatInt(user.TelegramUserID, 10)
}
