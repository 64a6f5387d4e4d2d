package notify

import (
	"context"
	"fmt"
	"log/slog"

	"livereport-bot/core/logger"
	"livereport-bot/internal/model"
)

// Account lifecycle and report verdict notifications. All texts are in
// Indonesian because the field operators are. Failures are logged and
// swallowed so an unreachable recipient never blocks an admin command.

func AccountApproved(ctx context.Context, n Notifier, user *model.User) {
	text := fmt.Sprintf(
		"✅ *Akun Anda telah disetujui!*\n\n"+
			"Email: %s\n\n"+
			"Anda sekarang dapat mengirim laporan penjualan:\n"+
			"1. Kirim screenshot hasil livestream\n"+
			"2. Periksa hasil pembacaan GMV dan durasi\n"+
			"3. Balas Y untuk konfirmasi",
		user.Email.String,
	)
	deliver(ctx, n, user.TelegramUserID, "account.approved", text)
}

func AccountRejected(ctx context.Context, n Notifier, user *model.User) {
	deliver(ctx, n, user.TelegramUserID, "account.rejected",
		"❌ Maaf, pendaftaran Anda tidak disetujui. Hubungi admin untuk informasi lebih lanjut.")
}

func AccountDeactivated(ctx context.Context, n Notifier, user *model.User) {
	deliver(ctx, n, user.TelegramUserID, "account.deactivated",
		"⛔ Akun Anda telah dinonaktifkan. Hubungi admin jika ini sebuah kesalahan.")
}

func AccountReactivated(ctx context.Context, n Notifier, user *model.User) {
	deliver(ctx, n, user.TelegramUserID, "account.reactivated",
		"✅ Akun Anda telah diaktifkan kembali. Anda dapat mengirim laporan lagi.")
}

func ReportVerified(ctx context.Context, n Notifier, recipientID int64, report *model.Report) {
	text := fmt.Sprintf(
		"✅ Laporan #%d Anda telah *diverifikasi*.\nGMV: %s",
		report.ID, FormatRupiah(report.GMVAmount),
	)
	if report.Notes.Valid && report.Notes.String != "" {
		text += "\nCatatan: " + report.Notes.String
	}
	deliver(ctx, n, recipientID, "report.verified", text)
}

func ReportRejected(ctx context.Context, n Notifier, recipientID int64, report *model.Report) {
	text := fmt.Sprintf("❌ Laporan #%d Anda *ditolak*.", report.ID)
	if report.Notes.Valid && report.Notes.String != "" {
		text += "\nAlasan: " + report.Notes.String
	}
	text += "\nSilakan kirim ulang screenshot yang benar."
	deliver(ctx, n, recipientID, "report.rejected", text)
}

func deliver(ctx context.Context, n Notifier, recipientID int64, event, text string) {
	if err := n.Send(ctx, recipientID, text); err != nil {
		logger.Warn(ctx, "notify", event,
			slog.String("status", "error"),
			slog.Int64("recipient_id", recipientID),
			slog.String("err", err.Error()),
		)
	}
}
