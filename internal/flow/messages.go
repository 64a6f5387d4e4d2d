package flow

// User-facing texts. The operators are Indonesian, so every reply is.

const (
	msgAskName      = "Selamat datang! 👋\nSilakan masukkan *nama lengkap* Anda:"
	msgNameTooShort = "Nama terlalu pendek. Masukkan nama lengkap Anda (minimal 3 karakter):"

	msgAskEmail      = "Terima kasih! Sekarang masukkan *email* Anda:"
	msgEmailInvalid  = "Format email tidak valid. Silakan masukkan email yang benar:"
	msgEmailTaken    = "Email tersebut sudah terdaftar. Gunakan email lain:"
	msgAskPassword   = "Baik! Terakhir, buat *password* untuk akun Anda (6-50 karakter):"
	msgPasswordShort = "Password minimal 6 karakter. Coba lagi:"
	msgPasswordLong  = "Password maksimal 50 karakter. Coba lagi:"

	msgRegistrationDone = "✅ *Pendaftaran selesai!*\n\n" +
		"Akun Anda sedang menunggu persetujuan admin. " +
		"Anda akan menerima notifikasi setelah akun disetujui."

	msgAlreadyPending   = "Akun Anda masih menunggu persetujuan admin. Mohon bersabar ya 🙏"
	msgAccountInactive  = "Akun Anda sedang nonaktif. Hubungi admin untuk mengaktifkan kembali."
	msgWelcomeBack      = "Selamat datang kembali! Kirim screenshot hasil livestream untuk membuat laporan."
	msgNotRegistered    = "Anda belum terdaftar. Ketik /start untuk mendaftar."
	msgTextFallback     = "Untuk membuat laporan, kirim *screenshot* hasil livestream Anda.\nKetik /start jika perlu memulai ulang."
	msgProcessing       = "⏳ Memproses screenshot..."
	msgDownloadFailed   = "Gagal mengunduh gambar. Silakan kirim ulang screenshot Anda."
	msgOCRFailed        = "Gagal membaca screenshot: %s\nSilakan coba lagi."
	msgPersistFailed    = "Terjadi kesalahan saat menyimpan laporan. Silakan kirim ulang screenshot Anda."
	msgConfirmSaved     = "✅ *Laporan tersimpan!*\n\nID Laporan: #%d\nWaktu: %s\n\nTerima kasih, laporan Anda menunggu verifikasi admin."
	msgConfirmCancelled = "Laporan dibatalkan. Kirim screenshot baru kapan saja."
	msgConfirmReprompt  = "Balas *Y* untuk menyimpan laporan atau *N* untuk membatalkan."

	msgSummary = "📊 *Hasil pembacaan screenshot*\n\n" +
		"GMV: %s\n" +
		"Durasi: %s\n\n" +
		"Apakah data di atas benar?\nBalas *Y* untuk menyimpan atau *N* untuk membatalkan."

	msgNoDuration = "Tidak terdeteksi"
)
