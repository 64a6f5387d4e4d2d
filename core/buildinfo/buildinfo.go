package buildinfo

// The release pipeline stamps these via -ldflags so the startup log
// identifies the exact bot binary that is polling Telegram:
//
//	-X 'livereport-bot/core/buildinfo.Version=v1.2.3'
//	-X 'livereport-bot/core/buildinfo.Commit=abcdef0'
//	-X 'livereport-bot/core/buildinfo.Date=2026-08-28T12:00:00Z'
//
// Unstamped binaries report themselves as a local dev build.
var (
	// Version is the release tag of the bot build.
	Version = "dev"
	// Commit is the source commit the bot was built from.
	Commit = "local"
	// Date is the build timestamp in RFC3339 format.
	Date = ""
)
