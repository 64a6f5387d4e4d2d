// Package media fetches Telegram-hosted files to local disk.
package media

import (
	"context"
	"fmt"

	tele "gopkg.in/telebot.v4"
)

// TelegramFiles downloads photo files through the bot API. The file URL
// it reports embeds the bot token, which is how Telegram serves files,
// so stored URLs must be treated as sensitive.
type TelegramFiles struct {
	bot   *tele.Bot
	token string
}

func NewTelegramFiles(bot *tele.Bot, token string) *TelegramFiles {
	return &TelegramFiles{bot: bot, token: token}
}

// Fetch resolves the file behind fileID, downloads it to destPath and
// returns the public download URL.
func (f *TelegramFiles) Fetch(ctx context.Context, fileID, destPath string) (string, error) {
	file, err := f.bot.FileByID(fileID)
	if err != nil {
		return "", fmt.Errorf("resolve telegram file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := f.bot.Download(&file, destPath); err != nil {
		return "", fmt.Errorf("download telegram file: %w", err)
	}
	return fmt.Sprintf("https://api.telegram.org/file/bot%s/%s", f.token, file.FilePath), nil
}
