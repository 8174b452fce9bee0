package notify

import (
	"context"
	"log/slog"

	"github.com/inho1628/korea-community-website/model"
)

// Log stands in for Telegram when no bot token is configured.
type Log struct {
	Logger *slog.Logger
}

func (l Log) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}

// SendMessage logs the message instead of sending it.
func (l Log) SendMessage(ctx context.Context, chatID int64, text string, html bool) (int64, error) {
	l.logger().InfoContext(ctx, "telegram disabled, message dropped", "chat_id", chatID, "length", len(text))
	return 0, nil
}

// NotifyApplication logs the application.
func (l Log) NotifyApplication(ctx context.Context, app model.GalleryApplication, applicant model.User) error {
	l.logger().InfoContext(ctx, "gallery application submitted",
		"application_id", app.ID, "country", app.Country, "user_id", applicant.ID)
	return nil
}
