package notify

import (
	"context"
	"log/slog"

	"github.com/bowphp/framework-sub003/internal/store"
)

// MailTransport delivers mail payloads.
type MailTransport interface {
	SendMail(ctx context.Context, m MailMessage) error
}

// SmsTransport delivers sms payloads.
type SmsTransport interface {
	SendSms(ctx context.Context, m SmsMessage) error
}

// SlackTransport posts slack payloads.
type SlackTransport interface {
	PostSlack(ctx context.Context, m SlackMessage) error
}

// TelegramTransport delivers telegram payloads.
type TelegramTransport interface {
	SendTelegram(ctx context.Context, m TelegramMessage) error
}

// NotificationWriter persists database-channel notifications.
// *store.Store implements it.
type NotificationWriter interface {
	WriteNotification(ctx context.Context, n store.Notification) error
}

var _ NotificationWriter = (*store.Store)(nil)

// LogTransport writes every payload to a logger instead of a remote
// service. It implements all four transports.
type LogTransport struct {
	Logger *slog.Logger
}

var (
	_ MailTransport     = LogTransport{}
	_ SmsTransport      = LogTransport{}
	_ SlackTransport    = LogTransport{}
	_ TelegramTransport = LogTransport{}
)

func (t LogTransport) logger() *slog.Logger {
	if t.Logger == nil {
		return slog.Default()
	}
	return t.Logger
}

func (t LogTransport) SendMail(ctx context.Context, m MailMessage) error {
	t.logger().InfoContext(ctx, "mail sent", "to", m.To, "subject", m.Subject)
	return nil
}

func (t LogTransport) SendSms(ctx context.Context, m SmsMessage) error {
	t.logger().InfoContext(ctx, "sms sent", "to", m.To, "length", len(m.Body))
	return nil
}

func (t LogTransport) PostSlack(ctx context.Context, m SlackMessage) error {
	t.logger().InfoContext(ctx, "slack message posted", "channel", m.Channel)
	return nil
}

func (t LogTransport) SendTelegram(ctx context.Context, m TelegramMessage) error {
	t.logger().InfoContext(ctx, "telegram message sent", "chat_id", m.ChatID)
	return nil
}
