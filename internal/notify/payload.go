package notify

// MailMessage is the mail channel payload.
type MailMessage struct {
	To      string
	Subject string
	Body    string
}

// SmsMessage is the sms channel payload.
type SmsMessage struct {
	To   string
	Body string
}

// SlackMessage is the slack channel payload.
type SlackMessage struct {
	Channel string
	Text    string
}

// TelegramMessage is the telegram channel payload.
type TelegramMessage struct {
	ChatID string
	Text   string
}
