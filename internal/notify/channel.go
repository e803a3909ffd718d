package notify

import (
	"context"
	"time"

	"github.com/bowphp/framework-sub003/internal/container"
	"github.com/bowphp/framework-sub003/internal/errs"
	"github.com/bowphp/framework-sub003/internal/store"
)

// Built-in channel names.
const (
	ChannelMail     = "mail"
	ChannelDatabase = "database"
	ChannelSms      = "sms"
	ChannelSlack    = "slack"
	ChannelTelegram = "telegram"
)

// Channel delivers a message to one notifiable over one medium.
type Channel interface {
	Send(ctx context.Context, n Notifiable, msg Message) error
}

// ChannelFunc adapts a function to Channel.
type ChannelFunc func(ctx context.Context, n Notifiable, msg Message) error

// Send calls f.
func (f ChannelFunc) Send(ctx context.Context, n Notifiable, msg Message) error {
	return f(ctx, n, msg)
}

// ChannelFactory instantiates a channel. It is called once per delivery.
type ChannelFactory func() (Channel, error)

// Static returns a factory that always yields ch.
func Static(ch Channel) ChannelFactory {
	return func() (Channel, error) { return ch, nil }
}

// FromContainer returns a factory that resolves name from r on each call.
func FromContainer(r container.Resolver, name string) ChannelFactory {
	return func() (Channel, error) {
		v, err := r.Resolve(name)
		if err != nil {
			return nil, err
		}
		ch, ok := v.(Channel)
		if !ok {
			return nil, errs.Configf("notify.channel", "binding %q is %T, not a channel", name, v)
		}
		return ch, nil
	}
}

// MailChannel sends ToMail through a MailTransport.
type MailChannel struct {
	Transport MailTransport
}

func (c MailChannel) Send(ctx context.Context, n Notifiable, msg Message) error {
	m := msg.ToMail(n)
	if m.To == "" {
		return errs.Configf("notify.mail", "%s has no mail recipient", MessageName(msg))
	}
	return c.Transport.SendMail(ctx, m)
}

// SmsChannel sends ToSms through an SmsTransport.
type SmsChannel struct {
	Transport SmsTransport
}

func (c SmsChannel) Send(ctx context.Context, n Notifiable, msg Message) error {
	m := msg.ToSms(n)
	if m.To == "" {
		return errs.Configf("notify.sms", "%s has no sms recipient", MessageName(msg))
	}
	return c.Transport.SendSms(ctx, m)
}

// SlackChannel posts ToSlack through a SlackTransport.
type SlackChannel struct {
	Transport SlackTransport
}

func (c SlackChannel) Send(ctx context.Context, n Notifiable, msg Message) error {
	m := msg.ToSlack(n)
	if m.Channel == "" {
		return errs.Configf("notify.slack", "%s has no slack channel", MessageName(msg))
	}
	return c.Transport.PostSlack(ctx, m)
}

// TelegramChannel sends ToTelegram through a TelegramTransport.
type TelegramChannel struct {
	Transport TelegramTransport
}

func (c TelegramChannel) Send(ctx context.Context, n Notifiable, msg Message) error {
	m := msg.ToTelegram(n)
	if m.ChatID == "" {
		return errs.Configf("notify.telegram", "%s has no telegram chat", MessageName(msg))
	}
	return c.Transport.SendTelegram(ctx, m)
}

// DatabaseChannel stores ToDatabase as a notifications row.
type DatabaseChannel struct {
	Writer NotificationWriter
	IDs    IDGenerator
	Now    func() time.Time
}

func (c DatabaseChannel) Send(ctx context.Context, n Notifiable, msg Message) error {
	ids := c.IDs
	if ids == nil {
		ids = UUIDv7Generator{}
	}
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}

	return c.Writer.WriteNotification(ctx, store.Notification{
		ID:             ids.Generate(),
		Type:           MessageName(msg),
		NotifiableType: n.NotifiableType(),
		NotifiableID:   n.NotifiableID(),
		Data:           msg.ToDatabase(n),
		CreatedAt:      now(),
	})
}

// Transports collects the collaborators of the built-in channels.
// A nil transport leaves its channel unregistered.
type Transports struct {
	Mail     MailTransport
	Sms      SmsTransport
	Slack    SlackTransport
	Telegram TelegramTransport
	Database NotificationWriter

	// IDs and Now feed the database channel. Defaults: UUIDv7, time.Now.
	IDs IDGenerator
	Now func() time.Time
}

// BuiltinChannels returns factories for every built-in channel whose
// transport is set.
func BuiltinChannels(t Transports) map[string]ChannelFactory {
	channels := make(map[string]ChannelFactory)
	if t.Mail != nil {
		channels[ChannelMail] = Static(MailChannel{Transport: t.Mail})
	}
	if t.Sms != nil {
		channels[ChannelSms] = Static(SmsChannel{Transport: t.Sms})
	}
	if t.Slack != nil {
		channels[ChannelSlack] = Static(SlackChannel{Transport: t.Slack})
	}
	if t.Telegram != nil {
		channels[ChannelTelegram] = Static(TelegramChannel{Transport: t.Telegram})
	}
	if t.Database != nil {
		channels[ChannelDatabase] = Static(DatabaseChannel{Writer: t.Database, IDs: t.IDs, Now: t.Now})
	}
	return channels
}
