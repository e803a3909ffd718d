package notify

import (
	"reflect"

	"github.com/bowphp/framework-sub003/internal/entity"
	"github.com/bowphp/framework-sub003/internal/ir"
)

// Notifiable is the recipient of a message.
type Notifiable interface {
	NotifiableType() string
	NotifiableID() string
}

// EntityNotifiable makes an entity a Notifiable: its table is the type
// and its primary key the ID.
type EntityNotifiable struct {
	*entity.Entity
}

// NotifiableType returns the entity table.
func (e EntityNotifiable) NotifiableType() string {
	return e.Table()
}

// NotifiableID returns the primary key value as text.
func (e EntityNotifiable) NotifiableID() string {
	return ir.Format(e.Key())
}

// Message is one logical notification.
type Message interface {
	// Channels returns the channel names to deliver through, in order.
	Channels(n Notifiable) []string

	ToMail(n Notifiable) MailMessage
	ToDatabase(n Notifiable) ir.IRObject
	ToSms(n Notifiable) SmsMessage
	ToSlack(n Notifiable) SlackMessage
	ToTelegram(n Notifiable) TelegramMessage
}

// Base provides empty renderings for every channel. Embed it and override
// the ones the message uses.
type Base struct{}

func (Base) ToMail(Notifiable) MailMessage         { return MailMessage{} }
func (Base) ToDatabase(Notifiable) ir.IRObject     { return ir.IRObject{} }
func (Base) ToSms(Notifiable) SmsMessage           { return SmsMessage{} }
func (Base) ToSlack(Notifiable) SlackMessage       { return SlackMessage{} }
func (Base) ToTelegram(Notifiable) TelegramMessage { return TelegramMessage{} }

// Named lets a message choose the type stored with database notifications.
type Named interface {
	MessageName() string
}

// MessageName returns the stored type of msg: its MessageName when it
// implements Named, otherwise its Go type name without package.
func MessageName(msg Message) string {
	if named, ok := msg.(Named); ok {
		return named.MessageName()
	}
	t := reflect.TypeOf(msg)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}
