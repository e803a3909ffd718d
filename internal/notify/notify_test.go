package notify

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bowphp/framework-sub003/internal/container"
	"github.com/bowphp/framework-sub003/internal/entity"
	"github.com/bowphp/framework-sub003/internal/errs"
	"github.com/bowphp/framework-sub003/internal/ir"
	"github.com/bowphp/framework-sub003/internal/metrics"
	"github.com/bowphp/framework-sub003/internal/store"
)

var users = entity.Schema{Table: "users"}

func ada() Notifiable {
	return EntityNotifiable{entity.Hydrate(users, ir.IRObject{
		"id":    ir.IRInt(7),
		"email": ir.IRString("ada@example.com"),
	})}
}

type invoicePaid struct {
	Base
	channels []string
	invoice  int64
}

func (m invoicePaid) Channels(Notifiable) []string { return m.channels }

func (m invoicePaid) ToMail(n Notifiable) MailMessage {
	e := n.(EntityNotifiable)
	return MailMessage{To: ir.Format(e.Get("email")), Subject: "Invoice paid"}
}

func (m invoicePaid) ToDatabase(Notifiable) ir.IRObject {
	return ir.IRObject{"invoice": ir.IRInt(m.invoice), "paid": ir.IRBool(true)}
}

type namedMessage struct {
	Base
}

func (namedMessage) Channels(Notifiable) []string { return nil }
func (namedMessage) MessageName() string          { return "billing.reminder" }

// recorder is a transport and a writer that logs every call in order.
type recorder struct {
	mu    sync.Mutex
	calls []string
	mails []MailMessage
	rows  []store.Notification
	fail  map[string]error
}

func (r *recorder) record(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
	return r.fail[name]
}

func (r *recorder) SendMail(_ context.Context, m MailMessage) error {
	r.mu.Lock()
	r.mails = append(r.mails, m)
	r.mu.Unlock()
	return r.record(ChannelMail)
}

func (r *recorder) WriteNotification(_ context.Context, n store.Notification) error {
	r.mu.Lock()
	r.rows = append(r.rows, n)
	r.mu.Unlock()
	return r.record(ChannelDatabase)
}

func (r *recorder) SendSms(context.Context, SmsMessage) error { return r.record(ChannelSms) }

func newMessaging(t *testing.T, channels map[string]ChannelFactory, opts ...Option) *Messaging {
	t.Helper()
	reg := NewRegistry()
	require.NoError(t, reg.PushChannels(channels))
	return NewMessaging(reg, opts...)
}

func TestProcess_UnregisteredChannelIsSkipped(t *testing.T) {
	rec := &recorder{}
	m := newMessaging(t, map[string]ChannelFactory{
		ChannelMail: Static(MailChannel{Transport: rec}),
	})

	err := m.Process(context.Background(), ada(), invoicePaid{channels: []string{"mail", "database"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"mail"}, rec.calls)
	require.Len(t, rec.mails, 1)
	assert.Equal(t, "ada@example.com", rec.mails[0].To)
}

func TestProcess_DeclarationOrder(t *testing.T) {
	rec := &recorder{}
	m := newMessaging(t, BuiltinChannels(Transports{
		Mail:     rec,
		Database: rec,
		IDs:      NewFixedGenerator("n-1"),
	}))

	err := m.Process(context.Background(), ada(), invoicePaid{channels: []string{"database", "mail"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"database", "mail"}, rec.calls)

	err = m.Process(context.Background(), ada(), invoicePaid{channels: []string{}})
	require.NoError(t, err)
	assert.Len(t, rec.calls, 2)
}

func TestProcess_AttemptsEveryChannelAndJoinsErrors(t *testing.T) {
	boom := errors.New("smtp down")
	rec := &recorder{fail: map[string]error{ChannelMail: boom}}
	collector := metrics.NewCollector("test")
	m := newMessaging(t, BuiltinChannels(Transports{
		Mail:     rec,
		Database: rec,
		IDs:      NewFixedGenerator("n-1"),
	}), WithMetrics(collector))

	err := m.Process(context.Background(), ada(), invoicePaid{channels: []string{"mail", "database"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "channel mail")
	assert.Equal(t, []string{"mail", "database"}, rec.calls)

	count, err := testutil.GatherAndCount(collector.Registry(), "test_notify_sends_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestProcess_FactoryErrorIsReported(t *testing.T) {
	m := newMessaging(t, map[string]ChannelFactory{
		"broken": func() (Channel, error) { return nil, errs.Configf("test", "no transport") },
	})

	err := m.Process(context.Background(), ada(), invoicePaid{channels: []string{"broken"}})
	assert.True(t, errs.IsConfiguration(err))
}

func TestSmsChannel_RequiresRecipient(t *testing.T) {
	rec := &recorder{}
	err := SmsChannel{Transport: rec}.Send(context.Background(), ada(), invoicePaid{})
	assert.True(t, errs.IsConfiguration(err))
	assert.Empty(t, rec.calls)
}

func TestDatabaseChannel_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(filepath.Join(t.TempDir(), "notify.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	created := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	m := newMessaging(t, BuiltinChannels(Transports{
		Database: s,
		IDs:      NewFixedGenerator("0190a6e4-0000-7000-8000-000000000001"),
		Now:      func() time.Time { return created },
	}))

	msg := invoicePaid{channels: []string{"database"}, invoice: 1042}
	require.NoError(t, m.Process(ctx, ada(), msg))

	got, err := s.ReadNotifications(ctx, "users", "7")
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, "0190a6e4-0000-7000-8000-000000000001", got[0].ID)
	assert.Equal(t, "invoicePaid", got[0].Type)
	assert.True(t, created.Equal(got[0].CreatedAt))

	want, err := ir.MarshalStorage(msg.ToDatabase(ada()))
	require.NoError(t, err)
	back, err := ir.MarshalStorage(got[0].Data)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(back))
}

func TestMessageName(t *testing.T) {
	assert.Equal(t, "invoicePaid", MessageName(invoicePaid{}))
	assert.Equal(t, "invoicePaid", MessageName(&invoicePaid{}))
	assert.Equal(t, "billing.reminder", MessageName(namedMessage{}))
}

func TestEntityNotifiable(t *testing.T) {
	n := ada()
	assert.Equal(t, "users", n.NotifiableType())
	assert.Equal(t, "7", n.NotifiableID())
}

func TestRegistry_PushChannelsIsAdditive(t *testing.T) {
	reg := NewRegistry()
	rec := &recorder{}
	require.NoError(t, reg.PushChannels(map[string]ChannelFactory{"mail": Static(MailChannel{Transport: rec})}))
	require.NoError(t, reg.PushChannels(map[string]ChannelFactory{"sms": Static(SmsChannel{Transport: rec})}))

	assert.Equal(t, []string{"mail", "sms"}, reg.Names())

	_, ok := reg.Lookup("mail")
	assert.True(t, ok)
	_, ok = reg.Lookup("slack")
	assert.False(t, ok)
}

func TestRegistry_Frozen(t *testing.T) {
	reg := NewRegistry()
	reg.Freeze()

	err := reg.PushChannels(map[string]ChannelFactory{"mail": Static(MailChannel{})})
	assert.ErrorIs(t, err, errs.ErrFrozen)
	assert.Empty(t, reg.Names())
}

func TestRegistry_RejectsNilFactory(t *testing.T) {
	reg := NewRegistry()
	err := reg.PushChannels(map[string]ChannelFactory{"mail": nil})
	assert.True(t, errs.IsConfiguration(err))
}

func TestFromContainer(t *testing.T) {
	rec := &recorder{}
	c := container.New()
	c.Instance("channels.mail", MailChannel{Transport: rec})
	c.Instance("not-a-channel", 42)

	m := newMessaging(t, map[string]ChannelFactory{
		"mail":  FromContainer(c, "channels.mail"),
		"bogus": FromContainer(c, "not-a-channel"),
	})

	require.NoError(t, m.Process(context.Background(), ada(), invoicePaid{channels: []string{"mail"}}))
	assert.Equal(t, []string{"mail"}, rec.calls)

	err := m.Process(context.Background(), ada(), invoicePaid{channels: []string{"bogus"}})
	assert.True(t, errs.IsConfiguration(err))
}

func TestLogTransport(t *testing.T) {
	ctx := context.Background()
	var tr LogTransport
	assert.NoError(t, tr.SendMail(ctx, MailMessage{To: "a@b"}))
	assert.NoError(t, tr.SendSms(ctx, SmsMessage{To: "+1"}))
	assert.NoError(t, tr.PostSlack(ctx, SlackMessage{Channel: "#ops"}))
	assert.NoError(t, tr.SendTelegram(ctx, TelegramMessage{ChatID: "1"}))
}

func TestFixedGenerator(t *testing.T) {
	g := NewFixedGenerator("a", "b")
	assert.Equal(t, "a", g.Generate())
	assert.Equal(t, "b", g.Generate())
	assert.Panics(t, func() { g.Generate() })
}

func TestUUIDv7Generator(t *testing.T) {
	var g UUIDv7Generator
	a, b := g.Generate(), g.Generate()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
