package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/bowphp/framework-sub003/internal/config"
	"github.com/bowphp/framework-sub003/internal/ir"
	"github.com/bowphp/framework-sub003/internal/notify"
	"github.com/bowphp/framework-sub003/internal/orm"
	"github.com/bowphp/framework-sub003/internal/store"
)

// NotifyOptions holds flags for the notify command.
type NotifyOptions struct {
	*RootOptions
	Subject  string
	Body     string
	To       string
	Channels []string

	// IDs overrides the job and notification ID generator (for testing).
	IDs notify.IDGenerator
}

// NotifyResult is the notify command output.
type NotifyResult struct {
	Job      string   `json:"job"`
	Status   string   `json:"status"`
	Error    string   `json:"error,omitempty"`
	Channels []string `json:"channels"`
}

// textMessage is a plain message built from command flags.
type textMessage struct {
	notify.Base
	channels []string
	subject  string
	body     string
	to       string
}

func (m textMessage) MessageName() string                { return "cli.message" }
func (m textMessage) Channels(notify.Notifiable) []string { return m.channels }

func (m textMessage) ToMail(notify.Notifiable) notify.MailMessage {
	return notify.MailMessage{To: m.to, Subject: m.subject, Body: m.body}
}

func (m textMessage) ToDatabase(notify.Notifiable) ir.IRObject {
	return ir.IRObject{"subject": ir.IRString(m.subject), "body": ir.IRString(m.body)}
}

func (m textMessage) ToSms(notify.Notifiable) notify.SmsMessage {
	return notify.SmsMessage{To: m.to, Body: m.body}
}

func (m textMessage) ToSlack(notify.Notifiable) notify.SlackMessage {
	return notify.SlackMessage{Channel: m.to, Text: m.body}
}

func (m textMessage) ToTelegram(notify.Notifiable) notify.TelegramMessage {
	return notify.TelegramMessage{ChatID: m.to, Text: m.body}
}

// NewNotifyCommand creates the notify command.
func NewNotifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NotifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "notify <table> <key>",
		Short: "Queue a message for an entity and deliver it",
		Long: `Queue a plain message for the entity of <table> with primary key <key>
and run the delivery worker until the job is done.

Mail, sms, slack and telegram payloads are written to the log. The
database channel stores the message in the notifications table. The job
outcome is recorded in the jobs table.

Example:
  barry notify --config ./config.yaml users 1 --body "Welcome" --channel database
  barry notify --config ./config.yaml users 1 --to ada@example.com --subject Hi --body "Welcome"`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNotify(opts, cmd, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&opts.Body, "body", "", "message body (required)")
	cmd.Flags().StringVar(&opts.Subject, "subject", "", "mail subject")
	cmd.Flags().StringVar(&opts.To, "to", "", "recipient for mail, sms, slack and telegram")
	cmd.Flags().StringSliceVar(&opts.Channels, "channel", nil, "channels to deliver through (default: config channels.enabled)")
	_ = cmd.MarkFlagRequired("body")

	return cmd
}

func runNotify(opts *NotifyOptions, cmd *cobra.Command, table, rawKey string) error {
	formatter := opts.formatter(cmd)
	cfg, err := opts.loadConfig(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	catalog, err := cfg.Catalog()
	if err != nil {
		return formatter.Fail(ExitFailure, "invalid configuration", err)
	}

	st, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	recipient, err := orm.NewRepository(st, catalog).Find(ctx, table, parseKey(rawKey))
	if err != nil {
		return formatter.Fail(ExitFailure, "failed to load notifiable", err)
	}

	ids := opts.IDs
	if ids == nil {
		ids = notify.UUIDv7Generator{}
	}
	messaging, err := newMessaging(cfg, st, ids)
	if err != nil {
		return formatter.Fail(ExitFailure, "invalid channels", err)
	}

	channels := opts.Channels
	if len(channels) == 0 {
		channels = cfg.Channels.Enabled
	}
	msg := textMessage{channels: channels, subject: opts.Subject, body: opts.Body, to: opts.To}

	jobID, err := messaging.Queue(notify.EntityNotifiable{Entity: recipient}, msg)
	if err != nil {
		return formatter.Fail(ExitFailure, "failed to queue message", err)
	}
	messaging.Jobs().Close()

	if err := newWorker(cfg, messaging, st).Run(ctx); err != nil && err != context.Canceled {
		return formatter.Fail(ExitCommandError, "worker stopped", err)
	}

	job, err := findJob(ctx, st, jobID)
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to read job", err)
	}

	result := NotifyResult{Job: job.ID, Status: job.Status, Error: job.Error, Channels: channels}
	if job.Status != store.JobDone {
		_ = formatter.Error(ErrCodeDelivery, fmt.Sprintf("job %s %s: %s", job.ID, job.Status, job.Error), result)
		return NewExitError(ExitFailure, "delivery failed")
	}
	return formatter.Success(result, fmt.Sprintf("Job %s %s via %v", job.ID, job.Status, channels))
}

// newMessaging registers the enabled built-in channels. Remote transports
// write to the log.
func newMessaging(cfg *config.Config, st *store.Store, ids notify.IDGenerator) (*notify.Messaging, error) {
	transport := notify.LogTransport{Logger: slog.Default()}
	builtin := notify.BuiltinChannels(notify.Transports{
		Mail:     transport,
		Sms:      transport,
		Slack:    transport,
		Telegram: transport,
		Database: st,
		IDs:      ids,
	})

	enabled := make(map[string]notify.ChannelFactory, len(cfg.Channels.Enabled))
	for _, name := range cfg.Channels.Enabled {
		enabled[name] = builtin[name]
	}

	registry := notify.NewRegistry()
	if err := registry.PushChannels(enabled); err != nil {
		return nil, err
	}
	registry.Freeze()

	return notify.NewMessaging(registry, notify.WithIDGenerator(ids)), nil
}

func newWorker(cfg *config.Config, m *notify.Messaging, st *store.Store) *notify.Worker {
	opts := []notify.WorkerOption{
		notify.WithRecorder(st),
		notify.WithQueueName(cfg.Channels.Queue),
	}
	if cfg.Channels.RateLimit > 0 {
		opts = append(opts, notify.WithRateLimit(rate.Limit(cfg.Channels.RateLimit), cfg.Channels.Burst))
	}
	return notify.NewWorker(m, opts...)
}

func findJob(ctx context.Context, st *store.Store, id string) (store.Job, error) {
	jobs, err := st.ReadJobs(ctx, "")
	if err != nil {
		return store.Job{}, err
	}
	for _, job := range jobs {
		if job.ID == id {
			return job, nil
		}
	}
	return store.Job{}, fmt.Errorf("job %s was not recorded", id)
}
