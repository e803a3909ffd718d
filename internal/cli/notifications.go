package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bowphp/framework-sub003/internal/ir"
)

// NotificationView is one stored notification in command output.
type NotificationView struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Data      ir.IRObject `json:"data"`
	ReadAt    *time.Time  `json:"read_at,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// NewNotificationsCommand creates the notifications command.
func NewNotificationsCommand(rootOpts *RootOptions) *cobra.Command {
	var unread bool

	cmd := &cobra.Command{
		Use:   "notifications <table> <key>",
		Short: "List database notifications of a notifiable",
		Long: `Print the notifications stored by the database channel for the
notifiable identified by <table> and <key>, oldest first.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNotifications(rootOpts, cmd, args[0], args[1], unread)
		},
	}

	cmd.Flags().BoolVar(&unread, "unread", false, "only list unread notifications")

	return cmd
}

func runNotifications(opts *RootOptions, cmd *cobra.Command, table, key string, unread bool) error {
	formatter := opts.formatter(cmd)
	cfg, err := opts.loadConfig(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	st, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	stored, err := st.ReadNotifications(cmd.Context(), table, key)
	if err != nil {
		return formatter.Fail(ExitFailure, "failed to read notifications", err)
	}

	views := make([]NotificationView, 0, len(stored))
	lines := make([]string, 0, len(stored)+1)
	for _, n := range stored {
		if unread && !n.Unread() {
			continue
		}
		views = append(views, NotificationView{
			ID:        n.ID,
			Type:      n.Type,
			Data:      n.Data,
			ReadAt:    n.ReadAt,
			CreatedAt: n.CreatedAt,
		})
		lines = append(lines, fmt.Sprintf("%s  %s  %s  %s",
			n.CreatedAt.Format(time.RFC3339), n.ID, n.Type, ir.Format(n.Data)))
	}
	if len(views) == 0 {
		lines = append(lines, fmt.Sprintf("No notifications for %s %s", table, key))
	}

	return formatter.Success(views, lines...)
}
