package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/bowphp/framework-sub003/internal/errs"
	"github.com/bowphp/framework-sub003/internal/ir"
)

// Notification is one database-channel notification row.
type Notification struct {
	ID             string
	Type           string
	NotifiableType string
	NotifiableID   string
	Data           ir.IRObject
	ReadAt         *time.Time
	CreatedAt      time.Time
}

// Unread reports whether the notification has not been marked read.
func (n Notification) Unread() bool {
	return n.ReadAt == nil
}

type notificationRow struct {
	ID             string         `db:"id"`
	Type           string         `db:"type"`
	NotifiableType string         `db:"notifiable_type"`
	NotifiableID   string         `db:"notifiable_id"`
	Data           string         `db:"data"`
	ReadAt         sql.NullString `db:"read_at"`
	CreatedAt      string         `db:"created_at"`
}

// WriteNotification inserts a notification. Data is stored as canonical JSON.
// Uses ON CONFLICT(id) DO NOTHING - duplicate IDs are silently ignored.
func (s *Store) WriteNotification(ctx context.Context, n Notification) error {
	data, err := marshalObject(n.Data)
	if err != nil {
		return errs.Store("store.write_notification", err)
	}

	var readAt sql.NullString
	if n.ReadAt != nil {
		readAt = sql.NullString{String: formatTime(*n.ReadAt), Valid: true}
	}

	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO notifications
		(id, type, notifiable_type, notifiable_id, data, read_at, created_at)
		VALUES (:id, :type, :notifiable_type, :notifiable_id, :data, :read_at, :created_at)
		ON CONFLICT(id) DO NOTHING
	`, notificationRow{
		ID:             n.ID,
		Type:           n.Type,
		NotifiableType: n.NotifiableType,
		NotifiableID:   n.NotifiableID,
		Data:           data,
		ReadAt:         readAt,
		CreatedAt:      formatTime(n.CreatedAt),
	})
	if err != nil {
		return errs.Store("store.write_notification", err)
	}
	return nil
}

// ReadNotifications returns every notification addressed to one notifiable,
// oldest first.
//
// Returns an empty slice (not nil) if none exist.
func (s *Store) ReadNotifications(ctx context.Context, notifiableType, notifiableID string) ([]Notification, error) {
	var rows []notificationRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, type, notifiable_type, notifiable_id, data, read_at, created_at
		FROM notifications
		WHERE notifiable_type = ? AND notifiable_id = ?
		ORDER BY rowid ASC
	`, notifiableType, notifiableID)
	if err != nil {
		return nil, errs.Store("store.read_notifications", err)
	}

	result := make([]Notification, 0, len(rows))
	for _, row := range rows {
		n, err := row.toNotification()
		if err != nil {
			return nil, errs.Store("store.read_notifications", err)
		}
		result = append(result, n)
	}
	return result, nil
}

// MarkNotificationRead sets read_at on one notification.
// Returns a NotFound error if the ID does not exist.
func (s *Store) MarkNotificationRead(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET read_at = ? WHERE id = ?`, formatTime(at), id)
	if err != nil {
		return errs.Store("store.mark_notification_read", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errs.Store("store.mark_notification_read", err)
	}
	if n == 0 {
		return errs.NotFoundf("store.mark_notification_read", "notification %s", id)
	}
	return nil
}

func (r notificationRow) toNotification() (Notification, error) {
	data, err := unmarshalObject(r.Data)
	if err != nil {
		return Notification{}, err
	}
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return Notification{}, err
	}

	n := Notification{
		ID:             r.ID,
		Type:           r.Type,
		NotifiableType: r.NotifiableType,
		NotifiableID:   r.NotifiableID,
		Data:           data,
		CreatedAt:      created,
	}
	if r.ReadAt.Valid {
		readAt, err := parseTime(r.ReadAt.String)
		if err != nil {
			return Notification{}, err
		}
		n.ReadAt = &readAt
	}
	return n, nil
}
