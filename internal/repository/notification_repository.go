package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ndewijer/portfolio-analytics/internal/model"
)

// NotificationRepository stores user notifications in the notification table.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository creates a new NotificationRepository with the provided database connection.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Notify records an unread notification for userID.
func (r *NotificationRepository) Notify(ctx context.Context, userID, message string) error {
	query := `
		INSERT INTO notification (id, user_id, message, is_read, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		uuid.New().String(),
		userID,
		message,
		false,
		FormatTimestamp(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// GetNotifications retrieves the notifications of a user, newest first.
func (r *NotificationRepository) GetNotifications(ctx context.Context, userID string) ([]model.Notification, error) {
	query := `
		SELECT id, user_id, message, is_read, created_at
		FROM notification
		WHERE user_id = ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notification table: %w", err)
	}
	defer rows.Close()

	notifications := []model.Notification{}

	for rows.Next() {
		var n model.Notification
		var createdAt string

		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.IsRead, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification table results: %w", err)
		}
		if n.CreatedAt, err = ParseTime(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse notification created_at: %w", err)
		}

		notifications = append(notifications, n)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification table: %w", err)
	}

	return notifications, nil
}
