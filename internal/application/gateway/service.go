package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/ward-notify-api/internal/domain"
)

// Snapshot is the per-user read-state projection returned to clients.
type Snapshot struct {
	Notifications []domain.UserNotificationView `json:"notifications"`
	UnreadCount   int                           `json:"unread_count"`
}

// NotificationStore is the minimal store surface the gateway needs.
type NotificationStore interface {
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	ListByRecipient(ctx context.Context, userID string) ([]domain.Notification, error)
	MarkRead(ctx context.Context, notificationID, userID string) error
	Delete(ctx context.Context, notificationID string) error
}

// Archiver stores a snapshot of bulk-deleted rows before removal.
type Archiver interface {
	ArchiveDeleted(ctx context.Context, userID string, rows []domain.Notification) error
}

type Service interface {
	GetForUser(ctx context.Context, userID string) (*Snapshot, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID, notificationID string) (int, error)
	DeleteAll(ctx context.Context, userID string) (int, error)
	DeleteByType(ctx context.Context, userID string, typ domain.NotificationType) (int, error)
}

type service struct {
	store    NotificationStore
	archiver Archiver // optional
	log      *slog.Logger
}

// NewService builds the gateway. archiver may be nil, in which case bulk
// deletions skip the audit archive.
func NewService(store NotificationStore, archiver Archiver, log *slog.Logger) Service {
	if log == nil {
		log = slog.Default()
	}
	return &service{store: store, archiver: archiver, log: log}
}

func (s *service) GetForUser(ctx context.Context, userID string) (*Snapshot, error) {
	rows, err := s.store.ListByRecipient(ctx, userID)
	if err != nil {
		return nil, err
	}
	sortRows(rows)

	snap := &Snapshot{Notifications: make([]domain.UserNotificationView, 0, len(rows))}
	for i := range rows {
		view := rows[i].View(userID)
		if !view.IsRead {
			snap.UnreadCount++
		}
		snap.Notifications = append(snap.Notifications, view)
	}
	return snap, nil
}

func (s *service) CountUnread(ctx context.Context, userID string) (int, error) {
	rows, err := s.store.ListByRecipient(ctx, userID)
	if err != nil {
		return 0, err
	}
	count := 0
	for i := range rows {
		if !rows[i].ReadState[userID] {
			count++
		}
	}
	return count, nil
}

func (s *service) MarkRead(ctx context.Context, userID, notificationID string) error {
	n, err := s.store.Get(ctx, notificationID)
	if err != nil {
		return err
	}
	if !n.HasRecipient(userID) {
		return fmt.Errorf("not a recipient: %w", domain.ErrForbidden)
	}
	return s.store.MarkRead(ctx, notificationID, userID)
}

func (s *service) MarkAllRead(ctx context.Context, userID string) error {
	rows, err := s.store.ListByRecipient(ctx, userID)
	if err != nil {
		return err
	}
	var firstErr error
	for i := range rows {
		if rows[i].ReadState[userID] {
			continue
		}
		if err := s.store.MarkRead(ctx, rows[i].NotificationID, userID); err != nil {
			s.log.Warn("mark-read failed during mark-all", "notification_id", rows[i].NotificationID, "user_id", userID, "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Delete removes the entire row, for every recipient, once any one recipient
// deletes it. Deleting an id that no longer exists counts as already done.
func (s *service) Delete(ctx context.Context, userID, notificationID string) (int, error) {
	n, err := s.store.Get(ctx, notificationID)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if !n.HasRecipient(userID) {
		return 0, fmt.Errorf("not a recipient: %w", domain.ErrForbidden)
	}
	if err := s.store.Delete(ctx, notificationID); err != nil {
		return 0, err
	}
	return 1, nil
}

func (s *service) DeleteAll(ctx context.Context, userID string) (int, error) {
	rows, err := s.store.ListByRecipient(ctx, userID)
	if err != nil {
		return 0, err
	}
	return s.deleteRows(ctx, userID, rows)
}

func (s *service) DeleteByType(ctx context.Context, userID string, typ domain.NotificationType) (int, error) {
	rows, err := s.store.ListByRecipient(ctx, userID)
	if err != nil {
		return 0, err
	}
	var matched []domain.Notification
	for i := range rows {
		if rows[i].Type == typ {
			matched = append(matched, rows[i])
		}
	}
	return s.deleteRows(ctx, userID, matched)
}

func (s *service) deleteRows(ctx context.Context, userID string, rows []domain.Notification) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if s.archiver != nil {
		if err := s.archiver.ArchiveDeleted(ctx, userID, rows); err != nil {
			s.log.Warn("archive of deleted notifications failed", "user_id", userID, "count", len(rows), "err", err)
		}
	}
	deleted := 0
	var firstErr error
	for i := range rows {
		if err := s.store.Delete(ctx, rows[i].NotificationID); err != nil {
			s.log.Warn("delete failed during bulk delete", "notification_id", rows[i].NotificationID, "err", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		deleted++
	}
	return deleted, firstErr
}

// sortRows orders newest first; equal timestamps fall back to id so the order
// is stable across calls.
func sortRows(rows []domain.Notification) {
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].NotificationID > rows[j].NotificationID
	})
}
