package suppression

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ward-notify-api/internal/domain"
)

// StateStore is the remote persistence surface for the per-user session slot.
type StateStore interface {
	Save(ctx context.Context, s *domain.SuppressionState) error
	Load(ctx context.Context, userID string) (*domain.SuppressionState, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	Delete(ctx context.Context, userID string) error
}

// Decision is the outcome of a suppression check.
type Decision struct {
	Allow  bool   `json:"allow"`
	Reason string `json:"reason"`
}

// Manager gates contextual previous-data notifications so a user is prompted
// at most once per login session per ward/date context. The remote slot is
// the source of truth; the in-memory state is a cache that is re-validated
// against the slot on every check, so a newer session persisted by another
// instance takes authority over a stale local copy.
type Manager struct {
	mu    sync.Mutex
	store StateStore
	log   *slog.Logger
	state *domain.SuppressionState
}

func NewManager(store StateStore, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{store: store, log: log}
}

// ShouldNotify reports whether a previous-data notification may fire for the
// given ward/date context in the current session.
func (m *Manager) ShouldNotify(ctx context.Context, userID, ward, date string) (Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureSession(ctx, userID); err != nil {
		return Decision{}, err
	}

	if m.state.HasWard(ward) && m.state.HasDate(date) {
		return Decision{Allow: false, Reason: "context already notified this session"}, nil
	}
	if m.state.HasCheckedPreviousData {
		return Decision{Allow: false, Reason: "session already notified"}, nil
	}

	remote, err := m.store.Load(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		// No persisted slot yet; local state stands.
	case err != nil:
		// Suppression is best-effort: on a store failure, allow rather than
		// silently swallow a notification the user may need.
		m.log.Warn("suppression slot load failed", "user_id", userID, "err", err)
	case remote.SessionID != m.state.SessionID:
		// A newer session was persisted elsewhere; it takes authority.
		m.state = remote
		if m.state.HasWard(ward) && m.state.HasDate(date) {
			return Decision{Allow: false, Reason: "context already notified this session"}, nil
		}
		if m.state.HasCheckedPreviousData {
			return Decision{Allow: false, Reason: "session already notified"}, nil
		}
	case remote.HasCheckedPreviousData:
		m.state = remote
		return Decision{Allow: false, Reason: "session already notified"}, nil
	}

	return Decision{Allow: true, Reason: "not yet notified this session"}, nil
}

// MarkSent records that a notification fired for the given context: it sets
// the session-wide checked flag, tracks the ward/date pair and persists the
// updated slot.
func (m *Manager) MarkSent(ctx context.Context, userID, ward, date string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureSession(ctx, userID); err != nil {
		return err
	}
	m.state.HasCheckedPreviousData = true
	m.state.Track(ward, date)
	m.state.LastDataCheckTime = time.Now().UTC()

	return m.store.Update(ctx, userID, map[string]interface{}{
		"session_id":                m.state.SessionID,
		"has_checked_previous_data": m.state.HasCheckedPreviousData,
		"checked_wards":             m.state.CheckedWards,
		"checked_dates":             m.state.CheckedDates,
		"last_data_check_time":      m.state.LastDataCheckTime.Format(time.RFC3339Nano),
	})
}

// HandleRelatedDataDeletion reopens the suppression window for a context pair
// once the data the notification described no longer exists. When both
// tracked sets drain empty the session-wide flag clears too.
func (m *Manager) HandleRelatedDataDeletion(ctx context.Context, ward, date string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == nil {
		return nil
	}
	m.state.Untrack(ward, date)

	return m.store.Update(ctx, m.state.UserID, map[string]interface{}{
		"has_checked_previous_data": m.state.HasCheckedPreviousData,
		"checked_wards":             m.state.CheckedWards,
		"checked_dates":             m.state.CheckedDates,
	})
}

// ClearSession drops the in-memory state and removes the persisted slot.
// Invoked on logout.
func (m *Manager) ClearSession(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = nil
	return m.store.Delete(ctx, userID)
}

// ensureSession initializes a fresh session for userID if none exists or the
// current one belongs to another user. Callers must hold the lock.
func (m *Manager) ensureSession(ctx context.Context, userID string) error {
	if m.state != nil && m.state.UserID == userID {
		return nil
	}
	s := &domain.SuppressionState{
		UserID:    userID,
		SessionID: domain.SuppressionSessionID(userID, time.Now()),
	}
	if err := m.store.Save(ctx, s); err != nil {
		return err
	}
	m.state = s
	return nil
}
