// Package agent implements the client-side notification agent: a debounced,
// request-coalescing, cancellable fetch/poll loop with optimistic local
// mutation, driven against the notification API.
package agent

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ward-notify-api/internal/domain"
)

// FetchState is the state of the current logical fetch.
type FetchState int

const (
	FetchIdle FetchState = iota
	Fetching
	FetchSuccess
	FetchError
)

// PollState is the state of the background poll loop.
type PollState int

const (
	PollIdle PollState = iota
	Polling
	Backoff
)

// ErrClosed is returned once Close has been called.
var ErrClosed = errors.New("agent closed")

// API is the server surface the agent drives. *Client satisfies it; tests
// substitute fakes.
type API interface {
	FetchNotifications(ctx context.Context) (*FetchResult, error)
	FetchUnreadCount(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
	Delete(ctx context.Context, id string) error
}

// Options tunes the agent's cadences. Zero values take the defaults.
type Options struct {
	OpenInterval   time.Duration // poll cadence while the view is open (default 180s)
	ClosedInterval time.Duration // unread-count cadence while closed (default 300s)
	RetryDelay     time.Duration // delay before the single retry after a failed poll (default 5s)
	Debounce       time.Duration // minimum gap after a completed fetch before a non-forced re-fetch (default 2s)
	CoalesceWindow time.Duration // window during which concurrent callers join the pending fetch (default 5s)
	Logger         *slog.Logger
}

func (o *Options) withDefaults() {
	if o.OpenInterval <= 0 {
		o.OpenInterval = 180 * time.Second
	}
	if o.ClosedInterval <= 0 {
		o.ClosedInterval = 300 * time.Second
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 5 * time.Second
	}
	if o.Debounce <= 0 {
		o.Debounce = 2 * time.Second
	}
	if o.CoalesceWindow <= 0 {
		o.CoalesceWindow = 5 * time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// inflightFetch is the shared handle for one underlying network fetch.
// Coalesced callers wait on done and read result/err afterwards.
type inflightFetch struct {
	started time.Time
	cancel  context.CancelFunc
	done    chan struct{}
	result  *FetchResult
	err     error
}

// Agent holds the local notification snapshot and the fetch/poll state
// machines for one logged-in user.
type Agent struct {
	api  API
	opts Options
	log  *slog.Logger

	mu            sync.Mutex
	fetchState    FetchState
	pollState     PollState
	notifications []domain.UserNotificationView
	unreadCount   int
	lastErr       error
	lastFetchDone time.Time
	viewOpen      bool
	closed        bool
	inflight      *inflightFetch
	stopPoll      context.CancelFunc

	kick chan struct{}
}

// New creates an agent over the given API.
func New(api API, opts Options) *Agent {
	opts.withDefaults()
	return &Agent{
		api:  api,
		opts: opts,
		log:  opts.Logger,
		kick: make(chan struct{}, 1),
	}
}

// Refresh fetches the notification snapshot. Non-forced calls join a pending
// fetch started within the coalesce window, and are refused (returning the
// cached snapshot) when the previous fetch completed less than the debounce
// interval ago. Forced calls bypass both and cancel any in-flight fetch.
func (a *Agent) Refresh(ctx context.Context, force bool) (*FetchResult, error) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil, ErrClosed
	}
	if !force {
		if f := a.inflight; f != nil && time.Since(f.started) < a.opts.CoalesceWindow {
			a.mu.Unlock()
			return a.await(ctx, f)
		}
		if !a.lastFetchDone.IsZero() && time.Since(a.lastFetchDone) < a.opts.Debounce {
			res := a.snapshotLocked()
			a.mu.Unlock()
			return res, nil
		}
	}
	f := a.startFetchLocked()
	a.mu.Unlock()
	return a.await(ctx, f)
}

// Snapshot returns the current local notification list and unread count.
func (a *Agent) Snapshot() *FetchResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

// UnreadCount returns the locally known unread count.
func (a *Agent) UnreadCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.unreadCount
}

// States returns the current fetch and poll states.
func (a *Agent) States() (FetchState, PollState) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fetchState, a.pollState
}

// SetViewOpen switches the polling cadence. Closing the view cancels any
// in-flight fetch.
func (a *Agent) SetViewOpen(open bool) {
	a.mu.Lock()
	a.viewOpen = open
	if !open {
		a.cancelInflightLocked()
	}
	a.mu.Unlock()
	a.wakePoll()
}

// Close cancels any in-flight fetch and stops the poll loop. The agent cannot
// be reused afterwards.
func (a *Agent) Close() {
	a.mu.Lock()
	a.closed = true
	a.cancelInflightLocked()
	stop := a.stopPoll
	a.stopPoll = nil
	a.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// StartPolling launches the background poll loop: a full fetch every
// OpenInterval while the view is open, an unread-count refresh every
// ClosedInterval while closed. A failed poll schedules exactly one retry
// after RetryDelay, then the normal cadence resumes regardless of outcome.
func (a *Agent) StartPolling(ctx context.Context) {
	a.mu.Lock()
	if a.closed || a.stopPoll != nil {
		a.mu.Unlock()
		return
	}
	pctx, cancel := context.WithCancel(ctx)
	a.stopPoll = cancel
	a.pollState = Polling
	a.mu.Unlock()
	go a.pollLoop(pctx)
}

// MarkRead marks one notification read on the server, then applies the same
// change to the local snapshot.
func (a *Agent) MarkRead(ctx context.Context, id string) error {
	if err := a.api.MarkRead(ctx, id); err != nil {
		a.log.Error("mark read failed", "notification_id", id, "error", err)
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.notifications {
		if a.notifications[i].NotificationID == id && !a.notifications[i].IsRead {
			a.notifications[i].IsRead = true
			if a.unreadCount > 0 {
				a.unreadCount--
			}
		}
	}
	return nil
}

// MarkAllRead marks everything read on the server and locally.
func (a *Agent) MarkAllRead(ctx context.Context) error {
	if err := a.api.MarkAllRead(ctx); err != nil {
		a.log.Error("mark all read failed", "error", err)
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.notifications {
		a.notifications[i].IsRead = true
	}
	a.unreadCount = 0
	return nil
}

// Delete removes one notification on the server and from the local snapshot.
// A "not found" from the server means the row is already gone; that is
// reconciled locally and not surfaced as an error.
func (a *Agent) Delete(ctx context.Context, id string) error {
	if err := a.api.Delete(ctx, id); err != nil {
		if !errors.Is(err, ErrNotFound) {
			a.log.Error("delete failed", "notification_id", id, "error", err)
			return err
		}
		a.log.Debug("delete target already gone", "notification_id", id)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.removeLocked(id)
	return nil
}

func (a *Agent) snapshotLocked() *FetchResult {
	list := make([]domain.UserNotificationView, len(a.notifications))
	copy(list, a.notifications)
	return &FetchResult{Notifications: list, UnreadCount: a.unreadCount}
}

// startFetchLocked cancels any prior in-flight fetch and launches a new one.
// The fetch runs on its own context, detached from any single caller: several
// coalesced callers may be waiting on it.
func (a *Agent) startFetchLocked() *inflightFetch {
	a.cancelInflightLocked()
	fctx, cancel := context.WithCancel(context.Background())
	f := &inflightFetch{started: time.Now(), cancel: cancel, done: make(chan struct{})}
	a.inflight = f
	a.fetchState = Fetching
	go a.runFetch(fctx, f)
	return f
}

func (a *Agent) cancelInflightLocked() {
	if f := a.inflight; f != nil {
		f.cancel()
		a.inflight = nil
	}
}

func (a *Agent) runFetch(ctx context.Context, f *inflightFetch) {
	res, err := a.api.FetchNotifications(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	// A cancelled fetch must not touch shared state: a newer fetch owns it.
	if ctx.Err() != nil {
		f.err = ctx.Err()
		close(f.done)
		return
	}
	if a.inflight == f {
		a.inflight = nil
	}
	a.lastFetchDone = time.Now()
	if err != nil {
		a.fetchState = FetchError
		a.lastErr = err
		a.log.Warn("notification fetch failed", "error", err)
		f.err = err
		close(f.done)
		return
	}
	a.fetchState = FetchSuccess
	a.lastErr = nil
	a.notifications = res.Notifications
	a.unreadCount = res.UnreadCount
	f.result = res
	close(f.done)
}

func (a *Agent) await(ctx context.Context, f *inflightFetch) (*FetchResult, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-f.done:
		return f.result, f.err
	}
}

func (a *Agent) removeLocked(id string) {
	for i := range a.notifications {
		if a.notifications[i].NotificationID != id {
			continue
		}
		if !a.notifications[i].IsRead && a.unreadCount > 0 {
			a.unreadCount--
		}
		a.notifications = append(a.notifications[:i], a.notifications[i+1:]...)
		return
	}
}

func (a *Agent) wakePoll() {
	select {
	case a.kick <- struct{}{}:
	default:
	}
}

func (a *Agent) interval() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.viewOpen {
		return a.opts.OpenInterval
	}
	return a.opts.ClosedInterval
}

func (a *Agent) setPollState(s PollState) {
	a.mu.Lock()
	a.pollState = s
	a.mu.Unlock()
}

func (a *Agent) pollLoop(ctx context.Context) {
	timer := time.NewTimer(a.interval())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			a.setPollState(PollIdle)
			return
		case <-a.kick:
			// Cadence changed: rearm with the new interval.
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(a.interval())
		case <-timer.C:
			if err := a.pollOnce(ctx); err != nil {
				a.setPollState(Backoff)
				select {
				case <-ctx.Done():
					a.setPollState(PollIdle)
					return
				case <-time.After(a.opts.RetryDelay):
				}
				if rerr := a.pollOnce(ctx); rerr != nil {
					a.log.Warn("poll retry failed", "error", rerr)
				}
				a.setPollState(Polling)
			}
			timer.Reset(a.interval())
		}
	}
}

// pollOnce does a full snapshot fetch while the view is open, or a lightweight
// unread-count refresh while closed.
func (a *Agent) pollOnce(ctx context.Context) error {
	a.mu.Lock()
	open := a.viewOpen
	a.mu.Unlock()
	if open {
		_, err := a.Refresh(ctx, false)
		return err
	}
	count, err := a.api.FetchUnreadCount(ctx)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.unreadCount = count
	a.mu.Unlock()
	return nil
}
