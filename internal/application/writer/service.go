package writer

import (
	"context"
	"log/slog"
	"time"

	"github.com/ward-notify-api/internal/application/dedup"
	"github.com/ward-notify-api/internal/domain"
	"github.com/ward-notify-api/internal/infrastructure/smtp"
	"github.com/ward-notify-api/internal/infrastructure/sns"
	"github.com/ward-notify-api/internal/pkg/id"
	"github.com/ward-notify-api/internal/pkg/validate"
)

// Status classifies a creation outcome. Create never returns a Go error:
// notification delivery is best-effort and must not break the caller's
// primary workflow, so failures come back as a sentinel status.
type Status string

const (
	StatusCreated   Status = "created"
	StatusDuplicate Status = "duplicate"
	StatusFailed    Status = "failed"
)

// CreateResult is the outcome of a creation call. NotificationID carries the
// new row's id on StatusCreated, and the pre-existing row's id on a
// store-confirmed StatusDuplicate.
type CreateResult struct {
	Status         Status `json:"status"`
	NotificationID string `json:"id,omitempty"`
}

// CreateInput is the creation request.
type CreateInput struct {
	Type         domain.NotificationType `json:"type" validate:"required"`
	Title        string                  `json:"title" validate:"required"`
	Message      string                  `json:"message" validate:"required"`
	RecipientIDs []string                `json:"recipient_ids" validate:"required,min=1,dive,required"`
	CreatedBy    string                  `json:"created_by" validate:"required"`
	ActionURL    string                  `json:"action_url"`
	Sender       *domain.Sender          `json:"sender"`
}

// NotificationStore is the minimal store surface the writer needs.
type NotificationStore interface {
	Put(ctx context.Context, n *domain.Notification) error
	QueryRecentByDedupKey(ctx context.Context, dedupKey string, since time.Time) ([]domain.Notification, error)
}

type Service interface {
	Create(ctx context.Context, in CreateInput) CreateResult
}

// Deps wires the writer's collaborators. Push and Mailer are optional
// delivery channels; when nil the corresponding fan-out is skipped.
type Deps struct {
	Store    NotificationStore
	Cache    *dedup.Cache
	Window   time.Duration
	Logger   *slog.Logger
	Push     sns.PushPublisher
	Mailer   smtp.Mailer
	OpsEmail string
}

type service struct {
	store    NotificationStore
	cache    *dedup.Cache
	window   time.Duration
	log      *slog.Logger
	push     sns.PushPublisher
	mailer   smtp.Mailer
	opsEmail string
}

func NewService(d Deps) Service {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	return &service{
		store:    d.Store,
		cache:    d.Cache,
		window:   d.Window,
		log:      log,
		push:     d.Push,
		mailer:   d.Mailer,
		opsEmail: d.OpsEmail,
	}
}

func (s *service) Create(ctx context.Context, in CreateInput) CreateResult {
	if err := validate.Struct(in); err != nil {
		s.log.Error("notification create rejected", "err", err)
		return CreateResult{Status: StatusFailed}
	}

	senderID := ""
	if in.Sender != nil {
		senderID = in.Sender.ID
	}
	hash := domain.ContentHash(in.Type, in.Title, in.Message, in.RecipientIDs, in.ActionURL, senderID)

	if existingID, ok := s.cache.Lookup(hash); ok {
		return CreateResult{Status: StatusDuplicate, NotificationID: existingID}
	}

	dedupKey := domain.DedupKey(in.Type, in.Title, in.Message)
	recent, err := s.store.QueryRecentByDedupKey(ctx, dedupKey, time.Now().Add(-s.window))
	if err != nil {
		s.log.Error("dedup window query failed", "dedup_key", dedupKey, "err", err)
		return CreateResult{Status: StatusFailed}
	}
	for i := range recent {
		if recent[i].OverlapsRecipients(in.RecipientIDs) {
			s.cache.Seed(hash, recent[i].NotificationID)
			return CreateResult{Status: StatusDuplicate, NotificationID: recent[i].NotificationID}
		}
	}

	n := &domain.Notification{
		NotificationID: id.New(),
		Type:           in.Type,
		Title:          in.Title,
		Message:        in.Message,
		RecipientIDs:   in.RecipientIDs,
		ReadState:      domain.NewReadState(in.RecipientIDs),
		CreatedAt:      time.Now().UTC(),
		CreatedBy:      in.CreatedBy,
		ActionURL:      in.ActionURL,
		Sender:         in.Sender,
		ContentHash:    hash,
		DedupKey:       dedupKey,
	}
	if err := s.store.Put(ctx, n); err != nil {
		s.log.Error("notification persist failed", "notification_id", n.NotificationID, "err", err)
		return CreateResult{Status: StatusFailed}
	}
	s.cache.Seed(hash, n.NotificationID)

	s.fanOut(ctx, n)

	return CreateResult{Status: StatusCreated, NotificationID: n.NotificationID}
}

// fanOut mirrors the created row to the optional delivery channels.
// Failures are logged and dropped; the row is already persisted.
func (s *service) fanOut(ctx context.Context, n *domain.Notification) {
	if s.push != nil {
		if err := s.push.Publish(ctx, n); err != nil {
			s.log.Warn("push fan-out failed", "notification_id", n.NotificationID, "err", err)
		}
	}
	if s.mailer != nil && s.opsEmail != "" && n.Type == domain.TypeSystem {
		if err := s.mailer.SendEmail(s.opsEmail, n.Title, n.Message); err != nil {
			s.log.Warn("ops email fan-out failed", "notification_id", n.NotificationID, "err", err)
		}
	}
}
