package http

import (
	"github.com/ward-notify-api/internal/application/gateway"
	"github.com/ward-notify-api/internal/application/suppression"
	"github.com/ward-notify-api/internal/application/writer"
	"github.com/ward-notify-api/internal/infrastructure/csrf"
	jwtinfra "github.com/ward-notify-api/internal/infrastructure/jwt"
	"github.com/ward-notify-api/internal/infrastructure/smtp"
	"github.com/ward-notify-api/internal/infrastructure/sns"
)

// NotificationStore is the full store surface the router's services need.
// The DynamoDB notification repo satisfies it; tests substitute fakes.
type NotificationStore interface {
	writer.NotificationStore
	gateway.NotificationStore
}

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	NotificationStore NotificationStore
	SuppressionStore  suppression.StateStore
	Archiver          gateway.Archiver  // optional
	Push              sns.PushPublisher // optional
	Mailer            smtp.Mailer       // optional
	JWTProvider       *jwtinfra.Provider
	CSRFProvider      *csrf.Provider
}
