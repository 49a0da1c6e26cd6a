package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/ward-notify-api/internal/application/gateway"
	"github.com/ward-notify-api/internal/config"
	"github.com/ward-notify-api/internal/infrastructure/csrf"
	"github.com/ward-notify-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/ward-notify-api/internal/infrastructure/jwt"
	s3infra "github.com/ward-notify-api/internal/infrastructure/s3"
	"github.com/ward-notify-api/internal/infrastructure/smtp"
	"github.com/ward-notify-api/internal/infrastructure/sns"
	transporthttp "github.com/ward-notify-api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("JWT provider not available: %v", err)
	}

	csrfProvider, err := csrf.NewProvider(cfg)
	if err != nil {
		log.Fatalf("CSRF provider not available: %v", err)
	}

	// S3 audit archive (optional — bulk deletions skip archiving without it).
	var archiver gateway.Archiver
	if cfg.ArchiveBucket != "" {
		archiver = s3infra.NewArchiveStore(s3infra.NewClient(cfg), cfg.ArchiveBucket)
	}

	// SNS push fan-out (optional — graceful fallback).
	var push sns.PushPublisher
	if p, err := sns.NewPublisher(cfg); err == nil {
		push = p
	} else {
		log.Printf("WARN: SNS publisher not available: %v", err)
	}

	// SMTP ops mailer (optional).
	var mailer smtp.Mailer
	if cfg.SMTPHost != "" {
		mailer = smtp.NewMailer(cfg)
	}

	deps := &transporthttp.Deps{
		NotificationStore: dynamo.NewNotificationRepo(dynamoClient, cfg.DynamoTables.Notifications),
		SuppressionStore:  dynamo.NewSuppressionRepo(dynamoClient, cfg.DynamoTables.SuppressionSessions),
		Archiver:          archiver,
		Push:              push,
		Mailer:            mailer,
		JWTProvider:       jwtProvider,
		CSRFProvider:      csrfProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
