// Package main runs the venue CRM HTTP service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"venue-crm/internal/config"
	"venue-crm/internal/httpapi"
	"venue-crm/internal/logger"
	"venue-crm/internal/metrics"
	"venue-crm/internal/notify"
	"venue-crm/internal/storage"
	"venue-crm/internal/whatsapp"
	"venue-crm/internal/workflow"
)

// Run is the testable entrypoint for the application.
func Run(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Env, cfg.LogLevel)
	log.Info().Str("persistence", cfg.Persistence).Str("port", cfg.Port).Msg("Starting venue CRM")

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	store, err := storage.NewStorage(storage.Options{
		Persistent: cfg.Persistent(),
		File:       cfg.DataFile,
		DemoPhone:  cfg.DemoRecipientPhone,
		Logger:     log,
	})
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	channels := []notify.Channel{{Name: "log", Notifier: notify.NewLog(log)}}
	if cfg.SMSEnabled() {
		channels = append(channels, notify.Channel{
			Name:     "sms",
			Notifier: notify.NewTwilio(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromPhone),
		})
	}
	if cfg.EmailEnabled() {
		channels = append(channels, notify.Channel{
			Name:     "email",
			Notifier: notify.NewSendGrid(cfg.SendgridAPIKey, cfg.SendgridFromEmail, cfg.VenueName),
		})
	}

	var wa *whatsapp.Service
	if cfg.WhatsAppEnabled {
		wa, err = whatsapp.NewService(ctx, &whatsapp.Config{DataDir: cfg.WhatsAppDataDir}, log)
		if err != nil {
			return fmt.Errorf("init whatsapp: %w", err)
		}
		channels = append(channels, notify.Channel{Name: "whatsapp", Notifier: wa})
	}
	notifier := notify.NewMulti(m, log, channels...)
	log.Info().Strs("channels", notifier.Channels()).Msg("Notification channels ready")

	engine := workflow.New(store, workflow.Options{
		DemoPhone:          cfg.DemoRecipientPhone,
		VenueName:          cfg.VenueName,
		StrictAvailability: cfg.StrictAvailability,
		Notifier:           notifier,
		Metrics:            m,
		Logger:             log,
	})

	if wa != nil {
		wa.SetInboundHandler(func(ctx context.Context, phone, text string) error {
			_, err := engine.RecordInbound(ctx, phone, text)
			return err
		})
		go connectWhatsApp(ctx, wa, log)
	}

	h := httpapi.New(log, engine, httpapi.NewValidator(), httpapi.WebhookConfig{
		Validate:  cfg.TwilioValidateWebhook,
		AuthToken: cfg.TwilioAuthToken,
		PublicURL: cfg.TwilioWebhookURL,
	})
	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: httpapi.NewRouter(h, httpapi.RouterConfig{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			Gatherer:       reg,
			Metrics:        m,
			Logger:         log,
		}),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()
	log.Info().Str("addr", srv.Addr).Msg("Listening")

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	}

	log.Info().Msg("Shutting down server")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Warn().Err(err).Msg("Graceful shutdown failed")
	}
	if wa != nil {
		wa.Disconnect()
	}
	return nil
}

func connectWhatsApp(ctx context.Context, wa *whatsapp.Service, log zerolog.Logger) {
	log.Info().Msg("Connecting to WhatsApp")
	if err := wa.Connect(ctx); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("WhatsApp connection failed, continuing without it")
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
