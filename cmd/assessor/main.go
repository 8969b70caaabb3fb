// cmd/assessor/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"credit-assessor/internal/assessment"
	"credit-assessor/internal/common/config"
	"credit-assessor/internal/common/logger"
	"credit-assessor/internal/dispatch"
	"credit-assessor/internal/mail"
	"credit-assessor/internal/pdf"
	"credit-assessor/internal/server"
	"credit-assessor/internal/session"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting credit assessor...",
		zap.String("environment", cfg.App.Environment),
		zap.String("address", cfg.Server.Address),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Mail transport ---
	var sender dispatch.Sender
	if cfg.Integrations.AWS.SES.Enabled {
		var sesSender *mail.SESSender
		err = retryWithBackoff(func() error {
			var err error
			sesSender, err = mail.NewSESSender(ctx, cfg.Integrations.AWS.Region, cfg.Integrations.AWS.SES.FromEmail, log)
			return err
		}, 5, 2*time.Second, zapLog, "SES client initialization")
		if err != nil {
			zapLog.Fatal("ses client failed after retries", zap.Error(err))
		}
		sender = sesSender
		zapLog.Info("SES transport ready", zap.String("region", cfg.Integrations.AWS.Region))
	} else {
		smtpCfg := &mail.SMTPConfig{
			Host:     cfg.Integrations.SMTP.Host,
			Port:     cfg.Integrations.SMTP.Port,
			Username: cfg.Integrations.SMTP.Username,
			Password: cfg.Integrations.SMTP.Password,
			UseTLS:   cfg.Integrations.SMTP.UseTLS,
			From:     cfg.Integrations.SMTP.DefaultFrom,
		}
		if err := smtpCfg.Validate(); err != nil {
			zapLog.Fatal("smtp config invalid", zap.Error(err))
		}

		smtpSender := mail.NewSMTPSender(smtpCfg, log)
		err = retryWithBackoff(func() error {
			probeCtx, probeCancel := context.WithTimeout(ctx, 10*time.Second)
			defer probeCancel()
			return smtpSender.TestConnection(probeCtx)
		}, 5, 2*time.Second, zapLog, "SMTP connection probe")
		if err != nil {
			zapLog.Warn("smtp probe failed, continuing anyway", zap.Error(err))
		}
		sender = smtpSender
		zapLog.Info("SMTP transport ready", zap.String("host", smtpCfg.Host))
	}

	// --- Core wiring ---
	machine := assessment.NewMachine(assessment.DefaultQuestions(), cfg.Questionnaire.Threshold, nil, log)
	coordinator := dispatch.NewCoordinator(pdf.NewRenderer(), sender, log)

	store := session.NewStore(machine, config.GetDuration(cfg.Questionnaire.SessionTTL), log)
	store.StartSweeper(ctx, time.Minute)

	srv := server.New(machine, store, coordinator, log)

	mux := srv.Routes()
	mux.Handle("GET /metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      mux,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http server shutdown failed", zap.Error(err))
	}

	cancel()
	zapLog.Info("Shutdown complete")
}
