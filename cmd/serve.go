package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"caketime/configs"
	"caketime/events"
	"caketime/pkg/gateway"
	"caketime/pkg/mailer"
	"caketime/routes"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownBudget = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	rt, err := bootstrap()
	if err != nil {
		return err
	}
	defer rt.close()
	cfg, logger := rt.cfg, rt.logger

	if err := configs.SetupDatabase(rt.db); err != nil {
		return err
	}
	if err := configs.SeedAdmin(rt.db, cfg, logger); err != nil {
		return err
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.KafkaBrokers != "" {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	}

	c, err := routes.NewContainer(cfg, rt.db, logger, routes.Externals{
		Gateway: gateway.NewStripe(cfg.StripeSecretKey, cfg.StripeWebhookSecret),
		Mailer: mailer.NewSMTP(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.MailFrom,
		}),
		Publisher: publisher,
	})
	if err != nil {
		return err
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go c.Feed.Run(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.NewRouter(c),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.AppEnv),
			zap.String("db_driver", cfg.DBDriver),
			zap.Bool("stripe", cfg.StripeSecretKey != ""),
			zap.Bool("smtp", cfg.SMTPHost != ""),
			zap.Bool("kafka", cfg.KafkaBrokers != ""))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownBudget)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	if err := c.Notifications.Wait(shutdownCtx); err != nil {
		logger.Warn("pending mails abandoned", zap.Error(err))
	}
	if err := c.Publisher.Close(); err != nil {
		logger.Warn("close event publisher", zap.Error(err))
	}
	logger.Info("server stopped")
	return nil
}
