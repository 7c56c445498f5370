package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonathan/talent-pipeline/internal/config"
	"github.com/jonathan/talent-pipeline/internal/notify"
	"github.com/jonathan/talent-pipeline/internal/server"
	"github.com/jonathan/talent-pipeline/internal/server/ratelimit"
	"github.com/spf13/cobra"
)

var (
	servePort   int
	serveMemory bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server exposing profiles, applications, the stage pipeline, conversion and history.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default: PORT or 8080)")
	serveCmd.Flags().BoolVar(&serveMemory, "memory", false, "Use the in-memory store instead of PostgreSQL")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return fmt.Errorf("failed to create JWT config: %w", err)
	}
	passwordConfig, err := config.NewPasswordConfig()
	if err != nil {
		return fmt.Errorf("failed to create password config: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dispatcher := notify.NewDispatcher(notificationSink(cfg), notify.Config{
		Workers:     cfg.NotifyWorkers,
		QueueSize:   cfg.NotifyQueueSize,
		MaxAttempts: cfg.NotifyMaxAttempts,
	})
	// Workers outlive ctx so queued notices drain after the server stops.
	dispatcher.Start(context.WithoutCancel(ctx))
	defer func() {
		if err := dispatcher.Close(); err != nil {
			log.Printf("[notify] close: %v", err)
		}
		st := dispatcher.Stats()
		log.Printf("[notify] delivered=%d failed=%d dropped=%d", st.Delivered, st.Failed, st.Dropped)
	}()

	b, err := openBackend(ctx, cfg, serveMemory, dispatcher)
	if err != nil {
		return err
	}
	defer b.close()

	if b.database != nil {
		migrateCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if err := b.database.Migrate(migrateCtx); err != nil {
			return err
		}
	}

	if cfg.StageTemplatePath != "" {
		go func() {
			if err := config.WatchStageTemplate(ctx, cfg.StageTemplatePath, b.service.SetStageTemplate); err != nil {
				log.Printf("[config] stage template reload disabled: %v", err)
			}
		}()
	}

	srv, err := server.New(server.Config{Addr: cfg.Addr(), RateLimit: ratelimit.LoadConfig()}, server.Deps{
		Service:   b.service,
		Users:     b.store,
		Employees: b.store,
		JWT:       jwtConfig,
		Passwords: passwordConfig,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	log.Printf("[talentd] probation period %v, history page size %d", cfg.ProbationPeriod(), cfg.HistoryPageSize)
	return srv.Start(ctx)
}

// notificationSink always logs and also posts to NOTIFY_WEBHOOK_URL when set.
func notificationSink(cfg *config.Config) notify.Sink {
	if cfg.NotifyWebhookURL == "" {
		return notify.LogSink{}
	}
	return notify.MultiSink{notify.LogSink{}, notify.NewWebhookSink(cfg.NotifyWebhookURL)}
}
