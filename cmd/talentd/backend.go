package main

import (
	"context"
	"fmt"
	"log"

	"github.com/jonathan/talent-pipeline/internal/config"
	"github.com/jonathan/talent-pipeline/internal/db"
	"github.com/jonathan/talent-pipeline/internal/memstore"
	"github.com/jonathan/talent-pipeline/internal/recruitment"
	"github.com/jonathan/talent-pipeline/internal/server"
)

// storage is everything the commands need from a storage engine.
type storage interface {
	recruitment.Store
	recruitment.StageProvider
	recruitment.RecruitmentStore
	server.UserStore
	server.EmployeeReader
}

// backend is an opened storage engine and the service built on it.
type backend struct {
	store    storage
	database *db.DB // nil for the in-memory store
	service  *recruitment.Service
	close    func()
}

// openBackend connects to PostgreSQL, or uses the in-memory store when memory is set.
// notifier may be nil.
func openBackend(ctx context.Context, cfg *config.Config, memory bool, notifier recruitment.Notifier) (*backend, error) {
	template, err := config.LoadStageTemplate(cfg.StageTemplatePath)
	if err != nil {
		return nil, err
	}

	b := &backend{close: func() {}}
	if memory {
		log.Printf("[talentd] using in-memory store; data is lost on exit")
		b.store = memstore.New()
	} else {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable is required (or pass --memory)")
		}
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		b.store = database
		b.database = database
		b.close = database.Close
	}

	opts := recruitment.Options{
		Store:           b.store,
		Stages:          b.store,
		Recruitments:    b.store,
		ProbationDays:   cfg.ProbationDays,
		HistoryPageSize: cfg.HistoryPageSize,
		StageTemplate:   template,
	}
	if notifier != nil {
		opts.Notifier = notifier
	}
	b.service = recruitment.New(opts)
	return b, nil
}
