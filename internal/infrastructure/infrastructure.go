// Package infrastructure provides core service initialization for application startup.
// It assembles the common dependencies (logging, database, storage, classifier
// client, task runner, metrics) that domain systems require.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/docrelay/docrelay/internal/classifier"
	"github.com/docrelay/docrelay/internal/config"
	"github.com/docrelay/docrelay/pkg/database"
	"github.com/docrelay/docrelay/pkg/lifecycle"
	"github.com/docrelay/docrelay/pkg/storage"
	"github.com/docrelay/docrelay/pkg/tasks"
)

// Infrastructure holds the core systems required by all domain modules.
// It provides a single point of initialization for lifecycle coordination,
// logging, database access, blob storage, the classification client, and
// the deferred task runner.
type Infrastructure struct {
	Lifecycle  *lifecycle.Coordinator
	Logger     *slog.Logger
	Database   database.System
	Storage    storage.System
	Classifier classifier.System
	Tasks      *tasks.Runner
	Metrics    *prometheus.Registry
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle:  lc,
		Logger:     logger,
		Database:   db,
		Storage:    store,
		Classifier: classifier.New(&cfg.Classifier, logger),
		Tasks:      tasks.New(&cfg.Tasks, logger),
		Metrics:    prometheus.NewRegistry(),
	}, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	i.Tasks.Start(i.Lifecycle)
	return nil
}
