// Package app provides application initialization and dependency wiring.
//
// App is the container holding every long-lived component: the database
// pool, the Genkit embedder, the store, and the ingestion and retrieval
// services built on top of them.
package app

import (
	"context"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/veltra/corpusd/internal/config"
	"github.com/veltra/corpusd/internal/embed"
	"github.com/veltra/corpusd/internal/ingest"
	"github.com/veltra/corpusd/internal/retrieval"
	"github.com/veltra/corpusd/internal/store"
)

// App is the core application container.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	DBPool   *pgxpool.Pool
	Genkit   *genkit.Genkit
	Embedder ai.Embedder

	Store     *store.Store
	Embed     *embed.Service
	Ingest    *ingest.Pipeline
	Retrieval *retrieval.Service

	cancel context.CancelFunc
}

// Close releases all resources held by the container. Safe to call on a
// partially initialized App.
func (a *App) Close() error {
	if a.cancel != nil {
		a.cancel()
	}
	if a.DBPool != nil {
		a.DBPool.Close()
		a.Logger.Debug("database pool closed")
	}
	return nil
}
