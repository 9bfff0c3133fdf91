package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvector "github.com/pgvector/pgvector-go/pgx"

	"github.com/veltra/corpusd/db"
	"github.com/veltra/corpusd/internal/chunk"
	"github.com/veltra/corpusd/internal/config"
	"github.com/veltra/corpusd/internal/drive"
	"github.com/veltra/corpusd/internal/embed"
	"github.com/veltra/corpusd/internal/ingest"
	"github.com/veltra/corpusd/internal/retrieval"
	"github.com/veltra/corpusd/internal/store"
)

// Setup creates and initializes the application container.
// On failure, everything already initialized is released before returning.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	pool, err := provideDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.DBPool = pool

	g, err := provideGenkit(ctx)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := provideEmbedder(g, cfg)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found", cfg.EmbedderModel)
	}
	a.Embedder = embedder

	a.Store = store.New(pool, logger)
	a.Embed = embed.New(embedder, cfg.EmbedBatchSize, logger)

	a.Ingest = ingest.New(a.Store, provideSourceFactory(cfg, a.Store, logger), a.Embed,
		ingest.Config{
			Chunking:       chunk.Config{Size: cfg.ChunkSize, Overlap: cfg.ChunkOverlap},
			MaxFilesPerRun: cfg.MaxFilesPerRun,
		}, logger)

	a.Retrieval = retrieval.New(a.Store, a.Embed, cfg.TopK, cfg.SimilarityThreshold, logger)

	_, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	return a, nil
}

// SetupStore initializes only the database-backed parts of the container:
// pool, migrations and store. Used by commands that never touch the
// embedder or Drive.
func SetupStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := provideDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &App{
		Config: cfg,
		Logger: logger,
		DBPool: pool,
		Store:  store.New(pool, logger),
	}, nil
}

// provideDBPool runs migrations, then creates and pings the connection pool.
// Every pooled connection registers the pgvector type mappings so []float32
// embeddings scan and bind natively.
func provideDBPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

// provideGenkit initializes Genkit with the Google AI plugin. The plugin
// reads GEMINI_API_KEY from the environment.
func provideGenkit(ctx context.Context) (*genkit.Genkit, error) {
	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, errors.New("initializing genkit")
	}
	return g, nil
}

// provideEmbedder looks up the configured embedding model from the Google AI
// plugin registry.
func provideEmbedder(g *genkit.Genkit, cfg *config.Config) ai.Embedder {
	return googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
}

// provideSourceFactory builds authenticated Drive clients on demand. Each
// call loads the drive source's stored credential and wraps it in a token
// source that persists provider-side rotations back to the store.
func provideSourceFactory(cfg *config.Config, st *store.Store, logger *slog.Logger) ingest.SourceFactory {
	oauthCfg := drive.OAuthConfig(cfg.DriveClientID, cfg.DriveClientSecret)

	return func(ctx context.Context, driveSourceID uuid.UUID) (ingest.Source, error) {
		cred, err := st.GetCredential(ctx, driveSourceID)
		if err != nil {
			return nil, err
		}

		save := func(ctx context.Context, accessToken, refreshToken string, expiresAt time.Time) error {
			return st.SetCredential(ctx, driveSourceID, accessToken, refreshToken, expiresAt)
		}

		ts := drive.NewTokenSource(ctx, oauthCfg,
			cred.AccessToken, cred.RefreshToken, cred.ExpiresAt, save, logger)
		return drive.NewClient(ctx, ts, logger)
	}
}
