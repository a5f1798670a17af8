package bootstrap

import (
	"context"
	"database/sql"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"ats-backend/internal/analyses"
	"ats-backend/internal/extract"
	"ats-backend/internal/llm"
	"ats-backend/internal/llm/gemini"
	"ats-backend/internal/shared/config"
	"ats-backend/internal/shared/server"
	"ats-backend/internal/shared/storage/db"
	"ats-backend/internal/shared/telemetry"
	"ats-backend/internal/uploads"
)

// App holds shared dependencies for the API process.
type App struct {
	Config  config.Config
	Router  *gin.Engine
	DB      *sql.DB
	Store   *uploads.Store
	Repo    analyses.Repo
	Engine  *analyses.Engine
	Service *analyses.Service
	Handler *analyses.Handler
}

// Build prepares dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	ctx := context.Background()

	store, err := uploads.New(cfg.UploadDir)
	if err != nil {
		return nil, err
	}

	sqlDB := buildDB(ctx, cfg)
	var repo analyses.Repo
	if sqlDB != nil {
		repo = &analyses.PGRepo{DB: sqlDB}
	} else {
		repo = analyses.NewMemoryRepo()
	}

	engine := analyses.NewEngine(buildLLM(ctx, cfg), cfg.BackoffDelays)

	svc := &analyses.Service{
		Store:       store,
		ExtractText: extract.Text,
		Engine:      engine,
		Repo:        repo,
		Model:       cfg.LLMModel,
	}
	handler := analyses.NewHandler(svc)

	return &App{
		Config:  cfg,
		Router:  server.NewRouter(cfg, handler),
		DB:      sqlDB,
		Store:   store,
		Repo:    repo,
		Engine:  engine,
		Service: svc,
		Handler: handler,
	}, nil
}

// buildDB connects and migrates when DATABASE_URL is set, falling back to
// nil (memory repo) on any failure.
func buildDB(ctx context.Context, cfg config.Config) *sql.DB {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil
	}
	conn, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		log.Printf("failed to connect database, falling back to memory: %v", err)
		return nil
	}
	if err := db.RunMigrations(ctx, conn); err != nil {
		log.Printf("failed to run migrations, falling back to memory: %v", err)
		conn.Close()
		return nil
	}
	return conn
}

func buildLLM(ctx context.Context, cfg config.Config) llm.Client {
	if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
		telemetry.Warn("llm.not_configured", map[string]any{
			"hint": "set GEMINI_API_KEY to enable analysis",
		})
		return llm.PlaceholderClient{}
	}
	client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.LLMModel)
	if err != nil {
		telemetry.Error("llm.init_failed", map[string]any{"err": err.Error()})
		return llm.PlaceholderClient{}
	}
	return client
}
