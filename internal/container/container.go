package container

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"

	database "github.com/FACorreiaa/go-neighborhood-discovery/app/db"
	"github.com/FACorreiaa/go-neighborhood-discovery/config"
	"github.com/FACorreiaa/go-neighborhood-discovery/internal/api/analysis"
	"github.com/FACorreiaa/go-neighborhood-discovery/internal/api/neighborhood"
	"github.com/FACorreiaa/go-neighborhood-discovery/internal/api/poi"
	"github.com/FACorreiaa/go-neighborhood-discovery/internal/api/session"
	"github.com/FACorreiaa/go-neighborhood-discovery/internal/isochrone"
	"github.com/FACorreiaa/go-neighborhood-discovery/internal/overpass"
	"github.com/FACorreiaa/go-neighborhood-discovery/internal/photos"
)

// Container holds all application dependencies
type Container struct {
	Config          *config.Config
	Logger          *slog.Logger
	Pool            *pgxpool.Pool
	AnalysisHandler *analysis.HandlerImpl
}

// NewContainer initializes and returns a new dependency container
func NewContainer(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		return nil, err
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}

	// External providers
	overpassClient := overpass.NewClient(overpass.Config{
		Mirrors:         cfg.Overpass.Mirrors,
		Timeout:         time.Duration(cfg.Overpass.TimeoutSeconds) * time.Second,
		MaxQueryResults: cfg.Overpass.MaxQueryResults,
		RetryBackoff:    time.Duration(cfg.Overpass.RetryBackoffSeconds) * time.Second,
		RateLimit:       rate.Limit(cfg.Overpass.RateLimitPerSecond),
	}, logger)

	isochroneClient := isochrone.NewClient(isochrone.Config{
		BaseURL: cfg.Isochrone.BaseURL,
		APIKey:  cfg.Isochrone.APIKey,
		Timeout: time.Duration(cfg.Isochrone.TimeoutSeconds) * time.Second,
	}, logger)

	photoClient := photos.NewClient(photos.Config{
		BaseURL: cfg.Photos.BaseURL,
		Timeout: time.Duration(cfg.Photos.TimeoutSeconds) * time.Second,
	}, logger)

	// Repositories
	neighborhoodRepo := neighborhood.NewPostgresNeighborhoodRepository(pool, logger)
	poiRepo := poi.NewPostgresPOIRepository(pool, logger)
	sessionRepo := session.NewPostgresSessionRepository(pool, logger)

	// Services
	neighborhoodService := neighborhood.NewServiceImpl(neighborhoodRepo, overpassClient, logger)
	poiService := poi.NewServiceImpl(poiRepo, overpassClient, logger)
	analysisService := analysis.NewServiceImpl(isochroneClient, neighborhoodService, poiService, photoClient, sessionRepo, logger)

	// Handlers
	analysisHandler := analysis.NewHandler(analysisService, logger)

	return &Container{
		Config:          cfg,
		Logger:          logger,
		Pool:            pool,
		AnalysisHandler: analysisHandler,
	}, nil
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}

// RunMigrations runs database migrations
func (c *Container) RunMigrations(connectionURL string) error {
	return database.RunMigrations(connectionURL, c.Logger)
}
