// Package session persists completed search sessions for later inspection.
// Writes are fire-and-forget from the orchestrator; a failed save never
// fails an analysis.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/FACorreiaa/go-neighborhood-discovery/internal/api"
	"github.com/FACorreiaa/go-neighborhood-discovery/internal/types"
)

var _ Repository = (*PostgresSessionRepository)(nil)

// Repository is the persistence contract for search sessions.
type Repository interface {
	SaveSearchSession(ctx context.Context, callerID string, request types.AnalyzeRequest, result *types.AnalyzeResult) (uuid.UUID, error)
}

type PostgresSessionRepository struct {
	logger *slog.Logger
	pgpool api.PGXPool
}

func NewPostgresSessionRepository(pgpool api.PGXPool, logger *slog.Logger) *PostgresSessionRepository {
	return &PostgresSessionRepository{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresSessionRepository) SaveSearchSession(ctx context.Context, callerID string, request types.AnalyzeRequest, result *types.AnalyzeResult) (uuid.UUID, error) {
	rawRequest, err := json.Marshal(request)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to encode session request: %w", err)
	}
	rawResult, err := json.Marshal(result)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to encode session result: %w", err)
	}

	id := uuid.New()
	query := `
        INSERT INTO search_sessions (id, caller_id, request, result, created_at)
        VALUES ($1, $2, $3, $4, NOW())
    `
	if _, err := r.pgpool.Exec(ctx, query, id, callerID, rawRequest, rawResult); err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert search session: %w", err)
	}
	r.logger.DebugContext(ctx, "Search session saved", slog.String("sessionID", id.String()), slog.String("callerID", callerID))
	return id, nil
}
