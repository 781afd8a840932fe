package poi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/FACorreiaa/go-neighborhood-discovery/internal/api"
	"github.com/FACorreiaa/go-neighborhood-discovery/internal/types"
)

var _ Repository = (*PostgresPOIRepository)(nil)

// Repository is the persistence contract for cached POIs. Writes are scoped
// to a single neighborhood id; the cache protocol is delete-then-insert,
// never an incremental merge.
type Repository interface {
	FindByNeighborhood(ctx context.Context, neighborhoodID string) ([]types.POI, error)
	DeleteByNeighborhood(ctx context.Context, neighborhoodID string) error
	CreateBatch(ctx context.Context, pois []types.POI) ([]types.POI, error)
}

type PostgresPOIRepository struct {
	logger *slog.Logger
	pgpool api.PGXPool
}

func NewPostgresPOIRepository(pgpool api.PGXPool, logger *slog.Logger) *PostgresPOIRepository {
	return &PostgresPOIRepository{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresPOIRepository) FindByNeighborhood(ctx context.Context, neighborhoodID string) ([]types.POI, error) {
	query := `
        SELECT id, neighborhood_id, provider_id, category, name, lat, lng, tags, cached_at
        FROM pois
        WHERE neighborhood_id = $1
        ORDER BY category, name
    `
	rows, err := r.pgpool.Query(ctx, query, neighborhoodID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pois for neighborhood %s: %w", neighborhoodID, err)
	}
	defer rows.Close()

	var out []types.POI
	for rows.Next() {
		var p types.POI
		var rawTags []byte
		if err := rows.Scan(&p.ID, &p.NeighborhoodID, &p.ProviderID, &p.Category,
			&p.Name, &p.Latitude, &p.Longitude, &rawTags, &p.CachedAt); err != nil {
			return nil, fmt.Errorf("failed to scan poi: %w", err)
		}
		if len(rawTags) > 0 {
			if err := json.Unmarshal(rawTags, &p.Tags); err != nil {
				return nil, fmt.Errorf("failed to decode poi tags: %w", err)
			}
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading poi rows: %w", err)
	}
	return out, nil
}

func (r *PostgresPOIRepository) DeleteByNeighborhood(ctx context.Context, neighborhoodID string) error {
	if _, err := r.pgpool.Exec(ctx, `DELETE FROM pois WHERE neighborhood_id = $1`, neighborhoodID); err != nil {
		return fmt.Errorf("failed to delete pois for neighborhood %s: %w", neighborhoodID, err)
	}
	return nil
}

func (r *PostgresPOIRepository) CreateBatch(ctx context.Context, pois []types.POI) ([]types.POI, error) {
	if len(pois) == 0 {
		return nil, nil
	}
	tx, err := r.pgpool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
        INSERT INTO pois (
            id, neighborhood_id, provider_id, category, name, lat, lng, tags, cached_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `
	created := make([]types.POI, 0, len(pois))
	for _, p := range pois {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		rawTags, err := json.Marshal(p.Tags)
		if err != nil {
			return nil, fmt.Errorf("failed to encode tags for poi %s: %w", p.Name, err)
		}
		if _, err := tx.Exec(ctx, query,
			p.ID, p.NeighborhoodID, p.ProviderID, p.Category,
			p.Name, p.Latitude, p.Longitude, rawTags, p.CachedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to insert poi %s: %w", p.Name, err)
		}
		created = append(created, p)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return created, nil
}
