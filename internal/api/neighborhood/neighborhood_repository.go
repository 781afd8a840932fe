package neighborhood

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/FACorreiaa/go-neighborhood-discovery/internal/api"
	"github.com/FACorreiaa/go-neighborhood-discovery/internal/types"
)

var _ Repository = (*PostgresNeighborhoodRepository)(nil)

// Repository is the persistence contract for cached neighborhood boundaries.
type Repository interface {
	// FindWithinBounds returns rows whose stored bounding box intersects the
	// given box. Coarse filter only; exact polygon intersection is not
	// evaluated here.
	FindWithinBounds(ctx context.Context, b orb.Bound) ([]types.Neighborhood, error)
	// FindByID returns one neighborhood, or types.ErrNotFound.
	FindByID(ctx context.Context, id string) (*types.Neighborhood, error)
	// Upsert inserts or refreshes a row by id. Repeated upserts of the same
	// id must never create duplicates.
	Upsert(ctx context.Context, n types.Neighborhood) error
	CreateBatch(ctx context.Context, ns []types.Neighborhood) error
	UpdatePhotoURL(ctx context.Context, id, photoURL string) error
}

type PostgresNeighborhoodRepository struct {
	logger *slog.Logger
	pgpool api.PGXPool
}

func NewPostgresNeighborhoodRepository(pgpool api.PGXPool, logger *slog.Logger) *PostgresNeighborhoodRepository {
	return &PostgresNeighborhoodRepository{
		logger: logger,
		pgpool: pgpool,
	}
}

func boundaryJSON(ring orb.Ring) ([]byte, error) {
	return geojson.NewGeometry(orb.Polygon{ring}).MarshalJSON()
}

func boundaryRing(raw []byte) (orb.Ring, error) {
	g, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode boundary geometry: %w", err)
	}
	polygon, ok := g.Geometry().(orb.Polygon)
	if !ok || len(polygon) == 0 {
		return nil, fmt.Errorf("boundary geometry is not a polygon")
	}
	return polygon[0], nil
}

const neighborhoodColumns = `id, name, boundary, center_lat, center_lng, source, photo_url, cached_at`

func scanNeighborhood(row pgx.Row) (*types.Neighborhood, error) {
	var n types.Neighborhood
	var rawBoundary []byte
	if err := row.Scan(&n.ID, &n.Name, &rawBoundary, &n.CenterLat, &n.CenterLng, &n.Source, &n.PhotoURL, &n.CachedAt); err != nil {
		return nil, err
	}
	ring, err := boundaryRing(rawBoundary)
	if err != nil {
		return nil, err
	}
	n.Boundary = ring
	return &n, nil
}

func (r *PostgresNeighborhoodRepository) FindWithinBounds(ctx context.Context, b orb.Bound) ([]types.Neighborhood, error) {
	query := fmt.Sprintf(`
        SELECT %s
        FROM neighborhoods
        WHERE min_lng <= $1 AND max_lng >= $2
          AND min_lat <= $3 AND max_lat >= $4
        ORDER BY id
    `, neighborhoodColumns)

	rows, err := r.pgpool.Query(ctx, query, b.Max.Lon(), b.Min.Lon(), b.Max.Lat(), b.Min.Lat())
	if err != nil {
		return nil, fmt.Errorf("failed to query neighborhoods within bounds: %w", err)
	}
	defer rows.Close()

	var out []types.Neighborhood
	for rows.Next() {
		n, err := scanNeighborhood(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan neighborhood: %w", err)
		}
		out = append(out, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading neighborhood rows: %w", err)
	}
	return out, nil
}

func (r *PostgresNeighborhoodRepository) FindByID(ctx context.Context, id string) (*types.Neighborhood, error) {
	query := fmt.Sprintf(`SELECT %s FROM neighborhoods WHERE id = $1`, neighborhoodColumns)
	n, err := scanNeighborhood(r.pgpool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query neighborhood %s: %w", id, err)
	}
	return n, nil
}

const upsertQuery = `
        INSERT INTO neighborhoods (
            id, name, boundary, center_lat, center_lng,
            min_lng, min_lat, max_lng, max_lat,
            source, cached_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        ON CONFLICT (id) DO UPDATE SET
            name = EXCLUDED.name,
            boundary = EXCLUDED.boundary,
            center_lat = EXCLUDED.center_lat,
            center_lng = EXCLUDED.center_lng,
            min_lng = EXCLUDED.min_lng,
            min_lat = EXCLUDED.min_lat,
            max_lng = EXCLUDED.max_lng,
            max_lat = EXCLUDED.max_lat,
            source = EXCLUDED.source,
            cached_at = EXCLUDED.cached_at
    `

func upsertArgs(n types.Neighborhood) ([]any, error) {
	boundary, err := boundaryJSON(n.Boundary)
	if err != nil {
		return nil, fmt.Errorf("failed to encode boundary for %s: %w", n.ID, err)
	}
	b := n.Boundary.Bound()
	return []any{
		n.ID, n.Name, boundary, n.CenterLat, n.CenterLng,
		b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat(),
		n.Source, n.CachedAt,
	}, nil
}

func (r *PostgresNeighborhoodRepository) Upsert(ctx context.Context, n types.Neighborhood) error {
	args, err := upsertArgs(n)
	if err != nil {
		return err
	}
	if _, err := r.pgpool.Exec(ctx, upsertQuery, args...); err != nil {
		return fmt.Errorf("failed to upsert neighborhood %s: %w", n.ID, err)
	}
	return nil
}

func (r *PostgresNeighborhoodRepository) CreateBatch(ctx context.Context, ns []types.Neighborhood) error {
	if len(ns) == 0 {
		return nil
	}
	tx, err := r.pgpool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, n := range ns {
		args, err := upsertArgs(n)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, upsertQuery, args...); err != nil {
			return fmt.Errorf("failed to insert neighborhood %s: %w", n.ID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *PostgresNeighborhoodRepository) UpdatePhotoURL(ctx context.Context, id, photoURL string) error {
	tag, err := r.pgpool.Exec(ctx, `UPDATE neighborhoods SET photo_url = $1 WHERE id = $2`, photoURL, id)
	if err != nil {
		return fmt.Errorf("failed to update photo url for %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("neighborhood %s: %w", id, types.ErrNotFound)
	}
	return nil
}
