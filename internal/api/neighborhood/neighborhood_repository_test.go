package neighborhood

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-neighborhood-discovery/internal/geo"
	"github.com/FACorreiaa/go-neighborhood-discovery/internal/types"
)

func setupRepositoryTest(t *testing.T) (*PostgresNeighborhoodRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPostgresNeighborhoodRepository(mockPool, logger), mockPool
}

func testNeighborhood() types.Neighborhood {
	return types.Neighborhood{
		ID:        "osm-10",
		Name:      "Brickell",
		Boundary:  geo.PointRing(25.7617, -80.1918, geo.PointRadiusNeighborhood, 16),
		CenterLat: 25.7617,
		CenterLng: -80.1918,
		Source:    types.SourceBoundaryQuery,
		CachedAt:  time.Now().UTC().Truncate(time.Second),
	}
}

func TestPostgresNeighborhoodRepository_FindWithinBounds(t *testing.T) {
	ctx := context.Background()
	bound := orb.Bound{Min: orb.Point{-80.3, 25.7}, Max: orb.Point{-80.1, 25.9}}

	t.Run("scans rows and decodes boundary", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		n := testNeighborhood()
		boundary, err := boundaryJSON(n.Boundary)
		require.NoError(t, err)

		rows := pgxmock.NewRows([]string{
			"id", "name", "boundary", "center_lat", "center_lng", "source", "photo_url", "cached_at",
		}).AddRow(n.ID, n.Name, boundary, n.CenterLat, n.CenterLng, n.Source, (*string)(nil), n.CachedAt)

		mockPool.ExpectQuery("SELECT (.+) FROM neighborhoods").
			WithArgs(bound.Max.Lon(), bound.Min.Lon(), bound.Max.Lat(), bound.Min.Lat()).
			WillReturnRows(rows)

		got, err := repo.FindWithinBounds(ctx, bound)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, n.ID, got[0].ID)
		assert.Equal(t, len(n.Boundary), len(got[0].Boundary))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("no rows yields empty slice", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		mockPool.ExpectQuery("SELECT (.+) FROM neighborhoods").
			WithArgs(bound.Max.Lon(), bound.Min.Lon(), bound.Max.Lat(), bound.Min.Lat()).
			WillReturnRows(pgxmock.NewRows([]string{
				"id", "name", "boundary", "center_lat", "center_lng", "source", "photo_url", "cached_at",
			}))

		got, err := repo.FindWithinBounds(ctx, bound)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestPostgresNeighborhoodRepository_FindByID(t *testing.T) {
	ctx := context.Background()

	t.Run("returns single decoded row", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		n := testNeighborhood()
		boundary, err := boundaryJSON(n.Boundary)
		require.NoError(t, err)

		rows := pgxmock.NewRows([]string{
			"id", "name", "boundary", "center_lat", "center_lng", "source", "photo_url", "cached_at",
		}).AddRow(n.ID, n.Name, boundary, n.CenterLat, n.CenterLng, n.Source, (*string)(nil), n.CachedAt)

		mockPool.ExpectQuery("SELECT (.+) FROM neighborhoods WHERE id").
			WithArgs(n.ID).
			WillReturnRows(rows)

		got, err := repo.FindByID(ctx, n.ID)
		require.NoError(t, err)
		assert.Equal(t, n.Name, got.Name)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("missing row maps to ErrNotFound", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		mockPool.ExpectQuery("SELECT (.+) FROM neighborhoods WHERE id").
			WithArgs("osm-way-404").
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.FindByID(ctx, "osm-way-404")
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}

func TestPostgresNeighborhoodRepository_Upsert(t *testing.T) {
	ctx := context.Background()

	t.Run("issues on-conflict insert", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		n := testNeighborhood()
		b := n.Boundary.Bound()
		mockPool.ExpectExec("INSERT INTO neighborhoods").
			WithArgs(n.ID, n.Name, pgxmock.AnyArg(), n.CenterLat, n.CenterLng,
				b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat(),
				n.Source, n.CachedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, repo.Upsert(ctx, n))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("upsert query carries conflict clause", func(t *testing.T) {
		assert.Contains(t, upsertQuery, "ON CONFLICT (id) DO UPDATE")
		assert.Contains(t, upsertQuery, "cached_at = EXCLUDED.cached_at")
	})
}

func TestPostgresNeighborhoodRepository_CreateBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("wraps inserts in one transaction", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		ns := []types.Neighborhood{testNeighborhood(), testNeighborhood()}
		ns[1].ID = "osm-11"

		mockPool.ExpectBeginTx(pgx.TxOptions{})
		for range ns {
			mockPool.ExpectExec("INSERT INTO neighborhoods").
				WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
					pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
					pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
				WillReturnResult(pgxmock.NewResult("INSERT", 1))
		}
		mockPool.ExpectCommit()

		require.NoError(t, repo.CreateBatch(ctx, ns))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		require.NoError(t, repo.CreateBatch(ctx, nil))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPostgresNeighborhoodRepository_UpdatePhotoURL(t *testing.T) {
	ctx := context.Background()

	t.Run("updates existing row", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		mockPool.ExpectExec("UPDATE neighborhoods SET photo_url").
			WithArgs("https://img.example/a.jpg", "osm-10").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.UpdatePhotoURL(ctx, "osm-10", "https://img.example/a.jpg"))
	})

	t.Run("missing row maps to ErrNotFound", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		mockPool.ExpectExec("UPDATE neighborhoods SET photo_url").
			WithArgs("x", "osm-404").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.UpdatePhotoURL(ctx, "osm-404", "x")
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}
