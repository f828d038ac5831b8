// Package catalogue resolves land-cover parcels to their grid references
// and elevations. The SQL adapter reads the parcel table and the digital
// terrain model; the in-memory adapter serves tests and demos.
package catalogue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"

	_ "github.com/go-sql-driver/mysql"

	"github.com/couchcryptid/wofost-input-service/internal/domain"
)

// dtmHalfWindow bounds the terrain query around a cell centre, metres.
const dtmHalfWindow = 50.0

// DB implements domain.Catalogue and domain.Terrain over the parcel and
// DTM tables.
type DB struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open connects to the catalogue database.
func Open(dsn string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalogue database: %w", err)
	}
	return &DB{db: db, logger: logger}, nil
}

// Close releases the connection pool.
func (c *DB) Close() error { return c.db.Close() }

// Lookup returns the grid reference of a parcel's centroid and the DTM
// elevation of that cell.
func (c *DB) Lookup(ctx context.Context, parcelID int) (string, float64, error) {
	var gridRef string
	err := c.db.QueryRowContext(ctx,
		"SELECT os_grid_ref FROM parcels WHERE parcel_id = ?", parcelID,
	).Scan(&gridRef)
	if errors.Is(err, sql.ErrNoRows) {
		return "", 0, fmt.Errorf("%w: parcel %d", domain.ErrLocationNotFound, parcelID)
	}
	if err != nil {
		return "", 0, fmt.Errorf("query parcel %d: %w", parcelID, err)
	}

	elevation, err := c.Elevation(ctx, gridRef)
	if err != nil {
		return "", 0, err
	}
	return gridRef, elevation, nil
}

// Elevation returns the DTM elevation of the 50-m cell nearest to a grid
// reference's centre.
func (c *DB) Elevation(ctx context.Context, gridRef string) (float64, error) {
	easting, northing, _, err := domain.ParseGridReference(gridRef)
	if err != nil {
		return 0, err
	}

	rows, err := c.db.QueryContext(ctx,
		"SELECT x, y, elevation FROM dtm WHERE x BETWEEN ? AND ? AND y BETWEEN ? AND ?",
		easting-dtmHalfWindow, easting+dtmHalfWindow,
		northing-dtmHalfWindow, northing+dtmHalfWindow,
	)
	if err != nil {
		return 0, fmt.Errorf("query terrain at %s: %w", gridRef, err)
	}
	defer rows.Close()

	found := false
	var best, bestDist float64
	for rows.Next() {
		var x, y, elevation float64
		if err := rows.Scan(&x, &y, &elevation); err != nil {
			return 0, fmt.Errorf("scan terrain row: %w", err)
		}
		dist := math.Hypot(x-easting, y-northing)
		if !found || dist < bestDist {
			found, best, bestDist = true, elevation, dist
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("read terrain rows: %w", err)
	}
	if !found {
		return 0, fmt.Errorf("%w: no terrain cells near %s", domain.ErrDataUnavailable, gridRef)
	}
	return best, nil
}
