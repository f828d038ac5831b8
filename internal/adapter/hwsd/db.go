// Package hwsd reads topsoil texture from the Harmonized World Soil
// Database loaded into SQL on a 2-km grid.
package hwsd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/go-sql-driver/mysql"

	"github.com/couchcryptid/wofost-input-service/internal/domain"
	"github.com/couchcryptid/wofost-input-service/internal/soil"
)

// cellHalfWindow bounds the nearest-cell search, degrees. The grid is
// roughly 2 km, so a quarter degree always contains the nearest cell.
const cellHalfWindow = 0.25

// DB implements soil.TextureSource over the HWSD topsoil table.
type DB struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open connects to the HWSD database.
func Open(dsn string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open hwsd database: %w", err)
	}
	return &DB{db: db, logger: logger}, nil
}

// Close releases the connection pool.
func (h *DB) Close() error { return h.db.Close() }

// Texture returns the topsoil sand/silt/clay fractions of the grid cell
// nearest to a coordinate.
func (h *DB) Texture(ctx context.Context, lon, lat float64) (soil.Texture, error) {
	row := h.db.QueryRowContext(ctx,
		`SELECT t_sand, t_silt, t_clay
		 FROM hwsd_topsoil
		 WHERE lon BETWEEN ? AND ? AND lat BETWEEN ? AND ?
		 ORDER BY (lon - ?) * (lon - ?) + (lat - ?) * (lat - ?)
		 LIMIT 1`,
		lon-cellHalfWindow, lon+cellHalfWindow,
		lat-cellHalfWindow, lat+cellHalfWindow,
		lon, lon, lat, lat,
	)

	var texture soil.Texture
	err := row.Scan(&texture.Sand, &texture.Silt, &texture.Clay)
	if errors.Is(err, sql.ErrNoRows) {
		return soil.Texture{}, fmt.Errorf("%w: no HWSD cells near (%.4f, %.4f)",
			domain.ErrDataUnavailable, lon, lat)
	}
	if err != nil {
		return soil.Texture{}, fmt.Errorf("query hwsd topsoil: %w", err)
	}

	h.logger.Debug("hwsd texture", "lon", lon, "lat", lat,
		"sand", texture.Sand, "silt", texture.Silt, "clay", texture.Clay)
	return texture, nil
}
