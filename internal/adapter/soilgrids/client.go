// Package soilgrids queries topsoil texture from the ISRIC SoilGrids REST
// API.
package soilgrids

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/wofost-input-service/internal/domain"
	"github.com/couchcryptid/wofost-input-service/internal/soil"
)

const (
	queryPath  = "/soilgrids/v2.0/properties/query"
	depthLabel = "0-5cm"
)

// Client implements soil.TextureSource against the SoilGrids API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a SoilGrids client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Texture returns the mean sand/silt/clay fractions of the 0-5 cm layer at
// a coordinate, converted from g/kg to percent. Coordinates the database
// has no data for fail with ErrDataUnavailable.
func (c *Client) Texture(ctx context.Context, lon, lat float64) (soil.Texture, error) {
	params := url.Values{
		"lon":      {fmt.Sprintf("%.6f", lon)},
		"lat":      {fmt.Sprintf("%.6f", lat)},
		"property": {"sand", "silt", "clay"},
		"depth":    {depthLabel},
		"value":    {"mean"},
	}
	fullURL := c.baseURL + queryPath + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return soil.Texture{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return soil.Texture{}, fmt.Errorf("%w: SoilGrids request: %v", domain.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return soil.Texture{}, fmt.Errorf("%w: SoilGrids status %d: %s", domain.ErrFetch, resp.StatusCode, body)
	}

	var sgResp response
	if err := json.NewDecoder(resp.Body).Decode(&sgResp); err != nil {
		return soil.Texture{}, fmt.Errorf("%w: decode SoilGrids response: %v", domain.ErrFetch, err)
	}

	texture, err := sgResp.texture(lon, lat)
	if err != nil {
		return soil.Texture{}, err
	}

	c.logger.Debug("soilgrids texture",
		"lon", lon, "lat", lat,
		"sand", texture.Sand, "silt", texture.Silt, "clay", texture.Clay)
	return texture, nil
}

// SoilGrids API response types.

type response struct {
	Properties struct {
		Layers []layer `json:"layers"`
	} `json:"properties"`
}

type layer struct {
	Name        string `json:"name"`
	UnitMeasure struct {
		DFactor float64 `json:"d_factor"`
	} `json:"unit_measure"`
	Depths []struct {
		Label  string `json:"label"`
		Values struct {
			Mean *float64 `json:"mean"`
		} `json:"values"`
	} `json:"depths"`
}

func (r response) texture(lon, lat float64) (soil.Texture, error) {
	fractions := make(map[string]float64, 3)
	for _, l := range r.Properties.Layers {
		for _, d := range l.Depths {
			if d.Label != depthLabel {
				continue
			}
			if d.Values.Mean == nil {
				return soil.Texture{}, fmt.Errorf("%w: SoilGrids has no %s value at (%.4f, %.4f)",
					domain.ErrDataUnavailable, l.Name, lon, lat)
			}
			factor := l.UnitMeasure.DFactor
			if factor == 0 {
				factor = 10
			}
			fractions[l.Name] = *d.Values.Mean / factor
		}
	}

	for _, name := range []string{"sand", "silt", "clay"} {
		if _, ok := fractions[name]; !ok {
			return soil.Texture{}, fmt.Errorf("%w: SoilGrids response lacks %s at (%.4f, %.4f)",
				domain.ErrDataUnavailable, name, lon, lat)
		}
	}
	return soil.Texture{Sand: fractions["sand"], Silt: fractions["silt"], Clay: fractions["clay"]}, nil
}
