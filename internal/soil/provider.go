// Package soil resolves the soil parameter set for a location from one of
// the supported soil databases. Texture fractions come from a database
// collaborator; the hydraulic parameter derivation is shared by all
// variants. Soil data is never gap-filled: a hole is a hard error.
package soil

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/couchcryptid/wofost-input-service/internal/domain"
	"github.com/couchcryptid/wofost-input-service/internal/observability"
)

// Provider is the uniform capability set over soil sources. Both methods
// are pure; all I/O happens during Build.
type Provider interface {
	Describe() string
	Parameters() domain.SoilParameters
}

// Selector names a soil source. Closed enumeration.
type Selector string

const (
	SelectorSoilGrids Selector = "SoilGrids"
	SelectorHWSD      Selector = "HWSD"
)

// ParseSelector validates a selector string.
func ParseSelector(s string) (Selector, error) {
	switch Selector(s) {
	case SelectorSoilGrids, SelectorHWSD:
		return Selector(s), nil
	default:
		return "", fmt.Errorf("unknown soil provider %q (want SoilGrids or HWSD)", s)
	}
}

// Texture is a location's topsoil composition in percent by weight.
type Texture struct {
	Sand float64
	Silt float64
	Clay float64
}

// Valid reports whether the fractions are usable: non-negative and summing
// to roughly 100%.
func (t Texture) Valid() bool {
	if t.Sand < 0 || t.Silt < 0 || t.Clay < 0 {
		return false
	}
	sum := t.Sand + t.Silt + t.Clay
	return math.Abs(sum-100) < 5
}

// TextureSource looks up topsoil texture for a coordinate. Implemented by
// adapter/soilgrids.Client and adapter/hwsd.DB.
type TextureSource interface {
	Texture(ctx context.Context, lon, lat float64) (Texture, error)
}

// Config carries the soil database collaborators.
type Config struct {
	SoilGrids TextureSource
	HWSD      TextureSource

	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Build resolves soil parameters for a location from the selected source.
// Locations outside the database extent fail with ErrDataUnavailable; a
// texture the derivation cannot use fails with ErrIncompleteSoilData.
func Build(ctx context.Context, sel Selector, loc domain.Location, cfg Config) (Provider, error) {
	if _, err := ParseSelector(string(sel)); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	var source TextureSource
	switch sel {
	case SelectorSoilGrids:
		source = cfg.SoilGrids
	case SelectorHWSD:
		source = cfg.HWSD
	}
	if source == nil {
		return nil, fmt.Errorf("%w: no %s source configured", domain.ErrDataUnavailable, sel)
	}

	texture, err := source.Texture(ctx, loc.Lon, loc.Lat)
	if cfg.Metrics != nil {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		cfg.Metrics.SoilLookups.WithLabelValues(string(sel), outcome).Inc()
	}
	if err != nil {
		return nil, err
	}
	if !texture.Valid() {
		return nil, fmt.Errorf("%w: unusable texture for %s (sand %.1f, silt %.1f, clay %.1f)",
			domain.ErrIncompleteSoilData, loc.GridRef, texture.Sand, texture.Silt, texture.Clay)
	}

	params, err := deriveParameters(loc, texture)
	if err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	cfg.Logger.Info("soil parameters resolved",
		"source", string(sel), "grid_ref", loc.GridRef, "soil", params.SoilName)

	return paramsProvider{source: sel, params: params}, nil
}

type paramsProvider struct {
	source Selector
	params domain.SoilParameters
}

func (p paramsProvider) Parameters() domain.SoilParameters { return p.params }

func (p paramsProvider) Describe() string {
	var b strings.Builder
	b.WriteString("============================================\n")
	fmt.Fprintf(&b, "Soil data provided by: %s\n", p.source)
	b.WriteString("----------------Description-----------------\n")
	fmt.Fprintf(&b, "Soil data for parcel in OS cell %s\n", p.params.GridRef)
	fmt.Fprintf(&b, "Lon: %.3f; Lat: %.3f\n", p.params.Lon, p.params.Lat)
	fmt.Fprintf(&b, "Soil type: %s\n", p.params.SoilName)
	b.WriteString("============================================")
	return b.String()
}
