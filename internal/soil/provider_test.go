package soil_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/wofost-input-service/internal/domain"
	"github.com/couchcryptid/wofost-input-service/internal/observability"
	"github.com/couchcryptid/wofost-input-service/internal/soil"
)

var testLocation = domain.Location{
	ParcelID:  21616,
	GridRef:   "SW65902670",
	Lon:       -5.2744,
	Lat:       50.0942,
	Elevation: 66.0,
}

type fakeSource struct {
	texture soil.Texture
	err     error
	calls   int
}

func (f *fakeSource) Texture(_ context.Context, _, _ float64) (soil.Texture, error) {
	f.calls++
	if f.err != nil {
		return soil.Texture{}, f.err
	}
	return f.texture, nil
}

func testConfig(source *fakeSource) soil.Config {
	return soil.Config{
		SoilGrids: source,
		Metrics:   observability.NewMetricsForTesting(),
	}
}

func TestBuildDerivesParameters(t *testing.T) {
	source := &fakeSource{texture: soil.Texture{Sand: 40, Silt: 40, Clay: 20}}

	p, err := soil.Build(context.Background(), soil.SelectorSoilGrids, testLocation, testConfig(source))
	require.NoError(t, err)

	params := p.Parameters()
	assert.Equal(t, "SW65902670", params.GridRef)
	assert.Equal(t, "loam", params.SoilName)
	assert.InDelta(t, 0.078, params.ThetaR, 1e-9)
	assert.InDelta(t, 0.43, params.ThetaS, 1e-9)
	assert.InDelta(t, 24.96, params.K0, 1e-9)

	// Moisture ordering holds by construction of the retention curve.
	assert.Less(t, params.SMW, params.SMFCF)
	assert.Less(t, params.SMFCF, params.SM0)
	assert.InDelta(t, params.ThetaS, params.SM0, 0.01)

	// Both tables cover saturation plus pF 0..6 in 0.1 steps.
	assert.Len(t, params.SMTAB, 124)
	assert.Len(t, params.CONTAB, 124)
	assert.Equal(t, -1.0, params.SMTAB[0])
	assert.Equal(t, 6.0, params.SMTAB[122])

	// Conductivity at saturation is the class K0.
	assert.InDelta(t, params.K0, params.CONTAB[1], 1.0)
}

func TestBuildFixedConstants(t *testing.T) {
	source := &fakeSource{texture: soil.Texture{Sand: 65, Silt: 25, Clay: 10}}

	p, err := soil.Build(context.Background(), soil.SelectorSoilGrids, testLocation, testConfig(source))
	require.NoError(t, err)

	params := p.Parameters()
	assert.Equal(t, 0.060, params.CRAIRC)
	assert.Equal(t, 1.47, params.SOPE)
	assert.Equal(t, 1.47, params.KSUB)
	assert.Equal(t, 80.0, params.RDMSOL)
	assert.Equal(t, 0.100, params.SPADS)
	assert.Equal(t, 0.030, params.SPODS)
	assert.Equal(t, 0.200, params.SPASS)
	assert.Equal(t, 0.050, params.SPOSS)
	assert.Equal(t, -0.300, params.DEFLIM)
}

func TestBuildUnknownSelectorNoLookup(t *testing.T) {
	source := &fakeSource{texture: soil.Texture{Sand: 40, Silt: 40, Clay: 20}}

	p, err := soil.Build(context.Background(), soil.Selector("Terrarium"), testLocation, testConfig(source))
	require.Error(t, err)
	assert.Nil(t, p)
	assert.Zero(t, source.calls, "selector must be rejected before any lookup")
}

func TestBuildSourceErrorPropagates(t *testing.T) {
	lookupErr := fmt.Errorf("%w: no rows within extent", domain.ErrDataUnavailable)
	source := &fakeSource{err: lookupErr}

	_, err := soil.Build(context.Background(), soil.SelectorSoilGrids, testLocation, testConfig(source))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)
}

func TestBuildUnusableTexture(t *testing.T) {
	source := &fakeSource{texture: soil.Texture{Sand: 10, Silt: 10, Clay: 10}}

	_, err := soil.Build(context.Background(), soil.SelectorSoilGrids, testLocation, testConfig(source))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIncompleteSoilData)
	assert.Contains(t, err.Error(), "SW65902670")
}

func TestBuildMissingSourceForSelector(t *testing.T) {
	cfg := testConfig(&fakeSource{texture: soil.Texture{Sand: 40, Silt: 40, Clay: 20}})

	_, err := soil.Build(context.Background(), soil.SelectorHWSD, testLocation, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)
}

func TestBuildHWSDUsesItsOwnSource(t *testing.T) {
	grids := &fakeSource{texture: soil.Texture{Sand: 40, Silt: 40, Clay: 20}}
	hwsd := &fakeSource{texture: soil.Texture{Sand: 20, Silt: 20, Clay: 60}}
	cfg := soil.Config{
		SoilGrids: grids,
		HWSD:      hwsd,
		Metrics:   observability.NewMetricsForTesting(),
	}

	p, err := soil.Build(context.Background(), soil.SelectorHWSD, testLocation, cfg)
	require.NoError(t, err)
	assert.Equal(t, "clay", p.Parameters().SoilName)
	assert.Zero(t, grids.calls)
	assert.Equal(t, 1, hwsd.calls)
}

func TestDescribe(t *testing.T) {
	source := &fakeSource{texture: soil.Texture{Sand: 40, Silt: 40, Clay: 20}}

	p, err := soil.Build(context.Background(), soil.SelectorSoilGrids, testLocation, testConfig(source))
	require.NoError(t, err)

	banner := p.Describe()
	assert.Contains(t, banner, "SoilGrids")
	assert.Contains(t, banner, "SW65902670")
	assert.Contains(t, banner, "loam")
}

func TestParseSelector(t *testing.T) {
	_, err := soil.ParseSelector("SoilGrids")
	assert.NoError(t, err)
	_, err = soil.ParseSelector("HWSD")
	assert.NoError(t, err)
	_, err = soil.ParseSelector("soilgrids")
	assert.Error(t, err)
}

func TestTextureValid(t *testing.T) {
	assert.True(t, soil.Texture{Sand: 40, Silt: 40, Clay: 20}.Valid())
	assert.True(t, soil.Texture{Sand: 40.5, Silt: 39.8, Clay: 19.9}.Valid())
	assert.False(t, soil.Texture{Sand: 90, Silt: 90, Clay: 90}.Valid())
	assert.False(t, soil.Texture{Sand: -5, Silt: 80, Clay: 25}.Valid())
	assert.False(t, soil.Texture{}.Valid())
}

func TestRetentionTableMonotonic(t *testing.T) {
	source := &fakeSource{texture: soil.Texture{Sand: 20, Silt: 65, Clay: 15}}

	p, err := soil.Build(context.Background(), soil.SelectorSoilGrids, testLocation, testConfig(source))
	require.NoError(t, err)

	smtab := p.Parameters().SMTAB
	for i := 3; i < len(smtab); i += 2 {
		require.False(t, math.IsNaN(smtab[i]))
		require.LessOrEqual(t, smtab[i], smtab[i-2], "pF %.1f", smtab[i-1])
	}
}

func TestErrorChainStaysInspectable(t *testing.T) {
	source := &fakeSource{err: fmt.Errorf("query topsoil: %w", errors.New("connection refused"))}

	_, err := soil.Build(context.Background(), soil.SelectorSoilGrids, testLocation, testConfig(source))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
