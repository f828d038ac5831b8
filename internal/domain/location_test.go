package domain_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/couchcryptid/wofost-input-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalogue struct {
	parcels map[int]struct {
		gridRef   string
		elevation float64
	}
	lookups int
}

func (c *fakeCatalogue) Lookup(_ context.Context, parcelID int) (string, float64, error) {
	c.lookups++
	p, ok := c.parcels[parcelID]
	if !ok {
		return "", 0, fmt.Errorf("%w: parcel %d", domain.ErrLocationNotFound, parcelID)
	}
	return p.gridRef, p.elevation, nil
}

func newFakeCatalogue() *fakeCatalogue {
	return &fakeCatalogue{parcels: map[int]struct {
		gridRef   string
		elevation float64
	}{
		21616: {gridRef: "SW65902670", elevation: 66.0},
		30492: {gridRef: "SX92289293", elevation: 28.5},
	}}
}

func TestResolveParcel_ReferenceFixture(t *testing.T) {
	r := domain.NewResolver(newFakeCatalogue(), nil)

	loc, err := r.ResolveParcel(context.Background(), 21616)
	require.NoError(t, err)

	assert.Equal(t, 21616, loc.ParcelID)
	assert.Equal(t, "SW65902670", loc.GridRef)
	assert.InDelta(t, 66.0, loc.Elevation, 1e-9)
	assert.InDelta(t, -5.2744, loc.Lon, 0.001)
	assert.InDelta(t, 50.0942, loc.Lat, 0.001)
}

func TestResolveParcel_NotFound(t *testing.T) {
	r := domain.NewResolver(newFakeCatalogue(), nil)

	_, err := r.ResolveParcel(context.Background(), 99999)
	assert.ErrorIs(t, err, domain.ErrLocationNotFound)
}

func TestResolveCoordinate_ReferenceFixture(t *testing.T) {
	r := domain.NewResolver(nil, nil)

	loc, err := r.ResolveCoordinate(context.Background(), -3.5275, 50.7260, 8)
	require.NoError(t, err)

	assert.Equal(t, "SX92289293", loc.GridRef)
	assert.Equal(t, 0, loc.ParcelID)
	assert.InDelta(t, -3.5275, loc.Lon, 1e-9)
	assert.InDelta(t, 50.7260, loc.Lat, 1e-9)
}

func TestResolveCoordinate_DefaultFigs(t *testing.T) {
	r := domain.NewResolver(nil, nil)

	loc, err := r.ResolveCoordinate(context.Background(), -3.5275, 50.7260, 0)
	require.NoError(t, err)
	assert.Len(t, loc.GridRef, 10) // 2 letters + 8 figures
}

func TestResolveCoordinate_OutOfBounds(t *testing.T) {
	r := domain.NewResolver(nil, nil)

	// Paris is well outside the National Grid envelope.
	_, err := r.ResolveCoordinate(context.Background(), 2.3522, 48.8566, 8)
	assert.ErrorIs(t, err, domain.ErrOutOfBounds)
}

func TestResolveGridReference_Invalid(t *testing.T) {
	r := domain.NewResolver(nil, nil)

	_, err := r.ResolveGridReference(context.Background(), "not-a-ref")
	assert.ErrorIs(t, err, domain.ErrInvalidGridReference)
}

func TestResolve_Idempotent(t *testing.T) {
	// Resolving the same input twice yields identical locations, and
	// re-resolving a derived form recovers the same grid reference.
	r := domain.NewResolver(newFakeCatalogue(), nil)
	ctx := context.Background()

	a, err := r.ResolveParcel(ctx, 21616)
	require.NoError(t, err)
	b, err := r.ResolveParcel(ctx, 21616)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	viaRef, err := r.ResolveGridReference(ctx, a.GridRef)
	require.NoError(t, err)
	assert.Equal(t, a.GridRef, viaRef.GridRef)
	assert.InDelta(t, a.Lon, viaRef.Lon, 1e-9)
	assert.InDelta(t, a.Lat, viaRef.Lat, 1e-9)
}
