package domain

import (
	"context"
	"fmt"
	"strings"
)

// DefaultFigs is the grid-reference precision used when none is requested:
// 8 figures, 10 m cells.
const DefaultFigs = 8

// Location is a resolved simulation site. Exactly one identity form (parcel
// ID, coordinate, or grid reference) is supplied at resolution time; the
// other forms are derived. Immutable once returned by a Resolver.
type Location struct {
	ParcelID int // 0 when not resolved from a parcel

	GridRef  string
	Easting  float64
	Northing float64

	Lon float64
	Lat float64

	Elevation float64 // metres above sea level, 0 when no terrain source
}

// Catalogue looks up parcels in the land-cover catalogue.
type Catalogue interface {
	// Lookup returns the grid reference of the parcel centroid and its
	// elevation in metres. Absent IDs fail with ErrLocationNotFound.
	Lookup(ctx context.Context, parcelID int) (gridRef string, elevation float64, err error)
}

// Terrain reports ground elevation for a grid reference.
type Terrain interface {
	Elevation(ctx context.Context, gridRef string) (float64, error)
}

// Resolver converts parcel IDs, coordinates, and grid references into
// Locations. Pure computation except for the catalogue and terrain lookups.
type Resolver struct {
	catalogue Catalogue
	terrain   Terrain
}

// NewResolver creates a Resolver. terrain may be nil, in which case
// coordinate- and grid-reference-resolved locations carry zero elevation.
func NewResolver(catalogue Catalogue, terrain Terrain) *Resolver {
	return &Resolver{catalogue: catalogue, terrain: terrain}
}

// ResolveParcel resolves a land-cover catalogue parcel to its centroid
// location. Unknown IDs fail with ErrLocationNotFound.
func (r *Resolver) ResolveParcel(ctx context.Context, parcelID int) (Location, error) {
	if r.catalogue == nil {
		return Location{}, fmt.Errorf("%w: no catalogue configured for parcel %d", ErrLocationNotFound, parcelID)
	}

	gridRef, elevation, err := r.catalogue.Lookup(ctx, parcelID)
	if err != nil {
		return Location{}, err
	}

	loc, err := r.resolveGridRef(ctx, gridRef)
	if err != nil {
		return Location{}, fmt.Errorf("parcel %d: %w", parcelID, err)
	}
	loc.ParcelID = parcelID
	loc.Elevation = elevation
	return loc, nil
}

// ResolveCoordinate resolves a WGS84 coordinate at the given grid precision
// (figs of 0 means DefaultFigs). Coordinates outside the National Grid
// envelope fail with ErrOutOfBounds.
func (r *Resolver) ResolveCoordinate(ctx context.Context, lon, lat float64, figs int) (Location, error) {
	if figs == 0 {
		figs = DefaultFigs
	}

	gridRef, err := GridReferenceFromLonLat(lon, lat, figs)
	if err != nil {
		return Location{}, err
	}

	easting, northing := EastingNorthing(lon, lat)
	loc := Location{
		GridRef:  gridRef,
		Easting:  easting,
		Northing: northing,
		Lon:      lon,
		Lat:      lat,
	}
	loc.Elevation, err = r.lookupElevation(ctx, gridRef)
	if err != nil {
		return Location{}, err
	}
	return loc, nil
}

// ResolveGridReference resolves an OS grid reference to the location of its
// cell. Malformed references fail with ErrInvalidGridReference.
func (r *Resolver) ResolveGridReference(ctx context.Context, code string) (Location, error) {
	return r.resolveGridRef(ctx, code)
}

func (r *Resolver) resolveGridRef(ctx context.Context, code string) (Location, error) {
	code = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(code), " ", ""))
	easting, northing, _, err := ParseGridReference(code)
	if err != nil {
		return Location{}, err
	}

	lon, lat, err := LonLatFromGridReference(code)
	if err != nil {
		return Location{}, err
	}

	loc := Location{
		GridRef:  code,
		Easting:  easting,
		Northing: northing,
		Lon:      lon,
		Lat:      lat,
	}
	loc.Elevation, err = r.lookupElevation(ctx, code)
	if err != nil {
		return Location{}, err
	}
	return loc, nil
}

func (r *Resolver) lookupElevation(ctx context.Context, gridRef string) (float64, error) {
	if r.terrain == nil {
		return 0, nil
	}
	return r.terrain.Elevation(ctx, gridRef)
}
