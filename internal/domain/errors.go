package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for input provisioning. Callers match with errors.Is; the
// manager propagates them unwrapped because they represent input problems
// (bad identifier, no coverage, malformed file) the caller must correct.
var (
	// ErrLocationNotFound reports a parcel ID absent from the land-cover catalogue.
	ErrLocationNotFound = errors.New("location not found")

	// ErrInvalidGridReference reports a malformed OS grid reference: wrong
	// length, odd digit count, or a letter pair outside the national grid.
	ErrInvalidGridReference = errors.New("invalid grid reference")

	// ErrOutOfBounds reports a coordinate outside the national grid envelope.
	ErrOutOfBounds = errors.New("coordinate outside national grid")

	// ErrDataUnavailable reports that a provider has no coverage for the location.
	ErrDataUnavailable = errors.New("no data available for location")

	// ErrFetch reports a transient I/O or network failure during provider construction.
	ErrFetch = errors.New("fetch failed")

	// ErrSchema reports a custom weather file missing required columns.
	ErrSchema = errors.New("weather file schema invalid")

	// ErrMalformedRow reports an unparseable or duplicate date in a weather file row.
	ErrMalformedRow = errors.New("malformed weather row")

	// ErrIncompleteSoilData reports a soil parameter set with missing fields.
	// Soil data has no gap-filling; any hole is a hard failure.
	ErrIncompleteSoilData = errors.New("incomplete soil data")

	// ErrIncompleteInputs reports that a provisioned input does not span the
	// requested simulation period. The message names the short input.
	ErrIncompleteInputs = errors.New("incomplete simulation inputs")
)

// EngineError wraps whatever the simulation engine reported, opaquely.
// The engine's failure semantics are not interpreted here.
type EngineError struct {
	Err error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("simulation engine: %v", e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}
