package catalogue

import (
	"context"
	"fmt"

	"github.com/couchcryptid/wofost-input-service/internal/domain"
)

// Entry is one parcel record in the in-memory catalogue.
type Entry struct {
	GridRef   string
	Elevation float64
}

// Memory is a fixed catalogue for tests and demos.
type Memory struct {
	parcels map[int]Entry
}

// NewMemory creates an in-memory catalogue from a parcel table. A nil map
// yields a small Cornwall/Devon fixture set.
func NewMemory(parcels map[int]Entry) *Memory {
	if parcels == nil {
		parcels = map[int]Entry{
			21616: {GridRef: "SW65902670", Elevation: 66.0},
			30492: {GridRef: "SX92289293", Elevation: 28.5},
		}
	}
	return &Memory{parcels: parcels}
}

// Lookup implements domain.Catalogue.
func (m *Memory) Lookup(_ context.Context, parcelID int) (string, float64, error) {
	entry, ok := m.parcels[parcelID]
	if !ok {
		return "", 0, fmt.Errorf("%w: parcel %d", domain.ErrLocationNotFound, parcelID)
	}
	return entry.GridRef, entry.Elevation, nil
}
