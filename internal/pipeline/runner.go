package pipeline

import (
	"context"
	"fmt"

	"github.com/couchcryptid/wofost-input-service/internal/domain"
	"github.com/couchcryptid/wofost-input-service/internal/sim"
)

// ManagerRunner implements Runner with one simulation manager per request.
type ManagerRunner struct {
	cfg sim.Config
}

// NewManagerRunner creates a runner sharing one collaborator set across
// managers. The weather series cache inside cfg makes repeated runs on the
// same site cheap.
func NewManagerRunner(cfg sim.Config) *ManagerRunner {
	return &ManagerRunner{cfg: cfg}
}

// Run provisions, validates, and runs one simulation.
func (r *ManagerRunner) Run(ctx context.Context, req RunRequest) (domain.SimulationResult, error) {
	m, err := sim.New(ctx, sim.LocationInput{ParcelID: req.ParcelID, GridRef: req.GridRef},
		req.Weather, req.Soil, r.cfg)
	if err != nil {
		return domain.SimulationResult{}, err
	}
	if err := m.Validate(req.Period); err != nil {
		return domain.SimulationResult{}, err
	}

	result, err := m.Run(ctx, req.Period, req.Calendar)
	if err != nil {
		return domain.SimulationResult{}, err
	}

	if result.RunID == "" {
		result.RunID = fmt.Sprintf("run-%s-%d", m.Location().GridRef, req.Calendar.CampaignYear)
	}
	if result.CompletedAt.IsZero() {
		result.CompletedAt = domain.Now()
	}
	return result, nil
}
