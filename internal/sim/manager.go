// Package sim assembles simulation inputs for a single site and drives the
// crop engine with them. One Manager per request; construction does all
// provisioning I/O up front, then Validate and Run are cheap.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/wofost-input-service/internal/domain"
	"github.com/couchcryptid/wofost-input-service/internal/observability"
	"github.com/couchcryptid/wofost-input-service/internal/soil"
	"github.com/couchcryptid/wofost-input-service/internal/weather"
)

// State is the manager lifecycle position. A zero-value Manager is
// Uninitialized; New returns a Provisioned one; Validate promotes to Ready.
type State int

const (
	Uninitialized State = iota
	Provisioned
	Ready
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case Provisioned:
		return "Provisioned"
	case Ready:
		return "Ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Engine runs the crop model over an assembled input bundle. Implemented by
// adapter/engine.Client.
type Engine interface {
	Run(ctx context.Context, bundle domain.InputBundle, period domain.Period, calendar domain.CropCalendar) (domain.SimulationResult, error)
}

// LocationInput names a site by exactly one identity form. A non-zero
// ParcelID wins over GridRef, which wins over the coordinate.
type LocationInput struct {
	ParcelID int
	GridRef  string
	Lon      float64
	Lat      float64
	Figs     int // grid precision for coordinate inputs, 0 means default
}

// Config carries the manager's collaborators. Resolver and the selected
// providers' collaborators are required; Engine only for Run.
type Config struct {
	Resolver *domain.Resolver
	Weather  weather.Config
	Soil     soil.Config
	Engine   Engine

	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Manager holds the provisioned inputs for one site. Not safe for
// concurrent use; callers create one per request.
type Manager struct {
	state    State
	loc      domain.Location
	weather  weather.Provider
	soil     soil.Provider
	engine   Engine
	site     domain.SiteConstants
	period   domain.Period
	wsel     weather.Selector
	ssel     soil.Selector
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// New resolves the location and constructs the selected weather and soil
// providers. Unknown selectors fail before any I/O; resolution and
// provider failures propagate unmodified.
func New(ctx context.Context, input LocationInput, wsel weather.Selector, ssel soil.Selector, cfg Config) (*Manager, error) {
	if _, err := weather.ParseSelector(string(wsel)); err != nil {
		return nil, err
	}
	if _, err := soil.ParseSelector(string(ssel)); err != nil {
		return nil, err
	}
	if cfg.Resolver == nil {
		return nil, fmt.Errorf("sim: no resolver configured")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	loc, err := resolve(ctx, cfg.Resolver, input)
	if err != nil {
		return nil, err
	}

	wp, err := weather.Build(ctx, wsel, loc, domain.Period{}, cfg.Weather)
	if err != nil {
		return nil, err
	}
	sp, err := soil.Build(ctx, ssel, loc, cfg.Soil)
	if err != nil {
		return nil, err
	}

	cfg.Logger.Info("simulation inputs provisioned",
		"grid_ref", loc.GridRef, "weather", string(wsel), "soil", string(ssel))

	return &Manager{
		state:   Provisioned,
		loc:     loc,
		weather: wp,
		soil:    sp,
		engine:  cfg.Engine,
		site:    domain.DefaultSite(),
		wsel:    wsel,
		ssel:    ssel,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}, nil
}

func resolve(ctx context.Context, r *domain.Resolver, input LocationInput) (domain.Location, error) {
	switch {
	case input.ParcelID != 0:
		return r.ResolveParcel(ctx, input.ParcelID)
	case input.GridRef != "":
		return r.ResolveGridReference(ctx, input.GridRef)
	default:
		return r.ResolveCoordinate(ctx, input.Lon, input.Lat, input.Figs)
	}
}

// State returns the lifecycle position.
func (m *Manager) State() State { return m.state }

// Location returns the resolved site.
func (m *Manager) Location() domain.Location { return m.loc }

// Validate checks that the provisioned inputs can serve the requested
// simulation period. On failure the manager stays where it was; on success
// it becomes Ready for that period.
func (m *Manager) Validate(period domain.Period) error {
	if m.state == Uninitialized {
		return fmt.Errorf("sim: manager not provisioned")
	}
	if err := period.Validate(); err != nil {
		return err
	}

	series := m.weather.Series()
	if !series.Covers(period.Start, period.End) {
		return fmt.Errorf("%w: weather covers %s..%s, period wants %s..%s",
			domain.ErrIncompleteInputs,
			series.First.Format(time.DateOnly), series.Last.Format(time.DateOnly),
			period.Start.Format(time.DateOnly), period.End.Format(time.DateOnly))
	}
	if err := m.soil.Parameters().Validate(); err != nil {
		return fmt.Errorf("%w: soil for %s: %v", domain.ErrIncompleteInputs, m.loc.GridRef, err)
	}

	m.period = period
	m.state = Ready
	return nil
}

// Run assembles the input bundle and invokes the engine. The manager must
// be Ready and the period must match the validated one. Engine failures
// come back as *domain.EngineError.
func (m *Manager) Run(ctx context.Context, period domain.Period, calendar domain.CropCalendar) (domain.SimulationResult, error) {
	if m.state != Ready {
		return domain.SimulationResult{}, fmt.Errorf("sim: manager is %s, want Ready", m.state)
	}
	if !period.Start.Equal(m.period.Start) || !period.End.Equal(m.period.End) {
		return domain.SimulationResult{}, fmt.Errorf("sim: period differs from the validated one")
	}
	if m.engine == nil {
		return domain.SimulationResult{}, fmt.Errorf("sim: no engine configured")
	}

	bundle := domain.InputBundle{
		Location: m.loc,
		Weather:  m.weather.Series(),
		Soil:     m.soil.Parameters(),
		Site:     m.site,
		Period:   period,
		Calendar: calendar,
	}
	if err := bundle.Validate(); err != nil {
		return domain.SimulationResult{}, err
	}

	start := time.Now()
	result, err := m.engine.Run(ctx, bundle, period, calendar)
	if m.metrics != nil {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		m.metrics.SimulationRuns.WithLabelValues(outcome).Inc()
		m.metrics.SimulationDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return domain.SimulationResult{}, &domain.EngineError{Err: err}
	}

	m.logger.Info("simulation completed",
		"grid_ref", m.loc.GridRef, "crop", calendar.Crop, "yield", result.Yield)
	return result, nil
}

// Describe returns the simulator characteristics banner. It never fails;
// fields the manager has not resolved report as unresolved.
func (m *Manager) Describe() string {
	gridRef, soilName := "unresolved", "unresolved"
	lon, lat, elevation := "unresolved", "unresolved", "unresolved"
	if m.state >= Provisioned {
		gridRef = m.loc.GridRef
		lon = fmt.Sprintf("%.5f", m.loc.Lon)
		lat = fmt.Sprintf("%.5f", m.loc.Lat)
		elevation = fmt.Sprintf("%.2f", m.loc.Elevation)
		soilName = m.soil.Parameters().SoilName
	}

	msg := "======================================================\n"
	msg += "               Simulator characteristics\n"
	msg += "---------------------Description----------------------\n"
	msg += fmt.Sprintf("Wofost simulator for location at '%s'\n", gridRef)
	msg += fmt.Sprintf("Longitude: %s\n", lon)
	msg += fmt.Sprintf("Latitude: %s\n", lat)
	msg += fmt.Sprintf("Elevation: %s\n", elevation)
	msg += fmt.Sprintf("Soil type: %s\n", soilName)
	return msg
}
