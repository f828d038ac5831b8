// Package engine invokes the WOFOST engine service over HTTP.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/wofost-input-service/internal/domain"
)

const runPath = "/v1/runs"

// Client implements sim.Engine by POSTing input bundles to the engine
// service and decoding the run result.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an engine client. The timeout bounds a whole run.
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

// Run submits a bundle and waits for the engine's result. Failures are
// returned as plain errors; the manager decides how to classify them.
func (c *Client) Run(ctx context.Context, bundle domain.InputBundle, period domain.Period, calendar domain.CropCalendar) (domain.SimulationResult, error) {
	payload, err := json.Marshal(runRequest{Bundle: bundle, Period: period, Calendar: calendar})
	if err != nil {
		return domain.SimulationResult{}, fmt.Errorf("encode run request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+runPath, bytes.NewReader(payload))
	if err != nil {
		return domain.SimulationResult{}, fmt.Errorf("create run request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.SimulationResult{}, fmt.Errorf("engine request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.SimulationResult{}, fmt.Errorf("engine status %d: %s", resp.StatusCode, body)
	}

	var result domain.SimulationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return domain.SimulationResult{}, fmt.Errorf("decode engine result: %w", err)
	}

	c.logger.Debug("engine run finished",
		"grid_ref", bundle.Location.GridRef, "crop", calendar.Crop,
		"duration", time.Since(start))
	return result, nil
}

type runRequest struct {
	Bundle   domain.InputBundle  `json:"bundle"`
	Period   domain.Period       `json:"period"`
	Calendar domain.CropCalendar `json:"calendar"`
}
