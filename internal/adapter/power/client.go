// Package power fetches the NASA POWER daily point archive over HTTP.
package power

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"github.com/couchcryptid/wofost-input-service/internal/domain"
	"github.com/couchcryptid/wofost-input-service/internal/weather"
)

// parameters requested from the archive, in POWER's naming.
const powerParameters = "T2M,T2M_MIN,T2M_MAX,ALLSKY_SFC_SW_DWN,ALLSKY_SFC_LW_DWN,RH2M,PRECTOTCORR,WS2M"

const powerDateLayout = "20060102"

// Client implements weather.PowerFetcher against the POWER REST API.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	breaker        *gobreaker.CircuitBreaker
	maxRetries     uint64
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
}

// NewClient creates a POWER client. The circuit breaker opens after
// consecutive upstream failures; each Fetch retries transient errors with
// capped exponential backoff.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "nasa-power",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
		maxRetries:     3,
		initialBackoff: 500 * time.Millisecond,
		maxBackoff:     10 * time.Second,
		logger:         logger,
	}
}

// Fetch retrieves the daily archive for a coordinate and date range.
// Network and upstream failures come back wrapped in domain.ErrFetch.
func (c *Client) Fetch(ctx context.Context, lat, lon float64, start, end time.Time) (weather.PowerResult, error) {
	params := url.Values{
		"parameters": {powerParameters},
		"community":  {"AG"},
		"longitude":  {fmt.Sprintf("%.4f", lon)},
		"latitude":   {fmt.Sprintf("%.4f", lat)},
		"start":      {start.Format(powerDateLayout)},
		"end":        {end.Format(powerDateLayout)},
		"format":     {"JSON"},
	}
	fullURL := c.baseURL + "/api/temporal/daily/point?" + params.Encode()

	body, err := c.get(ctx, fullURL)
	if err != nil {
		return weather.PowerResult{}, fmt.Errorf("%w: POWER archive: %v", domain.ErrFetch, err)
	}

	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return weather.PowerResult{}, fmt.Errorf("%w: decode POWER response: %v", domain.ErrFetch, err)
	}
	return resp.toResult()
}

// get runs the request through the breaker, retrying transient failures.
func (c *Client) get(ctx context.Context, fullURL string) ([]byte, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.initialBackoff
	bo.MaxInterval = c.maxBackoff

	var body []byte
	operation := func() error {
		result, err := c.breaker.Execute(func() (interface{}, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
			if err != nil {
				return nil, backoff.Permanent(err)
			}
			resp, err := c.httpClient.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()

			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				io.Copy(io.Discard, resp.Body)
				return nil, fmt.Errorf("status %d", resp.StatusCode)
			}
			if resp.StatusCode != http.StatusOK {
				b, _ := io.ReadAll(resp.Body)
				return nil, backoff.Permanent(fmt.Errorf("status %d: %s", resp.StatusCode, b))
			}
			return io.ReadAll(resp.Body)
		})
		if err != nil {
			if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
				return backoff.Permanent(err)
			}
			return err
		}
		body = result.([]byte)
		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, c.maxRetries), ctx))
	if err != nil && c.logger != nil {
		c.logger.Warn("POWER request failed", "url", fullURL, "error", err)
	}
	return body, err
}

// POWER API response types.

type response struct {
	Geometry struct {
		Coordinates []float64 `json:"coordinates"` // [lon, lat, elevation]
	} `json:"geometry"`
	Properties struct {
		Parameter map[string]map[string]float64 `json:"parameter"`
	} `json:"properties"`
}

func (r response) toResult() (weather.PowerResult, error) {
	result := weather.PowerResult{}
	if len(r.Geometry.Coordinates) == 3 {
		result.Lon = r.Geometry.Coordinates[0]
		result.Lat = r.Geometry.Coordinates[1]
		result.Elevation = r.Geometry.Coordinates[2]
	}

	t2m := r.Properties.Parameter["T2M"]
	if len(t2m) == 0 {
		return result, nil
	}

	dates := make([]string, 0, len(t2m))
	for d := range t2m {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	value := func(param, date string) float64 {
		if vals, ok := r.Properties.Parameter[param]; ok {
			if v, ok := vals[date]; ok {
				return v
			}
		}
		return weather.PowerFillValue
	}

	for _, d := range dates {
		date, err := time.Parse(powerDateLayout, d)
		if err != nil {
			return weather.PowerResult{}, fmt.Errorf("%w: POWER date %q: %v", domain.ErrFetch, d, err)
		}
		result.Days = append(result.Days, weather.PowerDay{
			Date:   date,
			T2M:    value("T2M", d),
			T2MMin: value("T2M_MIN", d),
			T2MMax: value("T2M_MAX", d),
			SWDown: value("ALLSKY_SFC_SW_DWN", d),
			LWDown: value("ALLSKY_SFC_LW_DWN", d),
			RH2M:   value("RH2M", d),
			Precip: value("PRECTOTCORR", d),
			Wind:   value("WS2M", d),
		})
	}
	return result, nil
}
