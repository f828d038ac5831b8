//go:build power

package power

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/wofost-input-service/internal/weather"
)

// These tests hit the real NASA POWER API (no credentials required).
// Run with: go test -tags=power ./internal/adapter/power/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	return NewClient("https://power.larc.nasa.gov", 60*time.Second,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSmoke_FetchCornwall(t *testing.T) {
	c := smokeClient(t)

	// The SW65902670 cell near Helston, one week in June 2020.
	result, err := c.Fetch(context.Background(), 50.0942, -5.2744,
		time.Date(2020, time.June, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, time.June, 7, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.InDelta(t, 50.09, result.Lat, 0.5, "lat should be near the requested cell")
	assert.InDelta(t, -5.27, result.Lon, 0.5, "lon should be near the requested cell")
	require.Len(t, result.Days, 7)

	for _, d := range result.Days {
		if d.T2M == weather.PowerFillValue {
			continue
		}
		assert.Greater(t, d.T2M, -20.0, "June temperature in Cornwall")
		assert.Less(t, d.T2M, 40.0)
		assert.GreaterOrEqual(t, d.T2MMax, d.T2MMin)
	}
	assert.Equal(t, time.Date(2020, time.June, 1, 0, 0, 0, 0, time.UTC), result.Days[0].Date)
}

func TestSmoke_FetchSingleDay(t *testing.T) {
	c := smokeClient(t)

	day := time.Date(2021, time.January, 15, 0, 0, 0, 0, time.UTC)
	result, err := c.Fetch(context.Background(), 50.726, -3.5275, day, day)
	require.NoError(t, err)
	require.Len(t, result.Days, 1)
	assert.Equal(t, day, result.Days[0].Date)
}
