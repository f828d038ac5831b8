package soilgrids

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/wofost-input-service/internal/domain"
)

const soilGridsResponse = `{
	"properties": {
		"layers": [
			{
				"name": "sand",
				"unit_measure": {"d_factor": 10},
				"depths": [{"label": "0-5cm", "values": {"mean": 412}}]
			},
			{
				"name": "silt",
				"unit_measure": {"d_factor": 10},
				"depths": [{"label": "0-5cm", "values": {"mean": 388}}]
			},
			{
				"name": "clay",
				"unit_measure": {"d_factor": 10},
				"depths": [{"label": "0-5cm", "values": {"mean": 200}}]
			}
		]
	}
}`

func TestTexture(t *testing.T) {
	var gotURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		fmt.Fprint(w, soilGridsResponse)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second, nil)
	texture, err := c.Texture(context.Background(), -5.2744, 50.0942)
	require.NoError(t, err)

	assert.InDelta(t, 41.2, texture.Sand, 1e-9)
	assert.InDelta(t, 38.8, texture.Silt, 1e-9)
	assert.InDelta(t, 20.0, texture.Clay, 1e-9)

	assert.Contains(t, gotURL, "lon=-5.274400")
	assert.Contains(t, gotURL, "lat=50.094200")
	assert.Contains(t, gotURL, "depth=0-5cm")
	assert.Contains(t, gotURL, "value=mean")
}

func TestTextureNullValues(t *testing.T) {
	// Offshore and non-covered coordinates come back with null means.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{
			"properties": {
				"layers": [
					{"name": "sand", "depths": [{"label": "0-5cm", "values": {"mean": null}}]}
				]
			}
		}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second, nil)
	_, err := c.Texture(context.Background(), -10.0, 48.0)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)
}

func TestTextureMissingLayer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{
			"properties": {
				"layers": [
					{"name": "sand", "unit_measure": {"d_factor": 10},
					 "depths": [{"label": "0-5cm", "values": {"mean": 412}}]}
				]
			}
		}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second, nil)
	_, err := c.Texture(context.Background(), -5.2744, 50.0942)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)
	assert.Contains(t, err.Error(), "silt")
}

func TestTextureServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second, nil)
	_, err := c.Texture(context.Background(), -5.2744, 50.0942)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFetch)
}

func TestTextureBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "gravel")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second, nil)
	_, err := c.Texture(context.Background(), -5.2744, 50.0942)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFetch)
}

func TestTextureNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL, time.Second, nil)
	_, err := c.Texture(context.Background(), -5.2744, 50.0942)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFetch)
}
