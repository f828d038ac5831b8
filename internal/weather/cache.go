package weather

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/couchcryptid/wofost-input-service/internal/domain"
)

// DefaultCacheTTL is how long a cached series stays fresh. Remote archives
// gain recent days over time, so entries expire rather than live forever.
const DefaultCacheTTL = 90 * 24 * time.Hour

// SeriesCache is an injectable LRU of built weather series keyed by source,
// location, archive slice and window. Safe for concurrent use; a nil
// *SeriesCache in Config disables caching.
type SeriesCache struct {
	entries *lru.Cache[string, cachedSeries]
	ttl     time.Duration
}

type cachedSeries struct {
	series   domain.WeatherSeries
	storedAt time.Time
}

// NewSeriesCache creates a cache holding up to size series, each fresh for
// ttl (DefaultCacheTTL when ttl is 0).
func NewSeriesCache(size int, ttl time.Duration) (*SeriesCache, error) {
	if ttl == 0 {
		ttl = DefaultCacheTTL
	}
	entries, err := lru.New[string, cachedSeries](size)
	if err != nil {
		return nil, fmt.Errorf("create series cache: %w", err)
	}
	return &SeriesCache{entries: entries, ttl: ttl}, nil
}

// Get returns the cached series for key if present and still fresh.
func (c *SeriesCache) Get(key string) (domain.WeatherSeries, bool) {
	entry, ok := c.entries.Get(key)
	if !ok {
		return domain.WeatherSeries{}, false
	}
	if domain.Now().Sub(entry.storedAt) > c.ttl {
		c.entries.Remove(key)
		return domain.WeatherSeries{}, false
	}
	return entry.series, true
}

// Put stores a series under key, stamped with the current time.
func (c *SeriesCache) Put(key string, series domain.WeatherSeries) {
	c.entries.Add(key, cachedSeries{series: series, storedAt: domain.Now()})
}

// Len returns the number of cached entries, fresh or not.
func (c *SeriesCache) Len() int { return c.entries.Len() }

func cacheKey(sel Selector, loc domain.Location, window domain.Period, cfg Config) string {
	window.Start, window.End = domain.CivilDay(window.Start), domain.CivilDay(window.End)
	return fmt.Sprintf("%s|%s|%d|%s|%02d|%s..%s",
		sel, loc.GridRef, loc.ParcelID, cfg.RCP, cfg.Ensemble,
		window.Start.Format(time.DateOnly), window.End.Format(time.DateOnly))
}
