package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/IlTetta/Climate-Monitoring-App/internal/models"
	"github.com/IlTetta/Climate-Monitoring-App/pkg/metrics"
)

const cityCacheName = "city"

// cityCache memoizes GetCity lookups. Cities are seeded data, so entries only
// need dropping when UpdateCity rewrites one.
type cityCache struct {
	entries *cache.Cache
	metrics *metrics.Collector
}

func (c *cityCache) get(ctx context.Context, inner CityRepository, id int64) (*models.City, error) {
	key := strconv.FormatInt(id, 10)

	if v, ok := c.entries.Get(key); ok {
		c.metrics.RecordCacheLookup(cityCacheName, true)
		city := v.(models.City)
		return &city, nil
	}
	c.metrics.RecordCacheLookup(cityCacheName, false)

	city, err := inner.GetCity(ctx, id)
	if err != nil {
		return nil, err
	}

	c.entries.SetDefault(key, *city)
	return city, nil
}

func (c *cityCache) update(ctx context.Context, inner CityRepository, city *models.City) error {
	c.entries.Delete(strconv.FormatInt(city.ID, 10))
	return inner.UpdateCity(ctx, city)
}

// cachedStore decorates a Store with a city lookup cache
type cachedStore struct {
	Store
	cities *cityCache
}

// NewCachedStore wraps store so GetCity results are kept for ttl
func NewCachedStore(store Store, ttl time.Duration, metricsCollector *metrics.Collector) Store {
	return &cachedStore{
		Store: store,
		cities: &cityCache{
			entries: cache.New(ttl, 2*ttl),
			metrics: metricsCollector,
		},
	}
}

// GetCity retrieves a city by ID, serving repeated lookups from memory
func (s *cachedStore) GetCity(ctx context.Context, id int64) (*models.City, error) {
	return s.cities.get(ctx, s.Store, id)
}

// UpdateCity evicts the cached entry and updates the city
func (s *cachedStore) UpdateCity(ctx context.Context, city *models.City) error {
	return s.cities.update(ctx, s.Store, city)
}

// WithinTx runs fn with a transactional view that shares the city cache
func (s *cachedStore) WithinTx(ctx context.Context, fn func(tx Repositories) error) error {
	return s.Store.WithinTx(ctx, func(tx Repositories) error {
		return fn(&cachedRepositories{Repositories: tx, cities: s.cities})
	})
}

type cachedRepositories struct {
	Repositories
	cities *cityCache
}

func (r *cachedRepositories) GetCity(ctx context.Context, id int64) (*models.City, error) {
	return r.cities.get(ctx, r.Repositories, id)
}

func (r *cachedRepositories) UpdateCity(ctx context.Context, city *models.City) error {
	return r.cities.update(ctx, r.Repositories, city)
}
