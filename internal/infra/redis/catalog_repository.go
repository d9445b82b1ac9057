package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"geoportal-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// CatalogLoader fetches catalog content from a backing store (e.g., Postgres).
type CatalogLoader interface {
	LoadCatalog(ctx context.Context) (domain.Catalog, error)
}

// CatalogKey holds one JSON document per collection:
//
//	HSET catalog:documents topics [...] resources [...] ... questionnaire {...}
const CatalogKey = "catalog:documents"

var catalogFields = []string{"topics", "resources", "datasets", "equipment", "careers", "questionnaire"}

// CatalogRepository caches the catalog in Redis and falls back to a loader on cache miss.
type CatalogRepository struct {
	client *redis.Client
	loader CatalogLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewCatalogRepository(client *redis.Client, loader CatalogLoader, ttl time.Duration) *CatalogRepository {
	return &CatalogRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CatalogRepository) GetCatalog(ctx context.Context) (domain.Catalog, error) {
	if catalog, ok := r.cached(ctx); ok {
		return catalog, nil
	}

	result, err, _ := r.sf.Do(CatalogKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if catalog, ok := r.cached(ctx); ok {
			return catalog, nil
		}

		catalog, err := r.loader.LoadCatalog(ctx)
		if err != nil {
			return domain.Catalog{}, err
		}
		if err := r.store(ctx, catalog); err != nil {
			return domain.Catalog{}, err
		}
		return catalog, nil
	})
	if err != nil {
		return domain.Catalog{}, err
	}
	return result.(domain.Catalog), nil
}

// Invalidate removes the cached documents.
func (r *CatalogRepository) Invalidate(ctx context.Context) error {
	return r.client.Del(ctx, CatalogKey).Err()
}

// cached reports a hit only when every collection decodes.
func (r *CatalogRepository) cached(ctx context.Context) (domain.Catalog, bool) {
	fields, err := r.client.HGetAll(ctx, CatalogKey).Result()
	if err != nil || len(fields) < len(catalogFields) {
		return domain.Catalog{}, false
	}
	var catalog domain.Catalog
	targets := map[string]any{
		"topics":        &catalog.Topics,
		"resources":     &catalog.Resources,
		"datasets":      &catalog.Datasets,
		"equipment":     &catalog.Equipment,
		"careers":       &catalog.Careers,
		"questionnaire": &catalog.Questionnaire,
	}
	for field, target := range targets {
		raw, ok := fields[field]
		if !ok {
			return domain.Catalog{}, false
		}
		if err := json.Unmarshal([]byte(raw), target); err != nil {
			return domain.Catalog{}, false
		}
	}
	return catalog, true
}

func (r *CatalogRepository) store(ctx context.Context, catalog domain.Catalog) error {
	docs := map[string]any{
		"topics":        catalog.Topics,
		"resources":     catalog.Resources,
		"datasets":      catalog.Datasets,
		"equipment":     catalog.Equipment,
		"careers":       catalog.Careers,
		"questionnaire": catalog.Questionnaire,
	}
	values := make([]any, 0, 2*len(docs))
	for _, field := range catalogFields {
		data, err := json.Marshal(docs[field])
		if err != nil {
			return fmt.Errorf("encode %s: %w", field, err)
		}
		values = append(values, field, string(data))
	}

	ttl := r.ttlWithJitter()
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, CatalogKey)
	pipe.HSet(ctx, CatalogKey, values...)
	if ttl > 0 {
		pipe.Expire(ctx, CatalogKey, ttl)
	}
	// A failed write only costs a reload on the next read.
	_, _ = pipe.Exec(ctx)
	return nil
}

func (r *CatalogRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
