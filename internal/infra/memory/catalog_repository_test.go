package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"geoportal-service/internal/domain"
)

func TestCatalogRepositoryCaches(t *testing.T) {
	loader := &countingLoader{CatalogLoader: NewStaticCatalogLoader(sampleCatalog())}
	repo := NewCatalogRepository(loader, time.Minute)

	if _, err := repo.GetCatalog(context.Background()); err != nil {
		t.Fatalf("get catalog: %v", err)
	}
	if loader.calls.Load() != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls.Load())
	}

	catalog, err := repo.GetCatalog(context.Background())
	if err != nil {
		t.Fatalf("get catalog 2: %v", err)
	}
	if loader.calls.Load() != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls.Load())
	}
	if len(catalog.Topics) != 1 || catalog.Topics[0].ID != "gis" {
		t.Fatalf("unexpected catalog %+v", catalog.Topics)
	}
}

func TestCatalogRepositoryReloadsAfterExpiry(t *testing.T) {
	loader := &countingLoader{CatalogLoader: NewStaticCatalogLoader(sampleCatalog())}
	repo := NewCatalogRepository(loader, time.Minute)
	now := time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	_, _ = repo.GetCatalog(context.Background())
	now = now.Add(2 * time.Minute)
	_, _ = repo.GetCatalog(context.Background())
	if loader.calls.Load() != 2 {
		t.Fatalf("expected reload after ttl, got %d calls", loader.calls.Load())
	}

	repo.Invalidate()
	_, _ = repo.GetCatalog(context.Background())
	if loader.calls.Load() != 3 {
		t.Fatalf("expected reload after invalidate, got %d calls", loader.calls.Load())
	}
}

func TestCatalogRepositoryCollapsesConcurrentLoads(t *testing.T) {
	release := make(chan struct{})
	loader := &countingLoader{CatalogLoader: NewStaticCatalogLoader(sampleCatalog()), gate: release}
	repo := NewCatalogRepository(loader, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.GetCatalog(context.Background()); err != nil {
				t.Errorf("get catalog: %v", err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if loader.calls.Load() != 1 {
		t.Fatalf("expected a single load, got %d", loader.calls.Load())
	}
}

func TestCatalogRepositoryPropagatesLoaderError(t *testing.T) {
	repo := NewCatalogRepository(&StaticCatalogLoader{}, time.Minute)
	if _, err := repo.GetCatalog(context.Background()); !errors.Is(err, domain.ErrCatalogNotFound) {
		t.Fatalf("expected ErrCatalogNotFound, got %v", err)
	}
}

type countingLoader struct {
	CatalogLoader
	calls atomic.Int32
	gate  chan struct{}
}

func (l *countingLoader) LoadCatalog(ctx context.Context) (domain.Catalog, error) {
	l.calls.Add(1)
	if l.gate != nil {
		<-l.gate
	}
	return l.CatalogLoader.LoadCatalog(ctx)
}

func sampleCatalog() domain.Catalog {
	return domain.Catalog{
		Topics: []domain.Topic{{ID: "gis", Name: "GIS", RelatedResources: []string{"res-qgis"}}},
		Resources: []domain.Resource{
			{ID: "res-qgis", Title: "QGIS Training Manual", Type: domain.ResourceTutorial},
		},
		Equipment: []domain.Equipment{
			{ID: "eq-gnss", Name: "GNSS Receiver", Availability: domain.Available},
		},
		Questionnaire: domain.Questionnaire{
			Topics: []string{"gis"},
			Questions: []domain.Question{
				{ID: "q1", Options: []domain.Option{{ID: "o1", TopicMatches: map[string]int{"gis": 80}}}},
			},
		},
	}
}
