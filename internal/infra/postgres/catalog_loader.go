package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"geoportal-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
	"golang.org/x/sync/errgroup"
)

// Document kinds stored in catalog_documents.
const (
	KindTopic         = "topic"
	KindResource      = "resource"
	KindDataset       = "dataset"
	KindEquipment     = "equipment"
	KindCareer        = "career"
	KindQuestionnaire = "questionnaire"
)

// CatalogLoader loads catalog JSONB documents from Postgres.
type CatalogLoader struct {
	pool *pgxpool.Pool
}

func NewCatalogLoader(pool *pgxpool.Pool) *CatalogLoader {
	return &CatalogLoader{pool: pool}
}

// LoadCatalog reads every kind concurrently, each ordered by position.
func (l *CatalogLoader) LoadCatalog(ctx context.Context) (domain.Catalog, error) {
	var catalog domain.Catalog
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loadKind(gctx, l.pool, KindTopic, &catalog.Topics) })
	g.Go(func() error { return loadKind(gctx, l.pool, KindResource, &catalog.Resources) })
	g.Go(func() error { return loadKind(gctx, l.pool, KindDataset, &catalog.Datasets) })
	g.Go(func() error { return loadKind(gctx, l.pool, KindEquipment, &catalog.Equipment) })
	g.Go(func() error { return loadKind(gctx, l.pool, KindCareer, &catalog.Careers) })

	var questionnaires []domain.Questionnaire
	g.Go(func() error { return loadKind(gctx, l.pool, KindQuestionnaire, &questionnaires) })

	if err := g.Wait(); err != nil {
		return domain.Catalog{}, err
	}
	if len(questionnaires) == 0 {
		return domain.Catalog{}, fmt.Errorf("load catalog: %w", domain.ErrCatalogNotFound)
	}
	catalog.Questionnaire = questionnaires[0]
	return catalog, nil
}

func loadKind[T any](ctx context.Context, pool *pgxpool.Pool, kind string, out *[]T) error {
	rows, err := pool.Query(ctx, `SELECT data FROM catalog_documents WHERE kind=$1 ORDER BY position, id`, kind)
	if err != nil {
		return fmt.Errorf("load %s: %w", kind, err)
	}
	defer rows.Close()

	items := make([]T, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return fmt.Errorf("scan %s: %w", kind, err)
		}
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			return fmt.Errorf("unmarshal %s: %w", kind, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load %s: %w", kind, err)
	}
	*out = items
	return nil
}
