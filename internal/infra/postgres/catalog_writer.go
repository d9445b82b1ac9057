package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"geoportal-service/internal/domain"
	"github.com/uptrace/bun"
)

type catalogDocument struct {
	bun.BaseModel `bun:"table:catalog_documents"`

	Kind      string          `bun:"kind,pk"`
	ID        string          `bun:"id,pk"`
	Position  int             `bun:"position,notnull"`
	Data      json.RawMessage `bun:"data,type:jsonb,notnull"`
	UpdatedAt time.Time       `bun:"updated_at,notnull"`
}

// CatalogWriter replaces the stored catalog documents.
type CatalogWriter struct {
	db  *bun.DB
	now func() time.Time
}

func NewCatalogWriter(db *bun.DB) *CatalogWriter {
	return &CatalogWriter{db: db, now: time.Now}
}

// WriteCatalog stores catalog in one transaction and returns the number of documents written.
func (w *CatalogWriter) WriteCatalog(ctx context.Context, catalog domain.Catalog) (int, error) {
	docs, err := w.documents(catalog)
	if err != nil {
		return 0, err
	}

	err = w.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*catalogDocument)(nil)).Where("TRUE").Exec(ctx); err != nil {
			return fmt.Errorf("clear catalog: %w", err)
		}
		if _, err := tx.NewInsert().Model(&docs).Exec(ctx); err != nil {
			return fmt.Errorf("insert catalog: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

func (w *CatalogWriter) documents(catalog domain.Catalog) ([]catalogDocument, error) {
	now := w.now().UTC()
	var docs []catalogDocument
	add := func(kind, id string, pos int, v any) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", kind, id, err)
		}
		docs = append(docs, catalogDocument{Kind: kind, ID: id, Position: pos, Data: data, UpdatedAt: now})
		return nil
	}

	for i, t := range catalog.Topics {
		if err := add(KindTopic, t.ID, i, t); err != nil {
			return nil, err
		}
	}
	for i, r := range catalog.Resources {
		if err := add(KindResource, r.ID, i, r); err != nil {
			return nil, err
		}
	}
	for i, d := range catalog.Datasets {
		if err := add(KindDataset, d.ID, i, d); err != nil {
			return nil, err
		}
	}
	for i, e := range catalog.Equipment {
		if err := add(KindEquipment, e.ID, i, e); err != nil {
			return nil, err
		}
	}
	for i, c := range catalog.Careers {
		if err := add(KindCareer, c.ID, i, c); err != nil {
			return nil, err
		}
	}
	if err := add(KindQuestionnaire, "default", 0, catalog.Questionnaire); err != nil {
		return nil, err
	}
	return docs, nil
}
