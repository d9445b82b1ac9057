package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"geoportal-service/internal/app"
	"geoportal-service/internal/domain"
	"geoportal-service/internal/infra/memory"
	"geoportal-service/internal/infra/seed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalogService() *app.CatalogService {
	repo := memory.NewCatalogRepository(memory.NewStaticCatalogLoader(seed.MustCatalog()), 5*time.Minute)
	return app.NewCatalogService(repo)
}

func TestTopicsPaginateWithDefaults(t *testing.T) {
	svc := newCatalogService()

	page, err := svc.Topics(context.Background(), app.TopicFilter{}, app.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 10, page.Total)
	assert.Equal(t, app.TopicsPerPage, page.PerPage)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Items, 9)
	assert.Equal(t, "photogrammetry", page.Items[0].ID)

	second, err := svc.Topics(context.Background(), app.TopicFilter{}, app.ListParams{Page: 2})
	require.NoError(t, err)
	assert.Len(t, second.Items, 1)

	past, err := svc.Topics(context.Background(), app.TopicFilter{}, app.ListParams{Page: 7})
	require.NoError(t, err)
	assert.Equal(t, 1, past.Page, "out-of-range page falls back to the first")
}

func TestTopicsFilterByCategoryAndSearch(t *testing.T) {
	svc := newCatalogService()
	ctx := context.Background()

	all, err := svc.Catalog(ctx)
	require.NoError(t, err)
	category := all.Topics[0].Categories[0]

	page, err := svc.Topics(ctx, app.TopicFilter{Category: category}, app.ListParams{PerPage: 100})
	require.NoError(t, err)
	require.NotEmpty(t, page.Items)
	for _, topic := range page.Items {
		assert.Contains(t, topic.Categories, category)
	}

	none, err := svc.Topics(ctx, app.TopicFilter{Search: "no-such-topic-anywhere"}, app.ListParams{})
	require.NoError(t, err)
	assert.Empty(t, none.Items)
	assert.Equal(t, 1, none.TotalPages)
}

func TestDetailLookupsReportNotFound(t *testing.T) {
	svc := newCatalogService()
	ctx := context.Background()

	_, err := svc.Topic(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrTopicNotFound))
	_, err = svc.Resource(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrResourceNotFound))
	_, err = svc.Dataset(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrDatasetNotFound))
	_, err = svc.EquipmentItem(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrEquipmentNotFound))
	_, err = svc.Career(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrCareerNotFound))

	topic, err := svc.Topic(ctx, "gis")
	require.NoError(t, err)
	assert.Equal(t, "gis", topic.ID)
}

func TestResourcesForTopicFollowRelatedResources(t *testing.T) {
	svc := newCatalogService()
	ctx := context.Background()

	topic, err := svc.Topic(ctx, "gis")
	require.NoError(t, err)

	page, err := svc.Resources(ctx, app.ResourceFilter{TopicID: "gis"}, app.ListParams{PerPage: 100})
	require.NoError(t, err)
	ids := make([]string, 0, len(page.Items))
	for _, r := range page.Items {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, topic.RelatedResources, ids)

	_, err = svc.Resources(ctx, app.ResourceFilter{TopicID: "missing"}, app.ListParams{})
	assert.ErrorIs(t, err, domain.ErrTopicNotFound)
}

func TestDatasetsSortNewestFirstByDefault(t *testing.T) {
	svc := newCatalogService()

	page, err := svc.Datasets(context.Background(), app.DatasetFilter{}, app.ListParams{PerPage: 100})
	require.NoError(t, err)
	for i := 1; i < len(page.Items); i++ {
		assert.GreaterOrEqual(t, page.Items[i-1].LastUpdated, page.Items[i].LastUpdated)
	}

	byName, err := svc.Datasets(context.Background(), app.DatasetFilter{}, app.ListParams{PerPage: 100, SortBy: "name"})
	require.NoError(t, err)
	for i := 1; i < len(byName.Items); i++ {
		assert.LessOrEqual(t, strings.ToLower(byName.Items[i-1].Name), strings.ToLower(byName.Items[i].Name))
	}
}

func TestDatasetsFilterByAuthentication(t *testing.T) {
	svc := newCatalogService()
	open := false

	page, err := svc.Datasets(context.Background(), app.DatasetFilter{RequiresAuthentication: &open}, app.ListParams{PerPage: 100})
	require.NoError(t, err)
	for _, d := range page.Items {
		assert.False(t, d.RequiresAuthentication, d.ID)
	}
}

func TestEquipmentFilterByAvailability(t *testing.T) {
	svc := newCatalogService()

	page, err := svc.Equipment(context.Background(), app.EquipmentFilter{
		Availability: []domain.AvailabilityStatus{domain.Unavailable},
	}, app.ListParams{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "eq-faro-focus", page.Items[0].ID)

	sorted, err := svc.Equipment(context.Background(), app.EquipmentFilter{}, app.ListParams{SortBy: "availability", SortOrder: app.SortDesc})
	require.NoError(t, err)
	assert.Equal(t, domain.Unavailable, sorted.Items[0].Availability)

	// Available first when no sort is requested.
	byDefault, err := svc.Equipment(context.Background(), app.EquipmentFilter{}, app.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, domain.Available, byDefault.Items[0].Availability)
	assert.Equal(t, domain.Unavailable, byDefault.Items[len(byDefault.Items)-1].Availability)
}

func TestResourcesSortByTitleByDefault(t *testing.T) {
	svc := newCatalogService()

	page, err := svc.Resources(context.Background(), app.ResourceFilter{}, app.ListParams{PerPage: 100})
	require.NoError(t, err)
	for i := 1; i < len(page.Items); i++ {
		assert.LessOrEqual(t, strings.ToLower(page.Items[i-1].Title), strings.ToLower(page.Items[i].Title))
	}
}

func TestCareersFilterBySkill(t *testing.T) {
	svc := newCatalogService()
	ctx := context.Background()

	all, err := svc.Careers(ctx, app.CareerFilter{}, app.ListParams{})
	require.NoError(t, err)
	require.NotEmpty(t, all.Items)
	skill := all.Items[0].RequiredSkills[0].Name

	page, err := svc.Careers(ctx, app.CareerFilter{Skills: []string{skill}}, app.ListParams{})
	require.NoError(t, err)
	require.NotEmpty(t, page.Items)
	for _, c := range page.Items {
		found := false
		for _, s := range c.RequiredSkills {
			if s.Name == skill {
				found = true
			}
		}
		assert.True(t, found, "career %s lacks skill %s", c.ID, skill)
	}
}

func TestRelatedResourcesUnionKeepsOrder(t *testing.T) {
	svc := newCatalogService()
	ctx := context.Background()

	gis, err := svc.Topic(ctx, "gis")
	require.NoError(t, err)

	ids, err := svc.RelatedResources(ctx, []string{"gis", "gis", "missing"})
	require.NoError(t, err)
	assert.Equal(t, gis.RelatedResources, ids)
}
