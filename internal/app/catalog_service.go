package app

import (
	"context"
	"strings"

	"geoportal-service/internal/domain"
)

// CatalogRepository loads catalog content (from cache/backing store).
type CatalogRepository interface {
	GetCatalog(ctx context.Context) (domain.Catalog, error)
}

// CatalogService answers list and detail queries over the static catalog.
type CatalogService struct {
	repo CatalogRepository
}

func NewCatalogService(repo CatalogRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

// Catalog returns the full catalog as currently cached.
func (s *CatalogService) Catalog(ctx context.Context) (domain.Catalog, error) {
	return s.repo.GetCatalog(ctx)
}

type TopicFilter struct {
	Category            string
	Search              string
	TechnicalDifficulty []domain.Difficulty
	ProgrammingRequired []domain.Difficulty
	FieldWork           []domain.Difficulty
	CareerRelevance     []domain.Difficulty
}

func (f TopicFilter) match(t domain.Topic) bool {
	if f.Category != "" && !intersects([]string{f.Category}, t.Categories) {
		return false
	}
	return containsFold(f.Search, t.Name, t.Description) &&
		anyOf(f.TechnicalDifficulty, t.TechnicalDifficulty) &&
		anyOf(f.ProgrammingRequired, t.ProgrammingRequired) &&
		anyOf(f.FieldWork, t.FieldWork) &&
		anyOf(f.CareerRelevance, t.CareerRelevance)
}

var topicSorts = comparators[domain.Topic]{
	"name":                func(a, b domain.Topic) int { return compareFold(a.Name, b.Name) },
	"technicalDifficulty": func(a, b domain.Topic) int { return compareInt(a.TechnicalDifficulty.Rank(), b.TechnicalDifficulty.Rank()) },
	"careerRelevance":     func(a, b domain.Topic) int { return compareInt(a.CareerRelevance.Rank(), b.CareerRelevance.Rank()) },
}

func (s *CatalogService) Topics(ctx context.Context, f TopicFilter, p ListParams) (Page[domain.Topic], error) {
	catalog, err := s.repo.GetCatalog(ctx)
	if err != nil {
		return Page[domain.Topic]{}, err
	}
	items := sortItems(filterItems(catalog.Topics, f.match), p, topicSorts, "", SortAsc)
	return paginate(items, p, TopicsPerPage), nil
}

func (s *CatalogService) Topic(ctx context.Context, id string) (domain.Topic, error) {
	catalog, err := s.repo.GetCatalog(ctx)
	if err != nil {
		return domain.Topic{}, err
	}
	for _, t := range catalog.Topics {
		if t.ID == id {
			return t, nil
		}
	}
	return domain.Topic{}, domain.ErrTopicNotFound
}

// TopicsByIDs returns the named topics in the order given, skipping unknown IDs.
func (s *CatalogService) TopicsByIDs(ctx context.Context, ids []string) ([]domain.Topic, error) {
	catalog, err := s.repo.GetCatalog(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Topic, len(catalog.Topics))
	for _, t := range catalog.Topics {
		byID[t.ID] = t
	}
	out := make([]domain.Topic, 0, len(ids))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

type ResourceFilter struct {
	Types      []domain.ResourceType
	Categories []string
	Tags       []string
	Difficulty []domain.Difficulty
	// TopicID limits results to the topic's related resources.
	TopicID string
	Search  string
}

var resourceSorts = comparators[domain.Resource]{
	"title":      func(a, b domain.Resource) int { return compareFold(a.Title, b.Title) },
	"type":       func(a, b domain.Resource) int { return compareFold(string(a.Type), string(b.Type)) },
	"difficulty": func(a, b domain.Resource) int { return compareInt(a.Difficulty.Rank(), b.Difficulty.Rank()) },
}

func (s *CatalogService) Resources(ctx context.Context, f ResourceFilter, p ListParams) (Page[domain.Resource], error) {
	catalog, err := s.repo.GetCatalog(ctx)
	if err != nil {
		return Page[domain.Resource]{}, err
	}

	var related map[string]struct{}
	if f.TopicID != "" {
		topic, ok := findTopic(catalog, f.TopicID)
		if !ok {
			return Page[domain.Resource]{}, domain.ErrTopicNotFound
		}
		related = setOf(topic.RelatedResources)
	}

	items := filterItems(catalog.Resources, func(r domain.Resource) bool {
		if related != nil {
			if _, ok := related[r.ID]; !ok {
				return false
			}
		}
		return anyOf(f.Types, r.Type) &&
			anyOf(f.Difficulty, r.Difficulty) &&
			intersects(f.Categories, r.Categories) &&
			intersects(f.Tags, r.Tags) &&
			containsFold(f.Search, append([]string{r.Title, r.Description}, r.Tags...)...)
	})
	return paginate(sortItems(items, p, resourceSorts, "title", SortAsc), p, ResourcesPerPage), nil
}

func (s *CatalogService) Resource(ctx context.Context, id string) (domain.Resource, error) {
	catalog, err := s.repo.GetCatalog(ctx)
	if err != nil {
		return domain.Resource{}, err
	}
	for _, r := range catalog.Resources {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.Resource{}, domain.ErrResourceNotFound
}

// RelatedResources returns the ordered, de-duplicated union of the topics'
// related resource IDs. Unknown topics contribute nothing.
func (s *CatalogService) RelatedResources(ctx context.Context, topicIDs []string) ([]string, error) {
	catalog, err := s.repo.GetCatalog(ctx)
	if err != nil {
		return nil, err
	}
	out := []string{}
	seen := make(map[string]struct{})
	for _, id := range topicIDs {
		topic, ok := findTopic(catalog, id)
		if !ok {
			continue
		}
		for _, rid := range topic.RelatedResources {
			if _, dup := seen[rid]; dup {
				continue
			}
			seen[rid] = struct{}{}
			out = append(out, rid)
		}
	}
	return out, nil
}

type DatasetFilter struct {
	Sources                []string
	Formats                []string
	Categories             []string
	RequiresAuthentication *bool
	// TopicID limits results to the topic's related datasets.
	TopicID string
	Search  string
}

var datasetSorts = comparators[domain.Dataset]{
	"name":        func(a, b domain.Dataset) int { return compareFold(a.Name, b.Name) },
	"source":      func(a, b domain.Dataset) int { return compareFold(a.Source, b.Source) },
	"format":      func(a, b domain.Dataset) int { return compareFold(a.Format, b.Format) },
	"size":        func(a, b domain.Dataset) int { return compareInt(leadingInt(a.Size), leadingInt(b.Size)) },
	"lastUpdated": func(a, b domain.Dataset) int { return compareDay(a.LastUpdated, b.LastUpdated) },
}

func (s *CatalogService) Datasets(ctx context.Context, f DatasetFilter, p ListParams) (Page[domain.Dataset], error) {
	catalog, err := s.repo.GetCatalog(ctx)
	if err != nil {
		return Page[domain.Dataset]{}, err
	}

	var related map[string]struct{}
	if f.TopicID != "" {
		topic, ok := findTopic(catalog, f.TopicID)
		if !ok {
			return Page[domain.Dataset]{}, domain.ErrTopicNotFound
		}
		related = setOf(topic.RelatedDatasets)
	}

	items := filterItems(catalog.Datasets, func(d domain.Dataset) bool {
		if related != nil {
			if _, ok := related[d.ID]; !ok {
				return false
			}
		}
		if f.RequiresAuthentication != nil && *f.RequiresAuthentication != d.RequiresAuthentication {
			return false
		}
		return intersects(f.Sources, []string{d.Source}) &&
			intersects(f.Formats, []string{d.Format}) &&
			intersects(f.Categories, d.Categories) &&
			containsFold(f.Search, d.Name, d.Description, d.Source)
	})
	// Newest first unless the caller asks otherwise.
	return paginate(sortItems(items, p, datasetSorts, "lastUpdated", SortDesc), p, DatasetsPerPage), nil
}

func (s *CatalogService) Dataset(ctx context.Context, id string) (domain.Dataset, error) {
	catalog, err := s.repo.GetCatalog(ctx)
	if err != nil {
		return domain.Dataset{}, err
	}
	for _, d := range catalog.Datasets {
		if d.ID == id {
			return d, nil
		}
	}
	return domain.Dataset{}, domain.ErrDatasetNotFound
}

type EquipmentFilter struct {
	Types        []string
	Locations    []string
	Availability []domain.AvailabilityStatus
	TopicID      string
	Search       string
}

var equipmentSorts = comparators[domain.Equipment]{
	"name":         func(a, b domain.Equipment) int { return compareFold(a.Name, b.Name) },
	"type":         func(a, b domain.Equipment) int { return compareFold(a.Type, b.Type) },
	"location":     func(a, b domain.Equipment) int { return compareFold(a.Location, b.Location) },
	"availability": func(a, b domain.Equipment) int { return compareInt(a.Availability.Rank(), b.Availability.Rank()) },
}

func (s *CatalogService) Equipment(ctx context.Context, f EquipmentFilter, p ListParams) (Page[domain.Equipment], error) {
	catalog, err := s.repo.GetCatalog(ctx)
	if err != nil {
		return Page[domain.Equipment]{}, err
	}
	items := filterItems(catalog.Equipment, func(e domain.Equipment) bool {
		if f.TopicID != "" && !intersects([]string{f.TopicID}, e.RelatedTopics) {
			return false
		}
		return intersects(f.Types, []string{e.Type}) &&
			intersects(f.Locations, []string{e.Location}) &&
			anyOf(f.Availability, e.Availability) &&
			containsFold(f.Search, e.Name, e.Description, e.Type)
	})
	return paginate(sortItems(items, p, equipmentSorts, "availability", SortAsc), p, EquipmentPerPage), nil
}

func (s *CatalogService) EquipmentItem(ctx context.Context, id string) (domain.Equipment, error) {
	catalog, err := s.repo.GetCatalog(ctx)
	if err != nil {
		return domain.Equipment{}, err
	}
	for _, e := range catalog.Equipment {
		if e.ID == id {
			return e, nil
		}
	}
	return domain.Equipment{}, domain.ErrEquipmentNotFound
}

type CareerFilter struct {
	Sectors []string
	Demand  []domain.Difficulty
	// Skills matches careers requiring any of the named skills.
	Skills  []string
	TopicID string
	Search  string
}

var careerSorts = comparators[domain.CareerPathway]{
	"role":        func(a, b domain.CareerPathway) int { return compareFold(a.Role, b.Role) },
	"sector":      func(a, b domain.CareerPathway) int { return compareFold(a.Sector, b.Sector) },
	"demandLevel": func(a, b domain.CareerPathway) int { return compareInt(a.DemandLevel.Rank(), b.DemandLevel.Rank()) },
}

func (s *CatalogService) Careers(ctx context.Context, f CareerFilter, p ListParams) (Page[domain.CareerPathway], error) {
	catalog, err := s.repo.GetCatalog(ctx)
	if err != nil {
		return Page[domain.CareerPathway]{}, err
	}
	items := filterItems(catalog.Careers, func(c domain.CareerPathway) bool {
		if f.TopicID != "" && !intersects([]string{f.TopicID}, c.RelatedTopics) {
			return false
		}
		skills := make([]string, 0, len(c.RequiredSkills))
		for _, sk := range c.RequiredSkills {
			skills = append(skills, sk.Name)
		}
		return intersects(f.Sectors, []string{c.Sector}) &&
			anyOf(f.Demand, c.DemandLevel) &&
			intersects(f.Skills, skills) &&
			containsFold(f.Search, c.Role, c.Description, c.Sector)
	})
	return paginate(sortItems(items, p, careerSorts, "", SortAsc), p, CareersPerPage), nil
}

func (s *CatalogService) Career(ctx context.Context, id string) (domain.CareerPathway, error) {
	catalog, err := s.repo.GetCatalog(ctx)
	if err != nil {
		return domain.CareerPathway{}, err
	}
	for _, c := range catalog.Careers {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.CareerPathway{}, domain.ErrCareerNotFound
}

// Questionnaire returns the static question set.
func (s *CatalogService) Questionnaire(ctx context.Context) (domain.Questionnaire, error) {
	catalog, err := s.repo.GetCatalog(ctx)
	if err != nil {
		return domain.Questionnaire{}, err
	}
	return catalog.Questionnaire, nil
}

func findTopic(catalog domain.Catalog, id string) (domain.Topic, bool) {
	for _, t := range catalog.Topics {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Topic{}, false
}

func setOf(ids []string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[strings.TrimSpace(id)] = struct{}{}
	}
	return out
}
