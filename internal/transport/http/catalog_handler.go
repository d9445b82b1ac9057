package http

import (
	"net/http"

	"geoportal-service/internal/app"
	"geoportal-service/internal/domain"
	"github.com/gorilla/mux"
)

// CatalogHandler serves the read-only catalog collections.
type CatalogHandler struct {
	catalog *app.CatalogService
}

func NewCatalogHandler(catalog *app.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

func (h *CatalogHandler) register(r *mux.Router) {
	r.HandleFunc("/topics", h.listTopics).Methods(http.MethodGet)
	r.HandleFunc("/topics/search", h.listTopics).Methods(http.MethodGet)
	r.HandleFunc("/topics/category/{category}", h.listTopics).Methods(http.MethodGet)
	r.HandleFunc("/topics/{id}", h.getTopic).Methods(http.MethodGet)

	r.HandleFunc("/resources", h.listResources).Methods(http.MethodGet)
	r.HandleFunc("/resources/search", h.listResources).Methods(http.MethodGet)
	r.HandleFunc("/resources/filter", h.listResources).Methods(http.MethodGet)
	r.HandleFunc("/resources/type/{type}", h.listResources).Methods(http.MethodGet)
	r.HandleFunc("/resources/topic/{topicId}", h.listResources).Methods(http.MethodGet)
	r.HandleFunc("/resources/category/{category}", h.listResources).Methods(http.MethodGet)
	r.HandleFunc("/resources/{id}", h.getResource).Methods(http.MethodGet)

	r.HandleFunc("/datasets", h.listDatasets).Methods(http.MethodGet)
	r.HandleFunc("/datasets/search", h.listDatasets).Methods(http.MethodGet)
	r.HandleFunc("/datasets/filter", h.listDatasets).Methods(http.MethodGet)
	r.HandleFunc("/datasets/category/{category}", h.listDatasets).Methods(http.MethodGet)
	r.HandleFunc("/datasets/source/{source}", h.listDatasets).Methods(http.MethodGet)
	r.HandleFunc("/datasets/format/{format}", h.listDatasets).Methods(http.MethodGet)
	r.HandleFunc("/datasets/topic/{topicId}", h.listDatasets).Methods(http.MethodGet)
	r.HandleFunc("/datasets/{id}", h.getDataset).Methods(http.MethodGet)

	r.HandleFunc("/equipment", h.listEquipment).Methods(http.MethodGet)
	r.HandleFunc("/equipment/search", h.listEquipment).Methods(http.MethodGet)
	r.HandleFunc("/equipment/filter", h.listEquipment).Methods(http.MethodGet)
	r.HandleFunc("/equipment/type/{type}", h.listEquipment).Methods(http.MethodGet)
	r.HandleFunc("/equipment/topic/{topicId}", h.listEquipment).Methods(http.MethodGet)
	r.HandleFunc("/equipment/availability/{status}", h.listEquipment).Methods(http.MethodGet)

	r.HandleFunc("/careers", h.listCareers).Methods(http.MethodGet)
	r.HandleFunc("/careers/search", h.listCareers).Methods(http.MethodGet)
	r.HandleFunc("/careers/filter", h.listCareers).Methods(http.MethodGet)
	r.HandleFunc("/careers/sector/{sector}", h.listCareers).Methods(http.MethodGet)
	r.HandleFunc("/careers/demand/{demand}", h.listCareers).Methods(http.MethodGet)
	r.HandleFunc("/careers/topic/{topicId}", h.listCareers).Methods(http.MethodGet)
	r.HandleFunc("/careers/skill/{skill}", h.listCareers).Methods(http.MethodGet)
	r.HandleFunc("/careers/{id}", h.getCareer).Methods(http.MethodGet)
}

// registerEquipmentItem is split out so reservation routes under
// /equipment/ can be registered before the {id} catch-all.
func (h *CatalogHandler) registerEquipmentItem(r *mux.Router) {
	r.HandleFunc("/equipment/{id}", h.getEquipment).Methods(http.MethodGet)
}

// withPath appends a path variable to the query-derived filter values.
func withPath(r *http.Request, name string, from []string) []string {
	if v := mux.Vars(r)[name]; v != "" {
		return append(from, v)
	}
	return from
}

func pathOr(r *http.Request, name, fallback string) string {
	if v := mux.Vars(r)[name]; v != "" {
		return v
	}
	return fallback
}

func (h *CatalogHandler) listTopics(w http.ResponseWriter, r *http.Request) {
	filter := app.TopicFilter{
		Category:            pathOr(r, "category", r.URL.Query().Get("category")),
		Search:              search(r),
		TechnicalDifficulty: difficulties(r, "technicalDifficulty"),
		ProgrammingRequired: difficulties(r, "programmingRequired"),
		FieldWork:           difficulties(r, "fieldWork"),
		CareerRelevance:     difficulties(r, "careerRelevance"),
	}
	page, err := h.catalog.Topics(r.Context(), filter, listParams(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *CatalogHandler) getTopic(w http.ResponseWriter, r *http.Request) {
	topic, err := h.catalog.Topic(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, topic)
}

func (h *CatalogHandler) listResources(w http.ResponseWriter, r *http.Request) {
	types := make([]domain.ResourceType, 0)
	for _, t := range withPath(r, "type", values(r, "type")) {
		types = append(types, domain.ResourceType(titleCase(t)))
	}
	filter := app.ResourceFilter{
		Types:      types,
		Categories: withPath(r, "category", values(r, "category")),
		Tags:       values(r, "tag"),
		Difficulty: difficulties(r, "difficulty"),
		TopicID:    pathOr(r, "topicId", r.URL.Query().Get("topicId")),
		Search:     search(r),
	}
	page, err := h.catalog.Resources(r.Context(), filter, listParams(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *CatalogHandler) getResource(w http.ResponseWriter, r *http.Request) {
	resource, err := h.catalog.Resource(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resource)
}

func (h *CatalogHandler) listDatasets(w http.ResponseWriter, r *http.Request) {
	filter := app.DatasetFilter{
		Sources:                withPath(r, "source", values(r, "source")),
		Formats:                withPath(r, "format", values(r, "format")),
		Categories:             withPath(r, "category", values(r, "category")),
		RequiresAuthentication: optionalBool(r, "requiresAuthentication"),
		TopicID:                pathOr(r, "topicId", r.URL.Query().Get("topicId")),
		Search:                 search(r),
	}
	page, err := h.catalog.Datasets(r.Context(), filter, listParams(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *CatalogHandler) getDataset(w http.ResponseWriter, r *http.Request) {
	dataset, err := h.catalog.Dataset(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dataset)
}

func (h *CatalogHandler) listEquipment(w http.ResponseWriter, r *http.Request) {
	availability := availabilities(r, "availability")
	if status := mux.Vars(r)["status"]; status != "" {
		availability = append(availability, domain.AvailabilityStatus(titleCase(status)))
	}
	filter := app.EquipmentFilter{
		Types:        withPath(r, "type", values(r, "type")),
		Locations:    values(r, "location"),
		Availability: availability,
		TopicID:      pathOr(r, "topicId", r.URL.Query().Get("topicId")),
		Search:       search(r),
	}
	page, err := h.catalog.Equipment(r.Context(), filter, listParams(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *CatalogHandler) getEquipment(w http.ResponseWriter, r *http.Request) {
	equipment, err := h.catalog.EquipmentItem(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, equipment)
}

func (h *CatalogHandler) listCareers(w http.ResponseWriter, r *http.Request) {
	demand := difficulties(r, "demand")
	if d := mux.Vars(r)["demand"]; d != "" {
		demand = append(demand, domain.Difficulty(titleCase(d)))
	}
	filter := app.CareerFilter{
		Sectors: withPath(r, "sector", values(r, "sector")),
		Demand:  demand,
		Skills:  withPath(r, "skill", values(r, "skill")),
		TopicID: pathOr(r, "topicId", r.URL.Query().Get("topicId")),
		Search:  search(r),
	}
	page, err := h.catalog.Careers(r.Context(), filter, listParams(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *CatalogHandler) getCareer(w http.ResponseWriter, r *http.Request) {
	career, err := h.catalog.Career(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, career)
}
