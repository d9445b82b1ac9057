package http

import (
	"net/http"

	"geoportal-service/internal/app"
	"geoportal-service/internal/domain"
	"github.com/gorilla/mux"
)

type ReservationHandler struct {
	service *app.ReservationService
}

func NewReservationHandler(service *app.ReservationService) *ReservationHandler {
	return &ReservationHandler{service: service}
}

type statusRequest struct {
	Status domain.ReservationStatus `json:"status"`
}

func (h *ReservationHandler) register(r *mux.Router) {
	r.HandleFunc("/equipment/reserve", h.reserve).Methods(http.MethodPost)
	r.HandleFunc("/equipment/{id}/reservations", h.forEquipment).Methods(http.MethodGet)
	r.HandleFunc("/reservations", h.forUser).Methods(http.MethodGet)
	r.HandleFunc("/reservations/{id}", h.get).Methods(http.MethodGet)
	r.HandleFunc("/reservations/{id}", h.setStatus).Methods(http.MethodPatch)
}

// reserve always answers with a ReservationResult so clients can show the
// message whether or not the request succeeded.
func (h *ReservationHandler) reserve(w http.ResponseWriter, r *http.Request) {
	var req domain.ReservationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, domain.ReservationResult{Message: "invalid request body"})
		return
	}
	result, err := h.service.Reserve(r.Context(), req)
	if err != nil {
		writeJSON(w, statusFor(err), result)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *ReservationHandler) forEquipment(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ForEquipment(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ReservationHandler) forUser(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ForUser(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ReservationHandler) get(w http.ResponseWriter, r *http.Request) {
	reservation, err := h.service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reservation)
}

func (h *ReservationHandler) setStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	reservation, err := h.service.SetStatus(r.Context(), mux.Vars(r)["id"], req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reservation)
}
