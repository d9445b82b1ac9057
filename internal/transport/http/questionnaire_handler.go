package http

import (
	"net/http"

	"geoportal-service/internal/app"
	"geoportal-service/internal/domain"
	"github.com/gorilla/mux"
)

type QuestionnaireHandler struct {
	service *app.QuestionnaireService
}

func NewQuestionnaireHandler(service *app.QuestionnaireService) *QuestionnaireHandler {
	return &QuestionnaireHandler{service: service}
}

type scoreRequest struct {
	Answers []domain.UserAnswer `json:"answers"`
}

type sessionRequest struct {
	SessionID string `json:"sessionId"`
}

func (h *QuestionnaireHandler) register(r *mux.Router) {
	r.HandleFunc("/questionnaire/questions", h.questions).Methods(http.MethodGet)
	r.HandleFunc("/questionnaire/score", h.score).Methods(http.MethodPost)
	r.HandleFunc("/questionnaire/sessions", h.startSession).Methods(http.MethodPost)
	r.HandleFunc("/questionnaire/sessions/{id}", h.getSession).Methods(http.MethodGet)
	r.HandleFunc("/questionnaire/sessions/{id}", h.endSession).Methods(http.MethodDelete)
	r.HandleFunc("/questionnaire/sessions/{id}/answers", h.answer).Methods(http.MethodPost)
	r.HandleFunc("/questionnaire/sessions/{id}/reset", h.reset).Methods(http.MethodPost)
}

func (h *QuestionnaireHandler) questions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Questions())
}

func (h *QuestionnaireHandler) score(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.service.Score(r.Context(), req.Answers)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *QuestionnaireHandler) startSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	// An empty body starts a fresh session.
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	snapshot, err := h.service.Start(r.Context(), req.SessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snapshot)
}

func (h *QuestionnaireHandler) getSession(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.rejoin(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *QuestionnaireHandler) answer(w http.ResponseWriter, r *http.Request) {
	var answer domain.UserAnswer
	if err := decodeJSON(w, r, &answer); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id := mux.Vars(r)["id"]
	if _, err := h.rejoin(r); err != nil {
		writeServiceError(w, err)
		return
	}
	snapshot, err := h.service.Answer(r.Context(), id, answer)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *QuestionnaireHandler) reset(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := h.rejoin(r); err != nil {
		writeServiceError(w, err)
		return
	}
	snapshot, err := h.service.Reset(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *QuestionnaireHandler) endSession(w http.ResponseWriter, r *http.Request) {
	if err := h.service.End(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// rejoin returns the live session, rebuilding it from persisted answers
// when it was released. Sessions with neither are reported as not found.
func (h *QuestionnaireHandler) rejoin(r *http.Request) (domain.SessionSnapshot, error) {
	id := mux.Vars(r)["id"]
	if snapshot, err := h.service.Snapshot(r.Context(), id); err == nil {
		return snapshot, nil
	}
	snapshot, err := h.service.Start(r.Context(), id)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	if len(snapshot.Answers) == 0 {
		h.service.Leave(r.Context(), id)
		return domain.SessionSnapshot{}, domain.ErrSessionNotFound
	}
	return snapshot, nil
}
