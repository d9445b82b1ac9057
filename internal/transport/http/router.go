package http

import (
	"net/http"

	"geoportal-service/internal/app"
	"geoportal-service/internal/metrics"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Container holds all dependencies for the router.
type Container struct {
	Catalog       *app.CatalogService
	Questionnaire *app.QuestionnaireService
	Reservations  *app.ReservationService
	Logger        *zap.Logger
	Metrics       *metrics.Metrics
	// Gatherer backs /metrics; nil leaves the endpoint unregistered.
	Gatherer prometheus.Gatherer
	CORS     CORSConfig
}

// NewRouter creates the HTTP handler with every REST, websocket and
// operational endpoint.
func NewRouter(c *Container) http.Handler {
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	catalogHandler := NewCatalogHandler(c.Catalog)
	questionnaireHandler := NewQuestionnaireHandler(c.Questionnaire)
	reservationHandler := NewReservationHandler(c.Reservations)
	wsHandler := NewWSHandler(c.Questionnaire, logger, c.Metrics)

	r := mux.NewRouter()
	r.Use(observe(logger, c.Metrics))

	api := r.PathPrefix("/api").Subrouter()
	catalogHandler.register(api)
	reservationHandler.register(api)
	catalogHandler.registerEquipmentItem(api)
	questionnaireHandler.register(api)

	r.HandleFunc("/ws/questionnaire", wsHandler.ServeWS).Methods(http.MethodGet)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	if c.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(c.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	// CORS wraps the router so preflight requests are answered before
	// route matching.
	return corsMiddleware(c.CORS, r)
}
