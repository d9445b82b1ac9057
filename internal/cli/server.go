package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"geoportal-service/internal/app"
	"geoportal-service/internal/config"
	"geoportal-service/internal/infra/memory"
	pgstore "geoportal-service/internal/infra/postgres"
	redisstore "geoportal-service/internal/infra/redis"
	"geoportal-service/internal/infra/seed"
	"geoportal-service/internal/logging"
	"geoportal-service/internal/metrics"
	"geoportal-service/internal/questionnaire"
	transport "geoportal-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the portal API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// backends holds the wired services plus whatever needs closing on shutdown.
type backends struct {
	catalog       *app.CatalogService
	questionnaire *app.QuestionnaireService
	reservations  *app.ReservationService
	closers       []func()
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		return err
	}

	b, err := wire(ctx, cfg, logger, m)
	if err != nil {
		return err
	}
	defer b.close()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	handler := transport.NewRouter(&transport.Container{
		Catalog:       b.catalog,
		Questionnaire: b.questionnaire,
		Reservations:  b.reservations,
		Logger:        logger,
		Metrics:       m,
		Gatherer:      reg,
		CORS:          transport.CORSConfig{AllowedOrigins: cfg.Server.CORSOrigins},
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting geoportal service", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// wire picks the storage for each concern. Without postgres the seed catalog
// and in-memory reservations are used; without redis caches and sessions
// stay in process.
func wire(ctx context.Context, cfg config.Config, logger *zap.Logger, m *metrics.Metrics) (*backends, error) {
	b := &backends{}
	fail := func(err error) (*backends, error) {
		b.close()
		return nil, err
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { _ = redisClient.Close() })
	}

	var loader memory.CatalogLoader
	var reservations app.ReservationRepository = memory.NewReservationStore()
	if cfg.Postgres.URL != "" {
		db, err := openDB(cfg)
		if err != nil {
			return fail(err)
		}
		b.closers = append(b.closers, func() { _ = db.Close() })
		if err := migrateDB(ctx, db, logger); err != nil {
			return fail(err)
		}
		if err := ensureCatalog(ctx, db, logger); err != nil {
			return fail(err)
		}

		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return fail(err)
		}
		b.closers = append(b.closers, pool.Close)
		loader = pgstore.NewCatalogLoader(pool)
		reservations = pgstore.NewReservationStore(db)
	} else {
		catalog, err := seed.Catalog()
		if err != nil {
			return fail(err)
		}
		loader = memory.NewStaticCatalogLoader(catalog)
	}

	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	var catalogRepo app.CatalogRepository
	if redisClient != nil {
		catalogRepo = redisstore.NewCatalogRepository(redisClient, loader, catalogTTL)
	} else {
		catalogRepo = memory.NewCatalogRepository(loader, catalogTTL)
	}
	b.catalog = app.NewCatalogService(catalogRepo)

	// The question set is fixed for the life of the process.
	q, err := b.catalog.Questionnaire(ctx)
	if err != nil {
		return fail(err)
	}
	qc, err := questionnaire.NewCatalog(q.Topics, q.Questions)
	if err != nil {
		return fail(err)
	}

	sessionTTL := config.TTLDuration(cfg.Questionnaire.SessionTTL, config.TTLDuration(cfg.Redis.TTL, time.Hour))
	var sessions app.SessionRepository
	if redisClient != nil {
		sessions = redisstore.NewSessionStore(redisClient, cfg.Questionnaire.MaxSessions, sessionTTL)
	} else {
		sessions = memory.NewSessionStore(cfg.Questionnaire.MaxSessions, sessionTTL)
	}

	policy := questionnaire.Lenient
	if cfg.Questionnaire.Strict {
		policy = questionnaire.Strict
	}
	b.questionnaire = app.NewQuestionnaireService(qc, b.catalog, sessions,
		app.WithScorePolicy(policy),
		app.WithLogger(logger.Named("questionnaire")),
		app.WithScoreRecorder(m),
	)
	b.reservations = app.NewReservationService(b.catalog, reservations, logger.Named("reservations"))

	logger.Info("backends wired",
		zap.Bool("postgres", cfg.Postgres.URL != ""),
		zap.Bool("redis", redisClient != nil),
		zap.Stringer("score_policy", policy))
	return b, nil
}

// ensureCatalog seeds catalog_documents on first boot so a fresh database
// serves the bundled content.
func ensureCatalog(ctx context.Context, db *bun.DB, logger *zap.Logger) error {
	count, err := db.NewSelect().Table("catalog_documents").Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	catalog, err := seed.Catalog()
	if err != nil {
		return err
	}
	written, err := pgstore.NewCatalogWriter(db).WriteCatalog(ctx, catalog)
	if err != nil {
		return err
	}
	logger.Info("seeded catalog", zap.Int("documents", written))
	return nil
}
