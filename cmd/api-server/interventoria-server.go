package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"interventoria/db"
	"interventoria/db/migrations"
	"interventoria/internal/auth"
	"interventoria/internal/config"
	"interventoria/internal/handlers"
	"interventoria/internal/logger"
	"interventoria/internal/postgrest"
	"interventoria/internal/report"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logg, err := logger.New(cfg.Log.Level, cfg.Log.Format, "interventoria-reports")
	if err != nil {
		log.Fatalf("Cannot init logger: %v", err)
	}
	defer logg.Sync()

	dbConn, err := sqlx.Connect("postgres", cfg.PostgresConn)
	if err != nil {
		logg.Fatal("cannot connect to DB", zap.Error(err))
	}
	defer dbConn.Close()

	if cfg.RunMigrations {
		if err := migrations.Run(dbConn.DB, logg); err != nil {
			logg.Fatal("migrations failed", zap.Error(err))
		}
	}

	store := db.NewStorage(dbConn)

	// данные проекта читаются из Postgres напрямую или через PostgREST
	var source report.Source = store
	if cfg.DataSource == config.SourcePostgREST {
		source = postgrest.NewClient(cfg.Supabase.URL, cfg.Supabase.AnonKey, logg)
	}
	logg.Info("report data source selected", zap.String("source", cfg.DataSource))

	renderer := report.NewRenderer(report.RendererOptions{
		EscapeHTML: cfg.Report.EscapeHTML,
		PhotoLimit: cfg.Report.PhotoLimit,
	})
	assembler := report.NewAssembler(report.NewCollector(source, logg), renderer, store, logg)

	h := handlers.NewHandler(store, assembler, auth.DefaultPermissions, logg)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(handlers.RequestLogger(logg))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", h.PingHandler)

		r.Group(func(pr chi.Router) {
			pr.Use(auth.Middleware(cfg.JWTSecret))

			// отчеты проекта
			pr.Post("/projects/{projectId}/reports", h.GenerateReportHandler)
			pr.Get("/projects/{projectId}/reports", h.ListReportsHandler)
			pr.Get("/projects/{projectId}/summary", h.SummaryHandler)
			pr.Get("/projects/{projectId}/export", h.ExportHandler)

			pr.Post("/reports/preview", h.PreviewHandler)
			pr.Get("/reports/tokens", h.TokensHandler)
			pr.Get("/reports/{reportId}", h.GetReportHandler)
			pr.Get("/reports/{reportId}/print", h.PrintReportHandler)
		})
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logg.Info("starting server", zap.String("address", cfg.ServerAddress))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logg.Error("graceful shutdown failed", zap.Error(err))
	}
	logg.Info("server stopped")
}
