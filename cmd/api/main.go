package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/klinikku/clinic-api/internal/config"
	v1 "github.com/klinikku/clinic-api/internal/handler/v1"
	"github.com/klinikku/clinic-api/internal/sequence"
	"github.com/klinikku/clinic-api/internal/service"
	"github.com/klinikku/clinic-api/internal/storage"
	"github.com/klinikku/clinic-api/pkg/auth"
	"github.com/klinikku/clinic-api/pkg/database"
	"github.com/klinikku/clinic-api/pkg/logger"
	"github.com/klinikku/clinic-api/pkg/metrics"
	"github.com/klinikku/clinic-api/pkg/tracer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("loading config: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("building logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	tp, err := tracer.Init(cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if err := database.Migrate(db, log); err != nil {
		return err
	}

	store := storage.New(db)
	seq := sequence.New(store.Visits(), store.Patients(), store.Catalog(), store.Billing())
	m := metrics.NewCollector("clinic_api")

	auditSvc := service.NewAuditService(storage.NewAuditStore(db), log)
	defer auditSvc.Shutdown()

	jwtManager := auth.NewJWTManager(cfg.JWT)
	services := v1.Services{
		Auth:       service.NewAuthService(storage.NewUserStore(db), jwtManager, auditSvc, log),
		Patient:    service.NewPatientService(store, seq, auditSvc, log),
		Visit:      service.NewVisitService(store, seq, auditSvc, m, log),
		Treatment:  service.NewTreatmentService(store, auditSvc, m, log),
		Medication: service.NewMedicationService(storage.NewMedicationStore(db), store.Visits(), auditSvc, log),
		Payment:    service.NewPaymentService(store, seq, auditSvc, m, log),
		Catalog:    service.NewCatalogService(store, seq, auditSvc, log),
	}

	router := v1.NewRouter(cfg, services, jwtManager, m, log)

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.App.Environment),
			zap.String("version", cfg.App.Version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}

	log.Info("server stopped")
	return nil
}
