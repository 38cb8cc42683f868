// Command server wires the client financial records service: store and
// object-storage selection, HTTP routing, and graceful lifecycle.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"clientbooks/internal/identity"
	"clientbooks/internal/objstore"
	"clientbooks/internal/platform/config"
	"clientbooks/internal/platform/httpserver"
	"clientbooks/internal/platform/logger"
	"clientbooks/internal/platform/metrics"
	recordsHandler "clientbooks/internal/records/handler"
	recordsService "clientbooks/internal/records/service"
	"clientbooks/internal/records/store"
	"clientbooks/internal/report"
	reportHandler "clientbooks/internal/report/handler"
	httptransport "clientbooks/internal/transport/http"
)

func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	records, cleanup, err := newRecordStore(ctx, cfg)
	if err != nil {
		log.Error("failed to initialize record store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	files := newObjectStore(cfg)
	m := metrics.New()
	tokens := identity.NewTokenService(cfg.JWTSigningKey, cfg.JWTIssuer)

	svc := recordsService.New(records, cfg.MaxFinancialValue,
		recordsService.WithLogger(log),
		recordsService.WithMetrics(m),
		recordsService.WithObjectStorage(files, cfg.SignedURLTTL),
	)
	reports := report.New(records,
		report.WithLogger(log),
		report.WithMetrics(m),
	)

	router := httptransport.NewRouter(httptransport.Deps{
		Records:   recordsHandler.New(svc, log),
		Reports:   reportHandler.New(reports, log),
		Validator: tokens,
		Logger:    log,
		Metrics:   m,
	})
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting clientbooks server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// newRecordStore selects postgres when DATABASE_URL is set and falls back to
// the in-memory store for local development.
func newRecordStore(ctx context.Context, cfg config.Server) (store.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		return store.NewInMemory(), func() {}, nil
	}
	pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return pg, pg.Close, nil
}

// newObjectStore selects supabase storage when STORAGE_URL is set and falls
// back to the in-memory store for local development.
func newObjectStore(cfg config.Server) objstore.Storage {
	if cfg.StorageURL == "" {
		return objstore.NewInMemory()
	}
	return objstore.NewSupabase(cfg.StorageURL, cfg.StorageKey, cfg.StorageBucket)
}
