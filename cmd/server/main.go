package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"backoffice/internal/audit"
	"backoffice/internal/catalog"
	clienthandler "backoffice/internal/client/handler"
	clientservice "backoffice/internal/client/service"
	clientstore "backoffice/internal/client/store"
	"backoffice/internal/order"
	"backoffice/internal/platform/config"
	"backoffice/internal/platform/httpserver"
	"backoffice/internal/platform/kafka"
	"backoffice/internal/platform/logger"
	"backoffice/internal/platform/metrics"
	"backoffice/internal/platform/middleware"
	"backoffice/internal/platform/postgres"
	"backoffice/internal/platform/redis"
	producthandler "backoffice/internal/product/handler"
	productservice "backoffice/internal/product/service"
	productstore "backoffice/internal/product/store"
	"backoffice/internal/user"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal services.
func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(cfg.PostgresURL)
	if err != nil {
		log.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			log.Error("ensure schema", "error", err)
			os.Exit(1)
		}
	} else {
		log.Warn("no postgres configured, using in-memory stores")
	}

	cache, err := redis.New(cfg.RedisURL)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if cache != nil {
		defer cache.Close()
	}

	producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.AuditTopic)
	if err != nil {
		log.Error("connect kafka", "error", err)
		os.Exit(1)
	}
	if producer != nil {
		defer producer.Close()
	}

	// Stores: postgres when configured, in-memory otherwise.
	var (
		clients    clientservice.Store
		products   productservice.Store
		orders     order.Store
		labs       catalog.LaboratoryStore
		cats       catalog.CategoryStore
		users      user.Store
		auditStore audit.Store
	)
	if db != nil {
		clients = clientstore.NewPostgres(db)
		products = productstore.NewPostgres(db)
		orders = order.NewPostgresStore(db)
		labs, cats = catalogPostgres(db)
		users = user.NewPostgresStore(db)
		auditStore = audit.NewPostgresStore(db)
	} else {
		clients = clientstore.NewMemory()
		products = productstore.NewMemory()
		orders = order.NewMemoryStore()
		labs = catalog.NewInMemoryLaboratoryStore()
		cats = catalog.NewInMemoryCategoryStore()
		users = user.NewInMemoryStore()
		auditStore = audit.NewInMemoryStore()
	}

	if err := user.SeedBootstrapAdmin(ctx, users, cfg.BootstrapAdminLogin, cfg.BootstrapAdminPassword, log); err != nil {
		log.Error("seed bootstrap admin", "error", err)
		os.Exit(1)
	}

	publisher := audit.NewPublisher(256, log)
	worker := audit.NewWorker(auditStore, publisher.Inbox(), producer, log)

	m := metrics.New()
	catalogSvc := catalog.New(labs, cats, cache, log)
	clientSvc := clientservice.New(clients,
		clientservice.WithMetrics(m),
		clientservice.WithAuditor(publisher),
		clientservice.WithLogger(log),
	)
	productSvc := productservice.New(products, catalogSvc,
		productservice.WithMetrics(m),
		productservice.WithAuditor(publisher),
		productservice.WithLogger(log),
	)
	orderSvc := order.NewService(orders, clients, products)

	router := newRouter(cfg, log, db, cache,
		clienthandler.NewHandler(clientSvc, log),
		producthandler.NewHandler(productSvc, log),
		catalog.NewHandler(catalogSvc, log),
		order.NewHandler(orderSvc, log),
	)

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		worker.Run(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info("starting backoffice", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
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
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

type registrar interface {
	Register(r chi.Router)
}

func newRouter(cfg config.Config, log *slog.Logger, db *sql.DB, cache *redis.Client, handlers ...registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Get("/healthz", healthz(db, cache))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireAdminToken(cfg.AdminToken, log))
		r.Use(middleware.ContentTypeJSON)
		for _, h := range handlers {
			h.Register(r)
		}
	})
	return r
}

func healthz(db *sql.DB, cache *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				http.Error(w, "postgres unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		if cache != nil {
			if err := cache.Health(r.Context()); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

func catalogPostgres(db *sql.DB) (catalog.LaboratoryStore, catalog.CategoryStore) {
	return catalog.NewPostgresLaboratoryStore(db), catalog.NewPostgresCategoryStore(db)
}
