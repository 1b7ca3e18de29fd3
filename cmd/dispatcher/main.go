// cmd/dispatcher/main.go
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	http_api "gig-dispatch/internal/api/http"
	"gig-dispatch/internal/config"
	"gig-dispatch/internal/directory"
	"gig-dispatch/internal/dispatch"
	"gig-dispatch/internal/infra/etcd"
	"gig-dispatch/internal/janitor"
	"gig-dispatch/internal/notifier"
	"gig-dispatch/internal/tracing"
	"gig-dispatch/internal/usecase"
)

// corsMiddleware wraps an http.Handler with CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	// 1. Initialize logger and tracer
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	tracerShutdown, err := tracing.InitTracer("gig-dispatch-dispatcher")
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tracerShutdown(context.Background()); err != nil {
			log.Printf("failed to shutdown tracer: %v", err)
		}
	}()

	log.Println("Starting gig dispatcher node...")

	// 2. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	nodeID := uuid.New().String()
	log.Printf("Node ID: %s", nodeID)

	// 3. Create root context for lifecycle management
	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. Setup graceful shutdown
	setupGracefulShutdown(cancel)

	// 5. Init etcd client
	etcdClient, err := etcd.NewClient(cfg.EtcdEndpoints, cfg.EtcdTimeout)
	if err != nil {
		log.Fatalf("Failed to create etcd client: %v", err)
	}
	defer etcdClient.Close()
	log.Println("Connected to etcd.")

	// 6. Instantiate components
	workerDirectory := directory.NewEtcdDirectory(etcdClient, logger)
	go workerDirectory.WatchWorkers(rootCtx)

	offerNotifier := notifier.NewGrpcNotifier(logger)
	gigRepo := etcd.NewEtcdGigRepository(etcdClient, logger)

	engine := dispatch.NewEngine(workerDirectory, offerNotifier, gigRepo, clock.New(), dispatch.Options{
		Tiers:          cfg.SearchTiers(),
		OfferTTL:       cfg.OfferTTL,
		ReservationTTL: cfg.ReservationTTL,
	}, logger)

	sweep, err := janitor.New(engine, cfg.JanitorSpec, cfg.RetentionWindow, logger)
	if err != nil {
		log.Fatalf("Failed to create janitor: %v", err)
	}
	leaderManager := etcd.NewEtcdLeaderElectionManager(etcdClient, nodeID, cfg.ElectionTTL, logger)
	dispatchService := usecase.NewDispatchService(leaderManager, sweep, nodeID, logger)

	// The gig API answers only on the leader; followers return 503 until
	// they win a campaign, so a single node owns every gig's timers.
	gigHandler := http_api.NewGigHandler(engine, leaderManager, logger)

	// 7. Register routes and metrics endpoint
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	gigHandler.RegisterRoutes(mux)

	// 8. Start DispatchService (leader election + janitor)
	go func() {
		if err := dispatchService.Start(rootCtx); err != nil && rootCtx.Err() == nil {
			log.Fatalf("DispatchService stopped with error: %v", err)
		}
	}()

	// 9. Start HTTP API server with CORS middleware
	log.Printf("Starting HTTP API server on %s", cfg.HttpListenAddr)
	server := &http.Server{
		Addr:    cfg.HttpListenAddr,
		Handler: corsMiddleware(mux),
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// 10. Block until shutdown
	<-rootCtx.Done()
	log.Println("Shutting down dispatcher gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("HTTP server shutdown failed: %v", err)
	}

	log.Println("Dispatcher shut down.")
}

func setupGracefulShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("Received signal %v. Initiating graceful shutdown...", sig)
		cancel()
	}()
}
