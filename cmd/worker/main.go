// cmd/worker/main.go
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	otelgrpc "go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"

	pb "gig-dispatch/gen/proto/dispatchv1"
	"gig-dispatch/internal/config"
	"gig-dispatch/internal/domain"
	"gig-dispatch/internal/infra/etcd"
	"gig-dispatch/internal/tracing"
	"gig-dispatch/internal/worker"
)

func main() {
	// 1. Init logger, config, flags
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	var (
		lat        = flag.Float64("lat", 0, "worker latitude")
		lng        = flag.Float64("lng", 0, "worker longitude")
		categories = flag.String("categories", "", "comma-separated categories this worker serves")
		advertise  = flag.String("advertise", "", "address the dispatcher should push offers to (defaults to the gRPC listen addr)")
	)
	flag.Parse()

	tracerShutdown, err := tracing.InitTracer("gig-dispatch-worker")
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tracerShutdown(context.Background()); err != nil {
			log.Printf("failed to shutdown tracer: %v", err)
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	workerID := uuid.New().String()
	grpcListenAddr := cfg.GrpcListenAddr
	if *advertise == "" {
		*advertise = grpcListenAddr
	}
	log.Printf("Starting worker agent %s, listening on %s", workerID, grpcListenAddr)

	// 2. Create root context for lifecycle management
	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Setup graceful shutdown
	setupGracefulShutdown(cancel)

	// 4. Init etcd client
	etcdClient, err := etcd.NewClient(cfg.EtcdEndpoints, cfg.EtcdTimeout)
	if err != nil {
		log.Fatalf("Failed to create etcd client: %v", err)
	}
	defer etcdClient.Close()
	log.Println("Connected to etcd.")

	// 5. Register this worker's dispatch profile in etcd
	registry := worker.NewRegistry(etcdClient, logger)
	ref := domain.WorkerRef{
		ID:         workerID,
		Addr:       *advertise,
		Location:   domain.Location{Lat: *lat, Lng: *lng},
		Categories: splitCategories(*categories),
	}
	regCtx, regCancel := context.WithTimeout(rootCtx, 5*time.Second)
	defer regCancel()
	if err := registry.Register(regCtx, ref, int64(cfg.WorkerLeaseTTL.Seconds())); err != nil {
		log.Fatalf("Failed to register worker: %v", err)
	}

	defer func() {
		deregCtx, deregCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer deregCancel()
		if err := registry.Deregister(deregCtx); err != nil {
			logger.Error("failed to deregister worker", "error", err)
		}
	}()

	// 6. Instantiate and start the gRPC offer server
	lis, err := net.Listen("tcp", grpcListenAddr)
	if err != nil {
		log.Fatalf("Failed to listen for gRPC: %v", err)
	}

	offerServer := worker.NewServer(workerID, logger)
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
	)
	pb.RegisterNotifierServer(grpcServer, offerServer)

	log.Printf("gRPC server listening on %s", grpcListenAddr)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("gRPC server failed: %v", err)
		}
	}()

	// 7. Block until shutdown signal
	<-rootCtx.Done()
	log.Println("Shutting down worker agent gracefully...")

	grpcServer.GracefulStop()

	log.Println("Worker agent shut down.")
}

func splitCategories(s string) []string {
	var out []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
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
