package server

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"gorm.io/gorm"

	"github.com/sendgrove/blastpipe/api"
	"github.com/sendgrove/blastpipe/config"
	"github.com/sendgrove/blastpipe/internal/cron"
	"github.com/sendgrove/blastpipe/internal/logger"
	"github.com/sendgrove/blastpipe/internal/repository"
	"github.com/sendgrove/blastpipe/internal/tracing"
	"github.com/sendgrove/blastpipe/services"
)

type Server struct {
	config       *config.Config
	httpServer   *http.Server
	router       *gin.Engine
	services     *services.Services
	repositories *repository.Repositories
	cronManager  *cron.CronManager
	tracerCloser io.Closer
}

func NewServer(cfg *config.Config, db *gorm.DB) (*Server, error) {
	// Initialize logger
	appLogger := logger.NewAppLogger(cfg.Logger)
	appLogger.InitLogger()

	// Initialize tracing
	tracer, closer, err := tracing.NewJaegerTracer(cfg.Tracing, appLogger)
	if err != nil {
		log.Fatalf("Could not initialize jaeger tracer: %s", err.Error())
	}
	opentracing.SetGlobalTracer(tracer)

	// Initialize repositories
	repos := repository.InitRepositories(db)

	// Initialize services
	svcs, err := services.InitServices(cfg, appLogger, repos)
	if err != nil {
		return nil, err
	}

	cronManager := cron.NewCronManager(cfg, appLogger, repos.CampaignRepository, svcs.Dispatcher)

	// Initialize Gin
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	return &Server{
		config:       cfg,
		router:       router,
		services:     svcs,
		repositories: repos,
		cronManager:  cronManager,
		tracerCloser: closer,
		httpServer: &http.Server{
			Addr:    ":" + cfg.AppConfig.APIPort,
			Handler: router,
		},
	}, nil
}

func (s *Server) Initialize(ctx context.Context) error {
	api.RegisterRoutes(ctx, s.router, s.services, s.repositories, s.config.AppConfig.APIKey)
	return nil
}

func (s *Server) recoverWithJaeger(name string) {
	if r := recover(); r != nil {
		span := opentracing.GlobalTracer().StartSpan(
			fmt.Sprintf("panic.%s", name),
		)
		defer span.Finish()

		ext.Error.Set(span, true)

		span.LogKV(
			"event", "panic",
			"process", name,
			"error", fmt.Sprintf("%v", r),
			"stack", string(debug.Stack()),
		)

		log.Printf("❌ Panic in %s: %v\n%s", name, r, debug.Stack())
	}
}

func (s *Server) wrapGoroutine(name string, fn func()) {
	defer s.recoverWithJaeger(name)
	fn()
}

func (s *Server) Run() error {
	// Create root context for the application
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize server components
	if err := s.Initialize(ctx); err != nil {
		return err
	}

	// Start the dispatch workers
	log.Println("Starting dispatch engine...")
	s.services.Dispatcher.Start(ctx)
	log.Println("✅ Dispatch engine started successfully")

	// Start the scheduled campaign sweeper
	log.Println("Starting cron jobs...")
	s.cronManager.Start()
	log.Println("✅ Cron jobs started successfully")

	// Start HTTP server in a goroutine with panic recovery
	go s.wrapGoroutine("http_server", func() {
		log.Println("Starting HTTP server")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("❌ HTTP server error: %v", err)
		}
	})
	log.Println("✅ HTTP server started successfully")
	log.Println("Blastpipe is now running. Press Ctrl+C to exit.")

	return s.waitForShutdown()
}

func (s *Server) waitForShutdown() error {
	defer s.recoverWithJaeger("shutdown")

	// Set up signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Wait for termination signal
	<-stop
	log.Println("Shutting down...")

	// Create a context with timeout for shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	// Stop taking new requests first
	log.Println("Shutting down HTTP server...")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ HTTP server shutdown error: %v", err)
	} else {
		log.Println("✅ HTTP server shut down successfully")
	}

	// No new submissions once cron is down
	log.Println("Stopping cron jobs...")
	s.cronManager.Stop()

	// Drain in-flight campaigns with timeout and panic recovery
	log.Println("Stopping dispatch engine...")
	stopDone := make(chan struct{})
	go s.wrapGoroutine("dispatch_shutdown", func() {
		defer close(stopDone)
		s.services.Dispatcher.Stop()
	})

	select {
	case <-stopDone:
		log.Println("✅ Dispatch engine stopped gracefully")
	case <-time.After(10 * time.Second):
		log.Println("⚠️ Dispatch engine stop timed out, forcing exit")
	}

	if err := s.services.EventPublisher.Close(); err != nil {
		log.Printf("❌ Event publisher shutdown error: %v", err)
	}

	if s.tracerCloser != nil {
		s.tracerCloser.Close()
	}

	return nil
}
