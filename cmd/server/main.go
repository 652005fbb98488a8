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

	"github.com/gin-gonic/gin"

	"invoscan/internal/cache"
	"invoscan/internal/config"
	"invoscan/internal/extract"
	"invoscan/internal/fsdb"
	"invoscan/internal/gcs"
	"invoscan/internal/handler"
	"invoscan/internal/router"
	"invoscan/internal/schema"
	"invoscan/internal/service"
	"invoscan/internal/source"
	"invoscan/internal/source/drive"
	"invoscan/internal/source/zoho"
	"invoscan/internal/vertex"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	store, err := fsdb.Resolve(ctx, cfg.GCP.ProjectID, cfg.GCP.FirestoreDatabaseID)
	if err != nil {
		log.Fatalf("failed to open document store: %v", err)
	}
	defer func() { _ = store.Close() }()

	storage, err := gcs.NewClient(ctx)
	if err != nil {
		log.Fatalf("failed to open object storage: %v", err)
	}
	defer func() { _ = storage.Close() }()

	infer, err := vertex.NewClient(ctx, &cfg.Vertex)
	if err != nil {
		log.Fatalf("failed to create inference client: %v", err)
	}

	driveSrc, err := drive.NewClient(ctx)
	if err != nil {
		log.Fatalf("failed to create drive client: %v", err)
	}

	docCache := cache.New(store)
	fetcher := source.NewHTTPFetcher()
	zohoSrc := zoho.NewClient(&cfg.Sampling)
	reconciler := extract.NewReconciler(schema.NewTable(schema.ParseSynonyms(cfg.Schema.ExtraSynonyms)))

	processSvc := service.NewProcessService(docCache, storage, infer, fetcher, reconciler, cfg)
	samplingSvc := service.NewSamplingService(store, storage, infer, driveSrc, zohoSrc, fetcher, reconciler, cfg)
	summarySvc := service.NewSummaryService(store, docCache)
	costSvc := service.NewCostService(store, cfg.Pricing)
	urlSvc := service.NewURLService(storage, docCache)

	engine := router.Setup(cfg,
		handler.NewProcessHandler(processSvc),
		handler.NewSamplingHandler(samplingSvc),
		handler.NewSummaryHandler(summarySvc, costSvc, urlSvc),
		handler.NewHealthHandler(store),
	)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Printf("server listening on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
	log.Println("server stopped")
}
