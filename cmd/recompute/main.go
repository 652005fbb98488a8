// Command recompute rescans stored extraction records and rewrites any
// average confidence that drifted from its confidence map.
package main

import (
	"context"
	"log"

	"invoscan/internal/cache"
	"invoscan/internal/config"
	"invoscan/internal/fsdb"
	"invoscan/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()
	store, err := fsdb.Resolve(ctx, cfg.GCP.ProjectID, cfg.GCP.FirestoreDatabaseID)
	if err != nil {
		log.Fatalf("failed to open document store: %v", err)
	}
	defer func() { _ = store.Close() }()

	svc := service.NewSummaryService(store, cache.New(store))
	result, err := svc.Recompute(ctx)
	if err != nil {
		log.Fatalf("recompute failed: %v", err)
	}

	log.Printf("recompute: scanned=%d updated=%d", result.Scanned, result.Updated)
	for _, change := range result.Changes {
		log.Printf("recompute: %s %.6f -> %.6f", change.RecordID, change.Prev, change.Next)
	}
}
