package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/heatgrid-dss/sizing-backend/config"
	"github.com/heatgrid-dss/sizing-backend/internal/bootstrap"
	"github.com/heatgrid-dss/sizing-backend/internal/costbook"
)

// RunImportCosts loads a supplier price JSON file into the cost catalog.
func RunImportCosts(args []string) {
	if len(args) < 1 {
		log.Fatal("usage: worker import-costs <priceJSON>")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := bootstrap.OpenDBFromConfig(ctx, cfg)
	if err != nil {
		log.Fatalf("postgres pool: %v", err)
	}
	defer pool.Close()

	n, err := costbook.ImportFile(ctx, costbook.NewStore(pool), args[0])
	if err != nil {
		log.Fatalf("import: %v", err)
	}
	fmt.Printf("Imported %d cost rows\n", n)
}
