package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/heatgrid-dss/sizing-backend/config"
	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/ingest/mapper"
	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/ingest/parser"
	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/service"
	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/simulation"
)

// RunSize sizes a network file offline with the built-in analytic solver
// and writes sizing.json and compliance.json to the output directory.
func RunSize(args []string) {
	if len(args) < 1 {
		log.Fatal("usage: worker size <networkYAML> [outDir]")
	}
	path := args[0]
	outDir := "out"
	if len(args) > 1 {
		outDir = args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	doc, err := parser.ParseYAML(path)
	if err != nil {
		log.Fatalf("parse: %v", err)
	}
	net, err := mapper.ToNetwork(doc)
	if err != nil {
		log.Fatalf("map: %v", err)
	}

	svc := service.NewSizingService(
		service.PipelineFromConfig(cfg, nil),
		&simulation.AnalyticSolver{Fluid: service.HotWater()},
		nil, nil,
	)

	outcome, err := svc.Size(context.Background(), net)
	if err != nil {
		log.Fatalf("size: %v", err)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.Fatalf("out dir: %v", err)
	}
	if err := writeJSON(filepath.Join(outDir, "sizing.json"), struct {
		State      string      `json:"state"`
		BestEffort bool        `json:"best_effort"`
		Iterations int         `json:"iterations"`
		Results    interface{} `json:"results"`
		Summary    interface{} `json:"summary"`
		Warnings   []string    `json:"warnings,omitempty"`
	}{
		State:      string(outcome.State),
		BestEffort: outcome.BestEffort,
		Iterations: outcome.Iterations,
		Results:    outcome.Results,
		Summary:    outcome.Summary,
		Warnings:   outcome.Warnings,
	}); err != nil {
		log.Fatalf("write sizing.json: %v", err)
	}
	if err := writeJSON(filepath.Join(outDir, "compliance.json"), outcome.Report); err != nil {
		log.Fatalf("write compliance.json: %v", err)
	}

	fmt.Printf("Wrote: %s, %s\n", filepath.Join(outDir, "sizing.json"), filepath.Join(outDir, "compliance.json"))
	fmt.Printf("State: %s (iterations=%d, score=%.1f, cost=%.0f EUR)\n",
		outcome.State, outcome.Iterations, outcome.Report.Score, outcome.Summary.TotalCostEUR)
	for _, v := range outcome.Report.Violations() {
		fmt.Printf(" - [%s] %s %s: measured %.3g, limit %.3g\n", v.Severity, v.PipeID, v.Check, v.Measured, v.Limit)
	}
}

func writeJSON(path string, v interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
