package main

import (
	"fmt"
	"log"
	"os"

	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/export"
	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/ingest/mapper"
	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/ingest/parser"
)

// RunGraph renders a network file as Graphviz DOT.
func RunGraph(args []string) {
	if len(args) < 1 {
		log.Fatal("usage: worker graph <networkYAML> [outPath]")
	}
	outPath := "network.dot"
	if len(args) > 1 {
		outPath = args[1]
	}
	if err := writeDOT(args[0], outPath); err != nil {
		log.Fatalf("graph: %v", err)
	}
	fmt.Printf("Wrote: %s\n", outPath)
}

func writeDOT(inPath, outPath string) error {
	doc, err := parser.ParseYAML(inPath)
	if err != nil {
		return err
	}
	net, err := mapper.ToNetwork(doc)
	if err != nil {
		return err
	}
	dot := export.ToDOT(net, net.ID)
	return os.WriteFile(outPath, []byte(dot), 0o644)
}
