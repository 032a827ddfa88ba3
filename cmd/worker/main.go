package main

import (
	"log"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: worker <size|graph|import-costs> ...")
	}

	switch os.Args[1] {
	case "size":
		RunSize(os.Args[2:])
	case "graph":
		RunGraph(os.Args[2:])
	case "import-costs":
		RunImportCosts(os.Args[2:])
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}
