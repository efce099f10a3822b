// Command seed splits a golden-keys export document into the pending and
// approved store documents used by the file driver, so a fresh data directory
// can be bootstrapped from a previously exported catalog.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/cdmworks/golden-keys-api/internal/models"
	"github.com/cdmworks/golden-keys-api/pkg/storage"
)

func main() {
	dataDir := flag.String("data", "./data", "catalog data directory")
	input := flag.String("in", "golden-keys.json", "export document to seed from")
	flag.Parse()

	raw, err := os.ReadFile(*input)
	if err != nil {
		log.Fatalf("read input: %v", err)
	}
	var keys []models.GoldenKey
	if err := json.Unmarshal(raw, &keys); err != nil {
		log.Fatalf("decode input: %v", err)
	}

	pending := []models.GoldenKey{}
	approved := []models.GoldenKey{}
	skipped := 0
	for _, key := range keys {
		switch key.ApprovalStatus {
		case models.ApprovalStatusPending:
			pending = append(pending, key)
		case models.ApprovalStatusApproved:
			approved = append(approved, key)
		default:
			skipped++
		}
	}

	store, err := storage.NewJSONStore(*dataDir)
	if err != nil {
		log.Fatalf("open data directory: %v", err)
	}
	if err := store.Write("pending_golden_keys.json", pending); err != nil {
		log.Fatalf("write pending document: %v", err)
	}
	if err := store.Write("approved_golden_keys.json", approved); err != nil {
		log.Fatalf("write approved document: %v", err)
	}

	fmt.Printf("seeded %s: %d pending, %d approved, %d skipped\n", *dataDir, len(pending), len(approved), skipped)
}
