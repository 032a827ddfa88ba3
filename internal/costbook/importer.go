package costbook

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// ImportFile loads a supplier price JSON file into the store. Used by the
// worker CLI and as the cron fallback when the feed is unreachable.
func ImportFile(ctx context.Context, store *Store, path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("costbook: read price file: %w", err)
	}
	var rows []Row
	if err := json.Unmarshal(b, &rows); err != nil {
		return 0, fmt.Errorf("costbook: parse price file: %w", err)
	}
	if err := store.Upsert(ctx, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// Refresh fetches the live feed and imports it.
func Refresh(ctx context.Context, fetcher *Fetcher, store *Store) (int, error) {
	rows, err := fetcher.Fetch(ctx)
	if err != nil {
		return 0, err
	}
	if err := store.Upsert(ctx, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}
