package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ColourfulRhythm/subxadmin/backend/internal/store"
)

// SeedStore inserts the dataset into the target store, one document per
// record, preserving the drifted field names exactly as generated.
func SeedStore(ctx context.Context, client store.Client, ds Dataset) error {
	collections := []struct {
		name    string
		records []store.RawRecord
	}{
		{store.CollectionUsers, ds.Users},
		{store.CollectionInvestments, ds.Investments},
		{store.CollectionRequests, ds.Requests},
		{store.CollectionPlotOwnership, ds.Ownership},
	}

	for _, c := range collections {
		for _, rec := range c.records {
			if err := ctx.Err(); err != nil {
				return err
			}
			fields := rec.Clone()
			delete(fields, store.IDField)
			if _, err := client.Add(ctx, c.name, fields); err != nil {
				return fmt.Errorf("seed %s: %w", c.name, err)
			}
		}
	}
	return nil
}

// WriteDataset serializes the dataset into one JSON file per collection
// under the provided directory.
func WriteDataset(ds Dataset, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	files := map[string]any{
		"users.json":               ds.Users,
		"investments.json":         ds.Investments,
		"investment_requests.json": ds.Requests,
		"plot_ownership.json":      ds.Ownership,
	}
	for name, data := range files {
		if err := writeJSON(filepath.Join(dir, name), data); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(path string, data any) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encode json for %s: %w", path, err)
	}
	return nil
}
