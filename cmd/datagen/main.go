package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ColourfulRhythm/subxadmin/backend/internal/config"
	"github.com/ColourfulRhythm/subxadmin/backend/internal/generator"
	"github.com/ColourfulRhythm/subxadmin/backend/internal/store"
)

func main() {
	cfg := generator.DefaultConfig()
	var (
		users         = flag.Int("users", cfg.NumUsers, "number of user profiles to generate")
		investments   = flag.Int("investments", cfg.NumInvestments, "number of investments to generate")
		dupChance     = flag.Float64("duplicate-chance", cfg.DuplicateUserChance, "probability a profile reuses an earlier email")
		echoChance    = flag.Float64("echo-chance", cfg.RequestEchoChance, "probability an investment is echoed as an approved request")
		missingChance = flag.Float64("missing-id-chance", cfg.MissingUserIDChance, "probability an investment carries only an email, no user id")
		coverage      = flag.Float64("ownership-coverage", cfg.OwnershipCoverage, "fraction of investments that already have an ownership record")
		seed          = flag.Int64("seed", cfg.Seed, "random seed for deterministic generation")
		outputDir     = flag.String("output-dir", "data", "directory to write one JSON file per collection")
		writeStdout   = flag.Bool("stdout", false, "write the combined dataset to stdout instead of files")
		seedStore     = flag.Bool("seed-store", false, "insert the dataset into the store configured via STORE_* env vars")
	)
	flag.Parse()

	genCfg := generator.Config{
		NumUsers:            *users,
		NumInvestments:      *investments,
		DuplicateUserChance: clampProbability(*dupChance),
		RequestEchoChance:   clampProbability(*echoChance),
		MissingUserIDChance: clampProbability(*missingChance),
		OwnershipCoverage:   clampProbability(*coverage),
		Seed:                *seed,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	gen := generator.New(genCfg)
	dataset, err := gen.Generate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}

	if *seedStore {
		appCfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		client, err := store.NewMongoClient(ctx, store.Options{
			URI:            appCfg.Store.URI,
			Database:       appCfg.Store.Database,
			MaxConnections: appCfg.Store.MaxConnections,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create store client: %v\n", err)
			os.Exit(1)
		}
		defer client.Close(context.Background())

		if err := generator.SeedStore(ctx, client, dataset); err != nil {
			fmt.Fprintf(os.Stderr, "failed to seed store: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stdout, "Seeded %d users, %d investments, %d requests, %d ownership records\n",
			len(dataset.Users), len(dataset.Investments), len(dataset.Requests), len(dataset.Ownership))
		return
	}

	if *writeStdout {
		if err := json.NewEncoder(os.Stdout).Encode(dataset); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write dataset to stdout: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := generator.WriteDataset(dataset, *outputDir); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write dataset: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Generated %d users, %d investments, %d requests, %d ownership records into %s\n",
		len(dataset.Users), len(dataset.Investments), len(dataset.Requests), len(dataset.Ownership), *outputDir)
}

func clampProbability(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
