package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ColourfulRhythm/subxadmin/backend/internal/config"
	"github.com/ColourfulRhythm/subxadmin/backend/internal/logging"
	"github.com/ColourfulRhythm/subxadmin/backend/internal/service"
	"github.com/ColourfulRhythm/subxadmin/backend/internal/store"
)

func main() {
	var (
		statusOnly = flag.Bool("status", false, "Report the ownership set difference without writing anything")
		operator   = flag.String("operator", "", "Operator identity recorded on every created record")
		timeout    = flag.Duration("timeout", 10*time.Minute, "Overall run timeout")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging).With("component", "migrate")

	if !*statusOnly && *operator == "" {
		logger.Error("an -operator is required to run the migration")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx, timeoutCancel := context.WithTimeout(ctx, *timeout)
	defer timeoutCancel()

	storeClient, err := store.NewMongoClient(ctx, store.Options{
		URI:            cfg.Store.URI,
		Database:       cfg.Store.Database,
		MaxConnections: cfg.Store.MaxConnections,
	})
	if err != nil {
		logger.Error("failed to create store client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := storeClient.Close(context.Background()); err != nil {
			logger.Warn("closing store client failed", "error", err)
		}
	}()

	reconciler := service.NewReconciler(storeClient, nil, logger)

	if *statusOnly {
		status, err := reconciler.CheckMigrationStatus(ctx)
		if err != nil {
			logger.Error("migration status check failed", "error", err)
			os.Exit(1)
		}
		printJSON(status)
		return
	}

	start := time.Now()
	report, err := reconciler.RunMigration(ctx, *operator)
	if err != nil {
		// Per-record results survive even when the run is cut short; print
		// what happened before exiting non-zero.
		printJSON(report)
		logger.Error("migration aborted", "error", err, "created", report.Created)
		os.Exit(1)
	}

	printJSON(report)
	logger.Info("migration complete",
		"duration", time.Since(start).String(),
		"created", report.Created,
		"failed", report.Failed,
		"success", report.Success(),
	)
	if !report.Success() {
		os.Exit(2)
	}
}

func printJSON(v any) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(v)
}
