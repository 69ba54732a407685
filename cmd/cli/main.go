package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/frontandrew/flighthub/internal/infrastructure/flightsource"
	"github.com/frontandrew/flighthub/internal/pkg/config"
	"github.com/frontandrew/flighthub/internal/pkg/database"
	"github.com/frontandrew/flighthub/internal/pkg/logger"
	"github.com/frontandrew/flighthub/internal/repository/postgres"
	"github.com/frontandrew/flighthub/internal/usecase/reference"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

const usage = `usage: cli <aircrafts|airlines|airports> sync`

// Syncer запускает синхронизацию справочника
type Syncer interface {
	Sync(ctx context.Context, entity string) (*reference.SyncReport, error)
}

func main() {
	if _, ok := parseArgs(os.Args[1:]); !ok {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(exitUsage)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(exitError)
	}

	log := logger.New(cfg.Logger.Level, cfg.Logger.Format, cfg.Logger.Output)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, &cfg.Database)
	if err != nil {
		log.Error("Failed to connect to database", map[string]interface{}{
			"error": err.Error(),
		})
		os.Exit(exitError)
	}

	if err := postgres.ApplySchema(ctx, db); err != nil {
		log.Error("Failed to apply schema", map[string]interface{}{
			"error": err.Error(),
		})
		database.Close(db)
		os.Exit(exitError)
	}

	source := flightsource.NewHTTPClient(flightsource.Config{
		ReferenceURL:   cfg.Source.ReferenceURL,
		APIURL:         cfg.Source.APIURL,
		APIKey:         cfg.Source.APIKey,
		APIHost:        cfg.Source.APIHost,
		Timeout:        cfg.Source.Timeout,
		DatasetTimeout: cfg.Source.DatasetTimeout,
		RateLimit:      cfg.Source.RateLimit,
		RateBurst:      cfg.Source.RateBurst,
	}, nil)

	service := reference.NewService(
		postgres.NewAircraftRepository(db),
		postgres.NewAirlineRepository(db),
		postgres.NewAirportRepository(db),
		database.NewTxManager(db),
		source,
		nil,
		nil,
		log,
	)

	code := run(ctx, os.Args[1:], service, log, os.Stderr)
	stop()
	database.Close(db)
	os.Exit(code)
}

// parseArgs возвращает имя справочника из аргументов "<entity> sync"
func parseArgs(args []string) (string, bool) {
	if len(args) != 2 || args[1] != "sync" {
		return "", false
	}
	switch args[0] {
	case reference.EntityAircrafts, reference.EntityAirlines, reference.EntityAirports:
		return args[0], true
	}
	return "", false
}

// run выполняет команду и возвращает код выхода
func run(ctx context.Context, args []string, syncer Syncer, log logger.Logger, stderr io.Writer) int {
	entity, ok := parseArgs(args)
	if !ok {
		fmt.Fprintln(stderr, usage)
		return exitUsage
	}

	report, err := syncer.Sync(ctx, entity)
	if err != nil {
		log.Error("Reference sync failed", map[string]interface{}{
			"entity": entity,
			"error":  err.Error(),
		})
		return exitError
	}

	log.Info("Reference sync finished", map[string]interface{}{
		"entity":   report.Entity,
		"total":    report.Total,
		"saved":    report.Saved,
		"invalid":  report.Invalid,
		"skipped":  report.Skipped,
		"duration": report.Duration.String(),
	})
	return exitOK
}
