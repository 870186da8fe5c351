// Command gridctl is an interactive editor over a SQLite asset table. Edits
// stay local until "save" commits them in one batch.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/danbne/velaxios-sub000/config"
	"github.com/danbne/velaxios-sub000/grid"
	"github.com/danbne/velaxios-sub000/guard"
	"github.com/danbne/velaxios-sub000/internal/logging"
	"github.com/danbne/velaxios-sub000/store"
	"github.com/danbne/velaxios-sub000/workset"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default $GRIDCTL_CONFIG or config/gridctl.json)")
	dbPath := flag.String("db", "", "sqlite database path, overrides the config")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gridctl: %v\n", err)
		os.Exit(1)
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gridctl: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("gridctl failed", zap.Error(err))
		os.Exit(1)
	}
}

// loadConfig reads path, or the default location when path is empty. A
// missing default file falls back to DefaultConfig.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	cfg, err := config.Load(config.Path())
	if errors.Is(err, os.ErrNotExist) {
		return config.DefaultConfig(), nil
	}
	return cfg, err
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	st, db, err := store.Open[asset](ctx, cfg.DBPath,
		store.WithTable[asset](cfg.Table),
		store.WithValidator[asset](validateAsset),
		store.WithLogger[asset](logger))
	if err != nil {
		return err
	}
	defer db.Close()

	if n, err := st.PurgeTempRows(ctx); err != nil {
		return err
	} else if n > 0 {
		logger.Warn("purged rows stored under temporary ids", zap.Int64("rows", n))
	}

	view := grid.NewView[asset]()
	set, err := workset.New[asset](st,
		workset.WithSurface[asset](view),
		workset.WithLogger[asset](logger))
	if err != nil {
		return err
	}
	defer set.Close()

	g, err := guard.New(set, logger)
	if err != nil {
		return err
	}

	sh := newShell(set, view, g, os.Stdin, os.Stdout)
	sh.fetchTimeout = cfg.FetchTimeout.Duration
	sh.saveTimeout = cfg.SaveTimeout.Duration
	if err := sh.load(ctx); err != nil {
		return err
	}
	logger.Info("rows loaded", zap.String("db", cfg.DBPath), zap.Int("rows", set.Len()))
	return sh.run(ctx)
}
