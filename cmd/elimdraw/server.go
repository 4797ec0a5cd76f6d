package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/lox/elimdraw/cmd/elimdraw/shared"
	"github.com/lox/elimdraw/internal/lottery"
	"github.com/lox/elimdraw/internal/server"
)

// ServerCmd runs the gateway and the game engine.
type ServerCmd struct {
	Config string `kong:"default='elimdraw.hcl',help='Path to HCL config file'"`
	Addr   string `kong:"help='Listen address, overrides the config file'"`
	Debug  bool   `kong:"help='Enable debug logging'"`
}

func (c *ServerCmd) Run() error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := shared.SetupLoggerWithLevel(cfg.Server.LogLevel)
	if c.Debug {
		logger = shared.SetupLogger(true)
	}

	store, err := lottery.NewStore(logger, cfg.StoreOptions())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("store close failed", "error", err)
		}
	}()

	clock := quartz.NewReal()
	engine := lottery.NewEngine(logger, clock, store, cfg.EngineConfig())
	gate := lottery.NewRaidGate(logger, clock, engine, cfg.RaidConfig())

	addr := cfg.ListenAddress()
	if c.Addr != "" {
		addr = c.Addr
	}
	srv := server.NewServer(addr, logger, engine, gate)

	// Revive persisted games before accepting traffic, then re-arm the
	// raid reminder chains the snapshot could not carry.
	if err := engine.Restore(); err != nil {
		return fmt.Errorf("restore games: %w", err)
	}
	gate.Rearm()

	logger.Info("Starting elimdraw server", "addr", addr,
		"data_dir", cfg.Storage.DataDir, "raid_sender", cfg.Raid.Sender)

	ctx := shared.SetupSignalHandler(logger)

	var g errgroup.Group
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down server...")
		return srv.Stop()
	})
	return g.Wait()
}
