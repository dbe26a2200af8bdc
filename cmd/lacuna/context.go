package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/gofrs/flock"

	"lacuna/internal/catalog/musicbrainz"
	"lacuna/internal/catalog/tmdb"
	"lacuna/internal/completeness"
	"lacuna/internal/config"
	"lacuna/internal/library"
	"lacuna/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) newLogger(cfg *config.Config) (*slog.Logger, error) {
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
}

// withEngine builds the full stack (lock, store, catalog clients,
// engine), runs fn, and tears everything down. SIGINT and SIGTERM
// request cooperative cancellation so checkpointed work survives.
func (c *commandContext) withEngine(fn func(ctx context.Context, engine *completeness.Engine, cfg *config.Config) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.newLogger(cfg)
	if err != nil {
		return err
	}

	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return errors.New("another lacuna process holds the library lock")
	}
	defer func() { _ = lock.Unlock() }()

	store, err := library.Open(cfg)
	if err != nil {
		return fmt.Errorf("open library: %w", err)
	}
	defer store.Close()

	var movies completeness.MovieCatalog
	if cfg.TMDB.APIKey != "" {
		client, err := tmdb.New(tmdb.Options{
			APIKey:      cfg.TMDB.APIKey,
			BaseURL:     cfg.TMDB.BaseURL,
			Language:    cfg.TMDB.Language,
			CacheTTL:    cfg.CacheTTL(),
			MaxInFlight: cfg.Analysis.MaxInFlight,
			Timeout:     cfg.RequestTimeout(),
			Logger:      logger,
		})
		if err != nil {
			return fmt.Errorf("tmdb client: %w", err)
		}
		movies = client
	}

	var music completeness.MusicCatalog
	if cfg.MusicBrainz.UserAgent != "" {
		client, err := musicbrainz.New(musicbrainz.Options{
			BaseURL:           cfg.MusicBrainz.BaseURL,
			UserAgent:         cfg.MusicBrainz.UserAgent,
			RequestsPerSecond: cfg.MusicBrainz.RequestsPerSecond,
			MaxRetries:        cfg.MusicBrainz.MaxRetries,
			CacheTTL:          cfg.CacheTTL(),
			Timeout:           cfg.RequestTimeout(),
			Logger:            logger,
		})
		if err != nil {
			return fmt.Errorf("musicbrainz client: %w", err)
		}
		music = client
	}

	engine := completeness.New(cfg, store, movies, music, logger)

	// The run context stays live through cancellation: flipping the
	// cancel token lets in-flight units finish and the final checkpoint
	// commit, where cancelling the context would abort both. A second
	// signal hard-exits for users who really mean it.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go cancelOnSignal(sigCh, engine.Cancel, func() { os.Exit(1) })

	return fn(context.Background(), engine, cfg)
}

// cancelOnSignal requests cooperative cancellation on the first signal
// and invokes exit on the second.
func cancelOnSignal(sig <-chan os.Signal, cancel func(), exit func()) {
	<-sig
	cancel()
	<-sig
	exit()
}

// withStore opens just the library store for read-only reporting.
func (c *commandContext) withStore(fn func(ctx context.Context, store *library.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := library.Open(cfg)
	if err != nil {
		return fmt.Errorf("open library: %w", err)
	}
	defer store.Close()
	return fn(context.Background(), store)
}
