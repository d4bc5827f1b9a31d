package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/takascemberi/takas/internal/config"
	"github.com/takascemberi/takas/internal/db"
	"github.com/takascemberi/takas/internal/docstore"
	"github.com/takascemberi/takas/internal/store"
	"github.com/takascemberi/takas/internal/translate"
)

// app holds what every command needs once configuration is loaded.
type app struct {
	cfg         *config.Config
	db          *sql.DB
	items       store.ItemRepository
	translation *translate.Service
	closers     []func() error
}

// loadApp reads the configuration, sets up logging and opens the stores.
func loadApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	closeLog, err := setupLogger(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg}
	a.closers = append(a.closers, func() error { closeLog(); return nil })

	if err := a.open(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) open(ctx context.Context) error {
	database, err := db.Open(a.cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	a.closers = append(a.closers, database.Close)
	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	a.db = database
	slog.Info("database ready", "path", a.cfg.Database.Path)

	switch a.cfg.Store.Driver {
	case config.DriverFirestore:
		items, err := docstore.Open(ctx, a.cfg.Store.ProjectID, a.cfg.Store.CredentialsFile)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, items.Close)
		a.items = items
		slog.Info("listings in firestore", "project", a.cfg.Store.ProjectID)
	default:
		a.items = &store.SQLiteItems{DB: database}
	}

	interval := a.cfg.Translate.BatchInterval
	if interval == 0 {
		interval = -1 // zero in the file means no pacing
	}
	a.translation = translate.NewService(a.items, a.translator(ctx), translate.ServiceOptions{
		SourceLang:    a.cfg.Translate.SourceLang,
		BatchSize:     a.cfg.Translate.BatchSize,
		BatchInterval: interval,
	})
	return nil
}

// translator builds the MyMemory client, behind the Redis cache when one is
// configured and reachable.
func (a *app) translator(ctx context.Context) translate.Translator {
	var tr translate.Translator = translate.NewClient(translate.ClientOptions{
		Endpoint:     a.cfg.Translate.Endpoint,
		ContactEmail: a.cfg.Translate.ContactEmail,
		Timeout:      a.cfg.Translate.Timeout,
	})
	if a.cfg.Redis.Addr == "" {
		return tr
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, translation cache disabled", "addr", a.cfg.Redis.Addr, "error", err)
		rdb.Close()
		return tr
	}
	a.closers = append(a.closers, rdb.Close)
	slog.Info("translation cache enabled", "addr", a.cfg.Redis.Addr, "ttl", a.cfg.Redis.TTL)
	return &translate.Cached{Next: tr, Cache: translate.NewRedisCache(rdb, a.cfg.Redis.TTL)}
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("close failed", "error", err)
		}
	}
}
