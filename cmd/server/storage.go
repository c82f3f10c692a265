package main

import (
	"context"
	"database/sql"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/ticket-escrow/internal/clock"
	"github.com/iliyamo/ticket-escrow/internal/config"
	"github.com/iliyamo/ticket-escrow/internal/database"
	"github.com/iliyamo/ticket-escrow/internal/handler"
	"github.com/iliyamo/ticket-escrow/internal/memstore"
	"github.com/iliyamo/ticket-escrow/internal/registry"
	"github.com/iliyamo/ticket-escrow/internal/repository"
	"github.com/iliyamo/ticket-escrow/internal/ticketing"
)

// storage bundles the backends selected by STORAGE_DRIVER.
type storage struct {
	ticketing ticketing.Store
	registry  registry.Store
	users     handler.UserStore
	tokens    handler.RefreshStore
	pingers   []handler.Pinger
	close     func()
}

func openStorage(ctx context.Context, cfg config.Config, clk clock.Clock) (*storage, error) {
	if cfg.StorageDriver == config.StorageMemory {
		mem := memstore.New(clk)
		accounts := memstore.NewAccounts()
		return &storage{
			ticketing: mem,
			registry:  mem,
			users:     accounts,
			tokens:    accounts,
			close:     func() {},
		}, nil
	}

	db, err := database.Open(ctx, database.Params{
		User: cfg.DBUser,
		Pass: cfg.DBPass,
		Host: cfg.DBHost,
		Port: cfg.DBPort,
		Name: cfg.DBName,
	})
	if err != nil {
		return nil, err
	}
	if cfg.DBMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	st := repository.NewStore(db)
	return &storage{
		ticketing: st,
		registry:  st,
		users:     repository.NewUserRepo(db),
		tokens:    repository.NewTokenRepo(db),
		pingers:   []handler.Pinger{db},
		close:     func() { _ = db.Close() },
	}, nil
}

type redisPinger struct{ rdb *redis.Client }

func (p redisPinger) PingContext(ctx context.Context) error { return p.rdb.Ping(ctx).Err() }

var _ handler.Pinger = (*sql.DB)(nil)
