package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/ozcodx/marcopolo/internal/dataset"
	"github.com/ozcodx/marcopolo/internal/game"
	"github.com/ozcodx/marcopolo/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "marcopolo.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initService opens the store, runs migrations, and wires the game
// service. The returned closer shuts the store down.
func initService(ctx context.Context) (*game.Service, func() error, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, nil, eris.Wrap(err, "migrate store")
	}

	ds, err := dataset.Load()
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	return game.NewService(st, ds), st.Close, nil
}
