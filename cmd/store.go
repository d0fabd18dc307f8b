package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mobility-cli/internal/store"
)

// initStore opens the configured store backend and applies migrations.
func initStore(ctx context.Context) (store.Store, error) {
	var st store.Store

	switch cfg.Store.Driver {
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			return nil, eris.New("store: database URL is required (MOBILITY_STORE_DATABASE_URL)")
		}
		poolCfg := &store.PoolConfig{MaxConns: cfg.Store.MaxConns, MinConns: cfg.Store.MinConns}
		pg, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, poolCfg)
		if err != nil {
			return nil, eris.Wrap(err, "store: init postgres")
		}
		st = pg
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "mobility.db"
		}
		sq, err := store.NewSQLite(dsn)
		if err != nil {
			return nil, eris.Wrap(err, "store: init sqlite")
		}
		st = sq
	default:
		return nil, eris.Errorf("store: unknown driver %q (valid: postgres, sqlite)", cfg.Store.Driver)
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "store: migrate")
	}
	return st, nil
}
