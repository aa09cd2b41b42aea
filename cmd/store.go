package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/edsignal/opportunity-cli/internal/engine"
	"github.com/edsignal/opportunity-cli/internal/store"
)

// openStore opens the configured backend for reading. A missing SQLite
// database is a data-unavailable condition, not a usage error.
func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		st, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
		if err != nil {
			return nil, eris.Wrapf(engine.ErrDataUnavailable, "open postgres store: %v", err)
		}
		return st, nil
	case "sqlite", "":
		st, err := store.OpenSQLite(cfg.Store.Path)
		if err != nil {
			return nil, eris.Wrapf(engine.ErrDataUnavailable, "%v", err)
		}
		return st, nil
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// initStore opens or creates the configured backend and applies the
// schema, for commands that write.
func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	case "sqlite", "":
		if dir := filepath.Dir(cfg.Store.Path); dir != "." {
			if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
				return nil, eris.Wrapf(mkErr, "create data directory %s", dir)
			}
		}
		st, err = store.NewSQLite(cfg.Store.Path)
	default:
		err = eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}
