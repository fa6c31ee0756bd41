package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/neon-guide/guide-cli/internal/store"
)

// openStore opens the configured discovery store and runs migrations.
func openStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite", "":
		if dir := filepath.Dir(cfg.Store.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, eris.Wrap(err, "store: create data dir")
			}
		}
		st, err = store.NewSQLite(cfg.Store.Path)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}
