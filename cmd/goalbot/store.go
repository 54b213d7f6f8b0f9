package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/jdelaire/goalbot/internal/store"
)

// openStore opens the configured database and applies pending
// migrations.
func openStore(ctx context.Context) (*store.Store, error) {
	driver := store.Driver(viper.GetString("database.driver"))
	st, err := store.Open(driver, viper.GetString("database.dsn"))
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return st, nil
}
