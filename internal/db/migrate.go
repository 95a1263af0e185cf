package db

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// PromoPriceVersion is the first schema version carrying promo_types.price.
const PromoPriceVersion uint = 2

// Capabilities lists optional schema features resolved once at startup.
type Capabilities struct {
	SchemaVersion uint
	PromoPrice    bool
}

// NegotiateCapabilities maps a schema version to the features it supports.
func NegotiateCapabilities(version uint) Capabilities {
	return Capabilities{
		SchemaVersion: version,
		PromoPrice:    version >= PromoPriceVersion,
	}
}

// Migrate opens the embedded migration set against databaseURL. When apply is
// true pending migrations are run first. The resulting schema version is
// returned as capabilities.
func Migrate(databaseURL string, apply bool) (Capabilities, error) {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return Capabilities{}, fmt.Errorf("open migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, migrateURL(databaseURL))
	if err != nil {
		return Capabilities{}, fmt.Errorf("init migrate: %w", err)
	}
	defer func() {
		_, _ = m.Close()
	}()
	if apply {
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return Capabilities{}, fmt.Errorf("apply migrations: %w", err)
		}
	}
	version, dirty, err := m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return NegotiateCapabilities(0), nil
		}
		return Capabilities{}, fmt.Errorf("read schema version: %w", err)
	}
	if dirty {
		return Capabilities{}, fmt.Errorf("schema version %d is dirty", version)
	}
	return NegotiateCapabilities(version), nil
}

func migrateURL(databaseURL string) string {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(databaseURL, prefix) {
			return "pgx5://" + strings.TrimPrefix(databaseURL, prefix)
		}
	}
	return databaseURL
}
