package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	crerr "github.com/cockroachdb/errors"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/riskibarqy/matchday-sync/internal/config"
)

// NewMigrator builds a golang-migrate instance over the schema directory.
// dir may be empty, in which case the usual locations are searched.
func NewMigrator(cfg config.Config, dir string) (*migrate.Migrate, string, error) {
	if strings.TrimSpace(cfg.DBURL) == "" {
		return nil, "", fmt.Errorf("DB_URL is required")
	}

	migrationsDir, err := resolveMigrationsDir(dir)
	if err != nil {
		return nil, "", err
	}

	sourceURL := "file://" + filepath.ToSlash(migrationsDir)
	m, err := migrate.New(sourceURL, normalizeDBURL(cfg.DBURL, cfg.DBBinaryParameters))
	if err != nil {
		return nil, "", crerr.Wrap(err, "create migrator")
	}
	return m, sourceURL, nil
}

func resolveMigrationsDir(explicit string) (string, error) {
	candidates := []string{
		strings.TrimSpace(explicit),
		strings.TrimSpace(os.Getenv("MIGRATIONS_DIR")),
		"./db/migrations",
		"/app/db/migrations",
	}

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			continue
		}
		return abs, nil
	}

	return "", fmt.Errorf("migration directory not found (checked --dir, MIGRATIONS_DIR, ./db/migrations, /app/db/migrations)")
}
