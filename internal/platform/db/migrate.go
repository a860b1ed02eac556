package db

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// migrationLockKey serializes migrations across replicas starting together.
const migrationLockKey int64 = 0x74696d6573686565

type migration struct {
	version  string
	checksum string
	sql      string
}

// Migrate applies the .sql files in migrationsDir in name order, each in
// its own transaction. Applied versions are skipped; an applied file whose
// content changed since is an error.
func Migrate(ctx context.Context, pool *pgxpool.Pool, migrationsDir string, logger *slog.Logger) error {
	migrations, err := loadMigrations(migrationsDir)
	if err != nil {
		return err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", migrationLockKey); err != nil {
		return fmt.Errorf("migration lock: %w", err)
	}
	defer func() {
		if _, err := conn.Exec(context.WithoutCancel(ctx), "SELECT pg_advisory_unlock($1)", migrationLockKey); err != nil {
			logger.Warn("migration unlock failed", "err", err)
		}
	}()

	if _, err := conn.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
    version TEXT PRIMARY KEY,
    checksum TEXT NOT NULL DEFAULT '',
    applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
  )`); err != nil {
		return err
	}
	applied, err := appliedChecksums(ctx, conn.Conn())
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if sum, ok := applied[m.version]; ok {
			if sum != "" && sum != m.checksum {
				return fmt.Errorf("migration %s changed after it was applied", m.version)
			}
			continue
		}
		err := pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, m.sql); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version, checksum) VALUES ($1, $2)", m.version, m.checksum)
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %s failed: %w", m.version, err)
		}
		logger.Info("migration applied", "version", m.version)
	}
	return nil
}

func loadMigrations(dir string) ([]migration, error) {
	files, err := migrationFiles(dir)
	if err != nil {
		return nil, err
	}
	out := make([]migration, 0, len(files))
	for _, file := range files {
		body, err := os.ReadFile(filepath.Join(dir, file))
		if err != nil {
			return nil, err
		}
		sum := sha256.Sum256(body)
		out = append(out, migration{
			version:  strings.TrimSuffix(file, ".sql"),
			checksum: hex.EncodeToString(sum[:]),
			sql:      string(body),
		})
	}
	return out, nil
}

func migrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func appliedChecksums(ctx context.Context, conn *pgx.Conn) (map[string]string, error) {
	rows, err := conn.Query(ctx, "SELECT version, checksum FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	applied, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) ([2]string, error) {
		var pair [2]string
		err := row.Scan(&pair[0], &pair[1])
		return pair, err
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(applied))
	for _, pair := range applied {
		out[pair[0]] = pair[1]
	}
	return out, nil
}
