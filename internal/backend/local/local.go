// Package local implements service.Service on an embedded SQLite database.
// It mirrors the behaviour of the remote project closely enough to develop
// and test against without network access: password accounts, signed access
// tokens with refresh, and tasks scoped to the signed-in owner.
package local

import (
	"context"
	"crypto/rand"
	"database/sql"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"todoshell/internal/config"
	"todoshell/internal/service"
	"todoshell/internal/session"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	accessTokenTTL = time.Hour
	issuer         = "todoshell-local"
	secretKey      = "jwt_secret"
)

// Backend implements service.Service against a SQLite file.
type Backend struct {
	db          *sql.DB
	secret      []byte
	autoConfirm bool
	store       session.Store
	notifier    *session.Notifier
	log         *zap.Logger
	now         func() time.Time
}

// Open opens (creating if needed) the database in cfg.LocalDBPath() and
// applies pending migrations.
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	if err := cfg.EnsureDir(); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("local")

	db, err := openDB(ctx, cfg.LocalDBPath())
	if err != nil {
		return nil, err
	}
	secret, err := loadSecret(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	store := session.Store{Path: cfg.SessionPath()}
	log.Debug("opened database", zap.String("path", cfg.LocalDBPath()))
	return &Backend{
		db:          db,
		secret:      secret,
		autoConfirm: cfg.LocalAutoConfirm,
		store:       store,
		notifier:    session.NewNotifier(store, cfg.SessionPoll, log),
		log:         log,
		now:         time.Now,
	}, nil
}

func openDB(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to configure database: %w", err)
		}
	}
	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// runMigrations applies every embedded migration. The migrate instance is
// not closed because its driver would close db with it.
func runMigrations(db *sql.DB) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}
	defer source.Close()

	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// loadSecret returns the token signing key of this database, creating it on
// first use.
func loadSecret(ctx context.Context, db *sql.DB) ([]byte, error) {
	var hexSecret string
	err := db.QueryRowContext(ctx, `SELECT v FROM meta WHERE k = ?`, secretKey).Scan(&hexSecret)
	if errors.Is(err, sql.ErrNoRows) {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("failed to generate signing key: %w", err)
		}
		hexSecret = hex.EncodeToString(buf)
		if _, err := db.ExecContext(ctx, `INSERT INTO meta (k, v) VALUES (?, ?)`, secretKey, hexSecret); err != nil {
			return nil, fmt.Errorf("failed to store signing key: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to read signing key: %w", err)
	}
	return hex.DecodeString(hexSecret)
}

// OnSessionChange implements service.SessionGateway.
func (b *Backend) OnSessionChange(handler func(service.AuthEvent, *service.Session)) service.Subscription {
	return b.notifier.Subscribe(handler)
}

// Close stops the session watcher and closes the database.
func (b *Backend) Close() error {
	b.notifier.Close()
	return b.db.Close()
}
