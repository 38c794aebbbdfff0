package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/iliyamo/sso-service/internal/config"
)

// Open connects to the credential store and verifies the connection before
// returning.  The pool is small: every request performs a handful of short
// point queries against the users table, so a few recycled connections cover
// the load and none sit idle long enough to hit MySQL's wait_timeout.
func Open(cfg config.Config) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn(cfg))
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("credential store ping: %w", err)
	}
	return db, nil
}

// dsn builds the MySQL connection string.  parseTime maps DATETIME columns to
// time.Time so sso_token_expiry scans straight into sql.NullTime, and loc=UTC
// keeps the expiry comparison in a single zone end to end.  The per-IO
// timeouts bound a hung store call independently of the request context.
func dsn(cfg config.Config) string {
	auth := cfg.DBUser
	if cfg.DBPass != "" {
		auth = cfg.DBUser + ":" + cfg.DBPass
	}
	return fmt.Sprintf(
		"%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC&timeout=5s&readTimeout=5s&writeTimeout=5s",
		auth, cfg.DBHost, cfg.DBPort, cfg.DBName)
}
