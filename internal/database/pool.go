package database

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	appconfig "github.com/wolfman30/contact-intake/internal/config"
)

const (
	maxConns          = 10
	minConns          = 0
	maxConnLifetime   = 5 * time.Minute
	maxConnIdleTime   = 10 * time.Minute
	connectTimeoutSec = 5
)

// Config holds what is needed to reach the relational store.
type Config struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     int
}

// ConfigFrom extracts the store settings from the application config.
func ConfigFrom(cfg *appconfig.Config) Config {
	return Config{
		Host:     cfg.DBHost,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Name:     cfg.DBName,
		Port:     cfg.DBPort,
	}
}

// ConnString renders a postgres:// URL. The password is escaped.
func (c Config) ConnString() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Name,
	}
	q := u.Query()
	q.Set("connect_timeout", strconv.Itoa(connectTimeoutSec))
	q.Set("sslmode", "prefer")
	u.RawQuery = q.Encode()
	return u.String()
}

// Redacted is ConnString with the password masked, for logs.
func (c Config) Redacted() string {
	return fmt.Sprintf("postgres://%s@%s/%s", c.User, net.JoinHostPort(c.Host, strconv.Itoa(c.Port)), c.Name)
}

// NewPool builds the process-wide connection pool. It does not dial: the first
// statement opens the first connection, so an unreachable store does not stop
// startup. Errors returned here mean the settings themselves are unusable.
func NewPool(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	if cfg.Host == "" || cfg.User == "" || cfg.Name == "" {
		return nil, fmt.Errorf("%w: host, user and database name are required", appconfig.ErrMisconfigured)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("%w: port %d out of range", appconfig.ErrMisconfigured, cfg.Port)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("%w: parse connection settings: %v", appconfig.ErrMisconfigured, err)
	}
	poolCfg.MaxConns = maxConns
	poolCfg.MinConns = minConns
	poolCfg.MaxConnLifetime = maxConnLifetime
	poolCfg.MaxConnIdleTime = maxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("database: create pool: %w", err)
	}
	return pool, nil
}
