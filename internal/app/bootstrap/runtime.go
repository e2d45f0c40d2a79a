package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/contact-intake/internal/config"
	"github.com/wolfman30/contact-intake/internal/contacts"
	"github.com/wolfman30/contact-intake/internal/database"
	httpmiddleware "github.com/wolfman30/contact-intake/internal/http/middleware"
	"github.com/wolfman30/contact-intake/internal/notify"
	"github.com/wolfman30/contact-intake/internal/observability/metrics"
	"github.com/wolfman30/contact-intake/pkg/logging"
)

// schemaTimeout bounds the startup schema pass so an unreachable store does
// not hold up the listener.
const schemaTimeout = 10 * time.Second

// BuildRedisClient returns a configured redis client or nil when Redis is not configured.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildContactLimiter picks the limiter for POST /api/contact: Redis when a
// client is available, process memory otherwise, none when the limit is 0.
func BuildContactLimiter(cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger) httpmiddleware.Limiter {
	if cfg == nil || cfg.ContactRateLimitPerMinute <= 0 {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if redisClient != nil {
		logger.Info("contact rate limit backed by redis", "per_minute", cfg.ContactRateLimitPerMinute)
		return httpmiddleware.NewRedisRateLimiter(redisClient, cfg.ContactRateLimitPerMinute, time.Minute)
	}
	logger.Info("contact rate limit kept in memory", "per_minute", cfg.ContactRateLimitPerMinute)
	return httpmiddleware.NewPerMinuteLimiter(cfg.ContactRateLimitPerMinute)
}

// BuildNotifier wires the submission side-channel. Without SendGrid
// credentials the stub sender only logs.
func BuildNotifier(cfg *appconfig.Config, logger *logging.Logger) *notify.SubmissionNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	var sender notify.EmailSender = notify.NewStubEmailSender(logger)
	if cfg != nil {
		if sg := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); sg != nil {
			sender = sg
		}
	}
	to := ""
	if cfg != nil {
		to = cfg.NotifyEmailTo
	}
	return notify.NewSubmissionNotifier(sender, to, logger)
}

// Store is the contact store for one process.
type Store struct {
	Pool       *pgxpool.Pool
	Repository *contacts.PostgresRepository
}

// Close releases the pool.
func (s *Store) Close() {
	if s != nil && s.Pool != nil {
		s.Pool.Close()
	}
}

// BuildStore creates the pool and repository and runs the schema pass. A
// schema failure is logged and the process keeps serving in degraded mode;
// only configuration errors are returned.
func BuildStore(ctx context.Context, cfg *appconfig.Config, m *metrics.ContactMetrics, logger *logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.Default()
	}
	dbCfg := database.ConfigFrom(cfg)
	pool, err := database.NewPool(ctx, dbCfg)
	if err != nil {
		return nil, err
	}
	logger.Info("contact store configured", "dsn", dbCfg.Redacted())

	schemaCtx, cancel := context.WithTimeout(ctx, schemaTimeout)
	defer cancel()
	if err := database.EnsureSchema(schemaCtx, pool); err != nil {
		logger.Warn("schema initialization failed, continuing in degraded mode", "error", err)
	} else {
		logger.Info("contact schema ready")
	}

	repo := contacts.NewPostgresRepository(pool, contacts.PostgresOptions{
		Fallback: contacts.NewDefaultFallback(),
		Metrics:  m,
		Logger:   logger,
	})
	return &Store{Pool: pool, Repository: repo}, nil
}
