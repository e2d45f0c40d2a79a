package contacts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/contact-intake/internal/database"
	"github.com/wolfman30/contact-intake/internal/observability/metrics"
	"github.com/wolfman30/contact-intake/pkg/logging"
)

var contactsTracer = otel.Tracer("contact-intake.internal.contacts")

// querier is the part of pgxpool.Pool the repository uses. Each call checks a
// connection out of the pool and returns it before the call completes (for
// Query, when the rows are closed).
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresOptions configures a PostgresRepository. Zero values are fine.
type PostgresOptions struct {
	Fallback FallbackSource
	Metrics  *metrics.ContactMetrics
	Logger   *logging.Logger
}

// PostgresRepository stores submissions in the contacts table.
//
// Create and List answer from the FallbackSource when the store is
// unreachable, so the site and the admin view keep working. GetByID and
// UpdateStatus name a specific record, and a made-up answer would be wrong, so
// they return an error wrapping database.ErrUnavailable instead. Data errors
// always propagate.
type PostgresRepository struct {
	db       querier
	fallback FallbackSource
	metrics  *metrics.ContactMetrics
	logger   *logging.Logger
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool, opts PostgresOptions) *PostgresRepository {
	if pool == nil {
		panic("contacts: pgx pool required")
	}
	return newPostgresRepository(pool, opts)
}

func newPostgresRepository(db querier, opts PostgresOptions) *PostgresRepository {
	if db == nil {
		panic("contacts: querier required")
	}
	if opts.Fallback == nil {
		opts.Fallback = NewDefaultFallback()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	return &PostgresRepository{
		db:       db,
		fallback: opts.Fallback,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
	}
}

const submissionColumns = `id, name, email, company, service, message, status, created_at, updated_at`

// Create inserts a new row with status new.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateSubmissionRequest) (*Submission, error) {
	normalized := *req
	normalized.Normalize()
	if err := normalized.Validate(); err != nil {
		return nil, err
	}

	ctx, span := contactsTracer.Start(ctx, "contacts.create")
	defer span.End()

	query := `
		INSERT INTO contacts (name, email, company, service, message, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	sub := &Submission{
		Name:      normalized.Name,
		Email:     normalized.Email,
		Company:   normalized.Company,
		Service:   normalized.Service,
		Message:   normalized.Message,
		Status:    StatusNew,
		Persisted: true,
	}

	start := time.Now()
	err := r.db.QueryRow(ctx, query,
		normalized.Name,
		normalized.Email,
		normalized.Company,
		string(normalized.Service),
		normalized.Message,
		string(StatusNew),
	).Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)
	r.observe("create", start, err)
	if err != nil {
		span.RecordError(err)
		if database.IsUnavailable(err) {
			r.logger.Warn("contact store unavailable, submission accepted without persisting", "error", err)
			r.metrics.ObserveFallback("create")
			span.SetAttributes(attribute.Bool("contacts.fallback", true))
			return r.fallback.Synthesize(&normalized), nil
		}
		return nil, fmt.Errorf("contacts: insert failed: %w", err)
	}

	span.SetAttributes(attribute.Int64("contacts.id", sub.ID))
	r.logger.Info("contact saved", "id", sub.ID, "service", sub.Service)
	return sub, nil
}

// List returns every submission, newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]*Submission, error) {
	ctx, span := contactsTracer.Start(ctx, "contacts.list")
	defer span.End()

	start := time.Now()
	out, err := r.list(ctx)
	r.observe("list", start, err)
	if err != nil {
		span.RecordError(err)
		if database.IsUnavailable(err) {
			r.logger.Warn("contact store unavailable, serving sample listing", "error", err)
			r.metrics.ObserveFallback("list")
			span.SetAttributes(attribute.Bool("contacts.fallback", true))
			return r.fallback.Records(), nil
		}
		return nil, fmt.Errorf("contacts: list failed: %w", err)
	}

	span.SetAttributes(attribute.Int("contacts.count", len(out)))
	r.logger.Debug("contacts fetched", "count", len(out))
	return out, nil
}

func (r *PostgresRepository) list(ctx context.Context) ([]*Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM contacts ORDER BY created_at DESC, id DESC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*Submission, 0)
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches a single submission.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*Submission, error) {
	if IsSyntheticID(id) {
		return nil, ErrSubmissionNotFound
	}

	ctx, span := contactsTracer.Start(ctx, "contacts.get")
	defer span.End()
	span.SetAttributes(attribute.Int64("contacts.id", id))

	query := `SELECT ` + submissionColumns + ` FROM contacts WHERE id = $1`
	start := time.Now()
	sub, err := scanSubmission(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		r.observe("get", start, nil)
		return nil, ErrSubmissionNotFound
	}
	r.observe("get", start, err)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("contacts: select failed: %w", database.Classify(err))
	}
	return sub, nil
}

// UpdateStatus sets a new status and refreshes updated_at. It reports false
// when no row has the id.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id int64, status Status) (bool, error) {
	if !status.Valid() {
		return false, ErrInvalidStatus
	}
	if IsSyntheticID(id) {
		return false, nil
	}

	ctx, span := contactsTracer.Start(ctx, "contacts.update_status")
	defer span.End()
	span.SetAttributes(attribute.Int64("contacts.id", id), attribute.String("contacts.status", string(status)))

	query := `
		UPDATE contacts
		SET status = $1, updated_at = GREATEST(NOW(), updated_at)
		WHERE id = $2
	`
	start := time.Now()
	tag, err := r.db.Exec(ctx, query, string(status), id)
	r.observe("update_status", start, err)
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("contacts: update status failed: %w", database.Classify(err))
	}
	if tag.RowsAffected() == 0 {
		r.logger.Info("no contact to update", "id", id)
		return false, nil
	}
	r.logger.Info("contact status updated", "id", id, "status", status)
	return true, nil
}

func (r *PostgresRepository) observe(operation string, start time.Time, err error) {
	result := "ok"
	switch {
	case err == nil:
	case database.IsUnavailable(err):
		result = "unavailable"
	default:
		result = "error"
	}
	r.metrics.ObserveStoreLatency(operation, result, time.Since(start).Seconds())
}

func scanSubmission(row pgx.Row) (*Submission, error) {
	var (
		sub     Submission
		service string
		status  string
	)
	if err := row.Scan(
		&sub.ID,
		&sub.Name,
		&sub.Email,
		&sub.Company,
		&service,
		&sub.Message,
		&status,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	); err != nil {
		return nil, err
	}
	sub.Service = Service(service)
	sub.Status = Status(status)
	sub.Persisted = true
	return &sub, nil
}
