// Command dbcheck verifies the contact store end to end: it connects, ensures
// the schema and round-trips one submission. With --memory it exercises the
// same steps against the in-memory repository.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	appconfig "github.com/wolfman30/contact-intake/internal/config"
	"github.com/wolfman30/contact-intake/internal/contacts"
	"github.com/wolfman30/contact-intake/internal/database"
	"github.com/wolfman30/contact-intake/pkg/logging"
)

func main() {
	memory := flag.Bool("memory", false, "run against the in-memory repository instead of Postgres")
	timeout := flag.Duration("timeout", 15*time.Second, "overall deadline")
	flag.Parse()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var (
		repo contacts.Repository
		err  error
	)
	if *memory {
		repo = contacts.NewInMemoryRepository()
	} else {
		repo, err = openStore(ctx, cfg, logger)
		if err != nil {
			logger.Error("store check failed", "error", err)
			os.Exit(1)
		}
	}

	if err := run(ctx, repo, os.Stdout); err != nil {
		logger.Error("store check failed", "error", err)
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (contacts.Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pool, err := database.NewPool(ctx, database.ConfigFrom(cfg))
	if err != nil {
		return nil, err
	}
	if err := database.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return contacts.NewPostgresRepository(pool, contacts.PostgresOptions{Logger: logger}), nil
}

// run creates a submission, reads it back, updates its status and lists.
func run(ctx context.Context, repo contacts.Repository, out io.Writer) error {
	sub, err := repo.Create(ctx, &contacts.CreateSubmissionRequest{
		Name:    "Store Check",
		Email:   "dbcheck@example.com",
		Service: contacts.ServiceOther,
		Message: "Automated store check " + time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	if !sub.Persisted {
		return errors.New("create: store unreachable, submission was not persisted")
	}
	fmt.Fprintf(out, "created submission %d\n", sub.ID)

	got, err := repo.GetByID(ctx, sub.ID)
	if err != nil {
		return fmt.Errorf("get %d: %w", sub.ID, err)
	}
	if got.Email != sub.Email {
		return fmt.Errorf("get %d: read back %q, wrote %q", sub.ID, got.Email, sub.Email)
	}

	updated, err := repo.UpdateStatus(ctx, sub.ID, contacts.StatusArchived)
	if err != nil {
		return fmt.Errorf("update %d: %w", sub.ID, err)
	}
	if !updated {
		return fmt.Errorf("update %d: no row updated", sub.ID)
	}

	all, err := repo.List(ctx)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	fmt.Fprintf(out, "store ok: %d submissions\n", len(all))
	return nil
}
