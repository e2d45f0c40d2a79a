package database

import (
	"errors"
	"fmt"
	"net"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/puddle/v2"
)

// ErrUnavailable marks a connectivity failure: the store is down, rejects our
// credentials, the target database does not exist, or the pool is closed.
var ErrUnavailable = errors.New("database: store unavailable")

// SQLSTATE codes that mean "cannot use this store" rather than "bad request".
const (
	codeInvalidAuthorization = "28000"
	codeInvalidPassword      = "28P01"
	codeInvalidCatalogName   = "3D000"
)

// Classify wraps connectivity failures with ErrUnavailable and returns every
// other error unchanged.
func Classify(err error) error {
	if err == nil || errors.Is(err, ErrUnavailable) {
		return err
	}
	if isConnectivity(err) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}

// IsUnavailable reports whether err is (or wraps) a connectivity failure.
func IsUnavailable(err error) bool {
	return errors.Is(Classify(err), ErrUnavailable)
}

func isConnectivity(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeInvalidAuthorization, codeInvalidPassword, codeInvalidCatalogName:
			return true
		}
		// The server answered; anything else is about the statement.
		return false
	}

	if errors.Is(err, puddle.ErrClosedPool) {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EHOSTUNREACH) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}
