package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// RedirectVisit carries the visitor metadata forwarded to handle_redirect.
// All fields are plain strings passed through as-is; absent values are empty
// strings, which is what the procedure expects.
type RedirectVisit struct {
	IP        string
	UserAgent string
	Referrer  string
	Country   string
}

// HandleRedirect invokes the handle_redirect database procedure. In a single
// transactional unit the procedure finds the QR code by slug where status is
// active, writes one scan event with a hashed IP, and returns the row's
// current target URL. Zero rows means no active match and is not an error.
//
// IP hashing is the procedure's job; the raw IP never touches a table.
func (s *Store) HandleRedirect(ctx context.Context, slug string, visit RedirectVisit) (string, bool, error) {
	query := `SELECT target_url FROM handle_redirect($1, $2, $3, $4, $5)`

	var targetURL string
	err := s.pool.QueryRow(ctx, query,
		slug,
		visit.IP,
		visit.UserAgent,
		visit.Referrer,
		visit.Country,
	).Scan(&targetURL)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("handle_redirect: %w", err)
	}

	return targetURL, true, nil
}

// StoreError codes produced by NormalizeError.
const (
	ErrCodeTimeout     = "timeout"
	ErrCodeCanceled    = "canceled"
	ErrCodeUnavailable = "unavailable"
)

// StoreError is the normalized form of any failure reported by a store call.
// Downstream logic operates on these known fields instead of inspecting
// driver-specific error shapes.
type StoreError struct {
	Code    string
	Message string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("store error [%s]: %s", e.Code, e.Message)
}

// NormalizeError converts an arbitrary store call failure into a StoreError.
// PostgreSQL errors keep their SQLSTATE as the code; timeouts and
// cancellations get stable codes so callers can report them distinctly.
func NormalizeError(err error) *StoreError {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &StoreError{Code: pgErr.Code, Message: pgErr.Message}
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &StoreError{Code: ErrCodeTimeout, Message: err.Error()}
	case errors.Is(err, context.Canceled):
		return &StoreError{Code: ErrCodeCanceled, Message: err.Error()}
	}

	return &StoreError{Code: ErrCodeUnavailable, Message: err.Error()}
}
