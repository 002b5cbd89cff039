// Package service holds the application logic between HTTP handlers and the
// store. The Resolver owns the scan-and-redirect path; QRCodeService owns
// management of QR codes themselves.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/dynamicqr/dynamicqr/internal/metrics"
	"github.com/dynamicqr/dynamicqr/internal/store"
)

// RedirectStore is the single store dependency of the Resolver. The real
// implementation calls the handle_redirect database procedure, which performs
// the slug lookup and the scan insert as one atomic unit (including hashing
// the caller IP server-side, so hashing never happens in this process).
type RedirectStore interface {
	HandleRedirect(ctx context.Context, slug string, visit store.RedirectVisit) (string, bool, error)
}

// RedirectRequest carries everything the resolution path needs for one scan.
// Metadata fields are passed through to the store exactly as extracted from
// the request; empty strings mean the header was absent.
type RedirectRequest struct {
	Slug      string
	IP        string
	UserAgent string
	Referrer  string
	Country   string
}

// RedirectResult is the outcome of a resolution attempt. It is a value, not
// an error: every request on the redirect path gets a usable result.
//
// Success=true with TargetURL set means redirect. Success=true with an empty
// TargetURL means the store answered cleanly but no active QR matched.
// Success=false means the store call itself failed; Err carries the
// normalized failure and the caller shows the fallback page.
type RedirectResult struct {
	Slug      string
	TargetURL string
	Success   bool
	Err       *store.StoreError
}

// Matched reports whether the result should produce a redirect.
func (r RedirectResult) Matched() bool {
	return r.Success && r.TargetURL != ""
}

// Resolver executes the scan-and-redirect flow. It never retries and never
// returns an error to the handler; failures degrade to a fallback result.
type Resolver struct {
	store   RedirectStore
	timeout time.Duration
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewResolver wires a Resolver. timeout bounds each store call and must be
// sub-second in production configs; a non-positive value disables the bound.
func NewResolver(st RedirectStore, timeout time.Duration, logger *slog.Logger, rec metrics.Recorder) *Resolver {
	if rec == nil {
		rec = metrics.NewNoop()
	}
	return &Resolver{
		store:   st,
		timeout: timeout,
		logger:  logger,
		metrics: rec,
	}
}

// Resolve runs one scan. Invalid slugs short-circuit before any store call,
// so nothing is recorded for them. A store failure is logged and surfaced in
// the result, never propagated as an error.
func (r *Resolver) Resolve(ctx context.Context, req RedirectRequest) RedirectResult {
	start := time.Now()

	if err := ValidateSlug(req.Slug); err != nil {
		r.metrics.IncRedirectFallback(metrics.ReasonInvalidSlug)
		r.logger.Debug("redirect_invalid_slug",
			slog.Int("slug_length", len(req.Slug)),
		)
		return RedirectResult{Slug: req.Slug, Success: true}
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	target, matched, err := r.store.HandleRedirect(ctx, req.Slug, store.RedirectVisit{
		IP:        req.IP,
		UserAgent: req.UserAgent,
		Referrer:  req.Referrer,
		Country:   req.Country,
	})
	elapsed := time.Since(start)
	r.metrics.ObserveResolveDuration(elapsed)

	if err != nil {
		storeErr := store.NormalizeError(err)
		r.metrics.IncStoreError(storeErr.Code)
		r.metrics.IncRedirectFallback(metrics.ReasonStoreError)
		r.logger.Error("redirect_store_error",
			slog.String("slug", req.Slug),
			slog.String("code", storeErr.Code),
			slog.String("error", storeErr.Message),
			slog.Duration("duration", elapsed),
		)
		return RedirectResult{Slug: req.Slug, Success: false, Err: storeErr}
	}

	if !matched || target == "" {
		r.metrics.IncRedirectFallback(metrics.ReasonNoMatch)
		r.logger.Info("redirect_no_match",
			slog.String("slug", req.Slug),
			slog.Duration("duration", elapsed),
		)
		return RedirectResult{Slug: req.Slug, Success: true}
	}

	r.metrics.IncRedirectMatched()
	r.logger.Info("redirect_matched",
		slog.String("slug", req.Slug),
		slog.Duration("duration", elapsed),
	)
	return RedirectResult{Slug: req.Slug, TargetURL: target, Success: true}
}
