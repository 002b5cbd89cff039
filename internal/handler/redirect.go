package handler

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/dynamicqr/dynamicqr/internal/metrics"
	"github.com/dynamicqr/dynamicqr/internal/service"
)

// RedirectHandler serves the public scan path. Its contract is strict: a
// scanner either gets a 302 to the current target or a 200 fallback page.
// No request on this path is ever answered with a 4xx or 5xx.
type RedirectHandler struct {
	resolver *service.Resolver
	logger   *slog.Logger
	metrics  metrics.Recorder
}

// NewRedirectHandler creates a new RedirectHandler.
func NewRedirectHandler(resolver *service.Resolver, logger *slog.Logger, rec metrics.Recorder) *RedirectHandler {
	if rec == nil {
		rec = metrics.NewNoop()
	}
	return &RedirectHandler{
		resolver: resolver,
		logger:   logger,
		metrics:  rec,
	}
}

// Redirect handles GET /r/{slug}.
func (h *RedirectHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	slug := scanSlug(r)

	// A panic anywhere below still yields the fallback page. The only way a
	// scanner sees an error status is if the process itself is gone.
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("redirect_panic",
				slog.Any("panic", rec),
				slog.Int("slug_length", len(slug)),
			)
			h.metrics.IncRedirectFallback(metrics.ReasonPanic)
			renderFallback(w, slug)
		}
	}()

	result := h.resolver.Resolve(r.Context(), service.RedirectRequest{
		Slug:      slug,
		IP:        getClientIP(r),
		UserAgent: r.Header.Get("User-Agent"),
		Referrer:  r.Header.Get("Referer"),
		Country:   r.Header.Get("CF-IPCountry"),
	})

	if !result.Matched() {
		renderFallback(w, slug)
		return
	}

	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	// Never cache: the same slug can point somewhere else on the next scan.
	w.Header().Set("Cache-Control", "no-store")

	http.Redirect(w, r, result.TargetURL, http.StatusFound)
}

// Fallback serves the not-found page without attempting resolution. The
// rate limiter uses it so throttled scans still leave with a 200 page.
func (h *RedirectHandler) Fallback(w http.ResponseWriter, r *http.Request) {
	renderFallback(w, scanSlug(r))
}

// scanSlug returns the decoded slug path segment. chi keeps the raw path when
// it contains escapes, so a code scanned as /r/hello%20world arrives
// percent-encoded and must be unescaped before lookup.
func scanSlug(r *http.Request) string {
	raw := chi.URLParam(r, "slug")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// getClientIP extracts the client IP address from the request.
func getClientIP(r *http.Request) string {
	// Check Cloudflare header first
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		return ip
	}
	// Check X-Forwarded-For
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		// Take the first IP in the chain
		for i := 0; i < len(ip); i++ {
			if ip[i] == ',' {
				return ip[:i]
			}
		}
		return ip
	}
	// Check X-Real-IP
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	// Fall back to RemoteAddr
	return r.RemoteAddr
}
