// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Fallback reasons recorded on the redirect path.
const (
	ReasonNoMatch     = "no_match"
	ReasonInvalidSlug = "invalid_slug"
	ReasonStoreError  = "store_error"
	ReasonPanic       = "panic"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Redirect path metrics
	IncRedirectMatched()
	IncRedirectFallback(reason string)
	IncStoreError(code string)
	ObserveResolveDuration(duration time.Duration)

	// Management API metrics
	IncQRCreated()
	IncQRUpdated()
	IncQRArchived()

	// Rate limiting
	IncRateLimited(scope string) // scope: "redirect" or "api"
}
