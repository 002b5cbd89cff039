package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncRedirectMatched is a no-op.
func (n *NoopRecorder) IncRedirectMatched() {}

// IncRedirectFallback is a no-op.
func (n *NoopRecorder) IncRedirectFallback(reason string) {}

// IncStoreError is a no-op.
func (n *NoopRecorder) IncStoreError(code string) {}

// ObserveResolveDuration is a no-op.
func (n *NoopRecorder) ObserveResolveDuration(duration time.Duration) {}

// IncQRCreated is a no-op.
func (n *NoopRecorder) IncQRCreated() {}

// IncQRUpdated is a no-op.
func (n *NoopRecorder) IncQRUpdated() {}

// IncQRArchived is a no-op.
func (n *NoopRecorder) IncQRArchived() {}

// IncRateLimited is a no-op.
func (n *NoopRecorder) IncRateLimited(scope string) {}
