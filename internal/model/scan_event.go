// Package model defines domain entities for the application.
package model

import (
	"regexp"
	"time"
)

// ScanEvent is one append-only analytics row written by the data store's
// handle_redirect procedure whenever a slug resolves to an active QR code.
// This service only ever reads these rows; it never inserts, updates, or
// deletes them.
type ScanEvent struct {
	ID     string    `json:"id"`
	QRID   string    `json:"qr_id"`    // FK to qr_codes.id
	TS     time.Time `json:"ts"`       // server time of the scan
	IPHash string    `json:"ip_hash"`  // one-way digest, never the raw IP

	// Request metadata captured by the store procedure
	UserAgent string `json:"user_agent,omitempty"`
	Referrer  string `json:"referrer,omitempty"`
	Country   string `json:"country,omitempty"`
	City      string `json:"city,omitempty"`
}

// ipHashPattern is the digest shape the store procedure produces:
// a 64-character lowercase hex string (256-bit hash).
var ipHashPattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// ValidIPHash reports whether a stored hash matches the expected digest
// shape. A value failing this check (a raw IP in particular) indicates a
// broken store procedure.
func ValidIPHash(hash string) bool {
	return ipHashPattern.MatchString(hash)
}
