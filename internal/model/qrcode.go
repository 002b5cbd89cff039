// Package model defines domain entities for the application.
package model

import "time"

// QRStatus represents the lifecycle status of a QR code.
type QRStatus string

const (
	QRStatusActive   QRStatus = "active"
	QRStatusArchived QRStatus = "archived"
)

// IsValid checks if the status is a known value.
func (s QRStatus) IsValid() bool {
	return s == QRStatusActive || s == QRStatusArchived
}

// QRCode represents a dynamic QR code entity.
// The slug is immutable once assigned; the target URL may be edited at any
// time and takes effect on the very next scan. Archiving is the soft-delete:
// archived codes stop resolving but their scan history is kept.
type QRCode struct {
	ID               string    `json:"id"`
	Slug             string    `json:"slug"`
	CurrentTargetURL string    `json:"current_target_url"`
	Status           QRStatus  `json:"status"`
	OrgID            string    `json:"org_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// IsActive returns true if the code resolves on the public redirect path.
func (q *QRCode) IsActive() bool {
	return q.Status == QRStatusActive
}
