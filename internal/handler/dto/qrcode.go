// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/dynamicqr/dynamicqr/internal/model"
)

// CreateQRCodeRequest represents the request body for creating a QR code.
// An empty slug asks the server to generate one.
type CreateQRCodeRequest struct {
	TargetURL string `json:"target_url"`
	Slug      string `json:"slug,omitempty"`
}

// UpdateQRCodeRequest represents the request body for retargeting a QR code.
type UpdateQRCodeRequest struct {
	TargetURL string `json:"target_url"`
}

// QRCodeResponse represents a QR code in API responses.
type QRCodeResponse struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	ScanURL   string    `json:"scan_url"`
	TargetURL string    `json:"target_url"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// QRCodeListResponse represents a paginated list of QR codes.
type QRCodeListResponse struct {
	Data       []QRCodeResponse `json:"data"`
	Pagination *Pagination      `json:"pagination"`
}

// ScanEventResponse represents one recorded scan in API responses.
// The IP hash is exposed as an opaque visitor token; raw IPs never exist
// in the system.
type ScanEventResponse struct {
	ID        string    `json:"id"`
	TS        time.Time `json:"ts"`
	IPHash    string    `json:"ip_hash"`
	UserAgent string    `json:"user_agent,omitempty"`
	Referrer  string    `json:"referrer,omitempty"`
	Country   string    `json:"country,omitempty"`
	City      string    `json:"city,omitempty"`
}

// ScanListResponse represents a paginated list of scan events.
type ScanListResponse struct {
	Data       []ScanEventResponse `json:"data"`
	Pagination *Pagination         `json:"pagination"`
}

// Pagination provides cursor-based pagination info.
type Pagination struct {
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ToQRCodeResponse converts a QRCode model to its API shape.
func ToQRCodeResponse(qr *model.QRCode, baseURL string) *QRCodeResponse {
	return &QRCodeResponse{
		ID:        qr.ID,
		Slug:      qr.Slug,
		ScanURL:   baseURL + "/r/" + qr.Slug,
		TargetURL: qr.CurrentTargetURL,
		Status:    string(qr.Status),
		CreatedAt: qr.CreatedAt,
		UpdatedAt: qr.UpdatedAt,
	}
}

// ToQRCodeListResponse converts a page of QRCode models.
func ToQRCodeListResponse(codes []*model.QRCode, baseURL, nextCursor string) *QRCodeListResponse {
	responses := make([]QRCodeResponse, len(codes))
	for i, qr := range codes {
		responses[i] = *ToQRCodeResponse(qr, baseURL)
	}
	return &QRCodeListResponse{
		Data: responses,
		Pagination: &Pagination{
			NextCursor: nextCursor,
			HasMore:    nextCursor != "",
		},
	}
}

// ToScanEventResponse converts a ScanEvent model to its API shape.
func ToScanEventResponse(ev *model.ScanEvent) *ScanEventResponse {
	return &ScanEventResponse{
		ID:        ev.ID,
		TS:        ev.TS,
		IPHash:    ev.IPHash,
		UserAgent: ev.UserAgent,
		Referrer:  ev.Referrer,
		Country:   ev.Country,
		City:      ev.City,
	}
}

// ToScanListResponse converts a page of ScanEvent models.
func ToScanListResponse(events []*model.ScanEvent, nextCursor string) *ScanListResponse {
	responses := make([]ScanEventResponse, len(events))
	for i, ev := range events {
		responses[i] = *ToScanEventResponse(ev)
	}
	return &ScanListResponse{
		Data: responses,
		Pagination: &Pagination{
			NextCursor: nextCursor,
			HasMore:    nextCursor != "",
		},
	}
}
