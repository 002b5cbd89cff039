package store

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dynamicqr/dynamicqr/internal/model"
)

// Common errors for QR code store operations.
var (
	ErrQRNotFound    = errors.New("qr code not found")
	ErrSlugExists    = errors.New("slug already exists")
	ErrInvalidCursor = errors.New("invalid pagination cursor")
)

// QRFilter defines filters for listing QR codes.
type QRFilter struct {
	OrgID  string
	Status model.QRStatus
}

// PaginationCursor represents decoded cursor for pagination.
type PaginationCursor struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateQRCode inserts a new QR code.
func (s *Store) CreateQRCode(ctx context.Context, qr *model.QRCode) error {
	query := `
		INSERT INTO qr_codes (id, slug, current_target_url, status, org_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.pool.Exec(ctx, query,
		qr.ID,
		qr.Slug,
		qr.CurrentTargetURL,
		qr.Status,
		qr.OrgID,
		qr.CreatedAt,
		qr.UpdatedAt,
	)

	if err != nil {
		// Check for unique constraint violation on slug
		if isUniqueViolation(err) {
			return ErrSlugExists
		}
		return fmt.Errorf("failed to create qr code: %w", err)
	}

	return nil
}

// GetQRCodeByID retrieves a QR code by its ID.
func (s *Store) GetQRCodeByID(ctx context.Context, id string) (*model.QRCode, error) {
	query := `
		SELECT id, slug, current_target_url, status, org_id, created_at, updated_at
		FROM qr_codes
		WHERE id = $1
	`

	qr, err := s.scanQRCode(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQRNotFound
		}
		return nil, fmt.Errorf("failed to get qr code by ID: %w", err)
	}

	return qr, nil
}

// GetQRCodeBySlug retrieves a QR code by its slug, regardless of status.
// The public redirect path does NOT use this; it goes through HandleRedirect
// so the lookup and the scan write stay one transactional unit.
func (s *Store) GetQRCodeBySlug(ctx context.Context, slug string) (*model.QRCode, error) {
	query := `
		SELECT id, slug, current_target_url, status, org_id, created_at, updated_at
		FROM qr_codes
		WHERE slug = $1
	`

	qr, err := s.scanQRCode(s.pool.QueryRow(ctx, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQRNotFound
		}
		return nil, fmt.Errorf("failed to get qr code by slug: %w", err)
	}

	return qr, nil
}

// ListQRCodes retrieves a paginated list of QR codes for one org.
func (s *Store) ListQRCodes(ctx context.Context, filter QRFilter, cursor string, limit int) ([]*model.QRCode, string, error) {
	// Decode cursor if provided
	var cursorData *PaginationCursor
	if cursor != "" {
		var err error
		cursorData, err = decodeCursor(cursor)
		if err != nil {
			return nil, "", ErrInvalidCursor
		}
	}

	query := `
		SELECT id, slug, current_target_url, status, org_id, created_at, updated_at
		FROM qr_codes
		WHERE org_id = $1
	`
	args := []any{filter.OrgID}
	argIndex := 2

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, filter.Status)
		argIndex++
	}

	if cursorData != nil {
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", argIndex, argIndex+1)
		args = append(args, cursorData.CreatedAt, cursorData.ID)
		argIndex += 2
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", argIndex)
	args = append(args, limit+1) // Fetch one extra to determine hasMore

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list qr codes: %w", err)
	}
	defer rows.Close()

	var codes []*model.QRCode
	for rows.Next() {
		qr, err := s.scanQRCode(rows)
		if err != nil {
			return nil, "", fmt.Errorf("failed to scan qr code: %w", err)
		}
		codes = append(codes, qr)
	}

	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("error iterating qr codes: %w", err)
	}

	var nextCursor string
	if len(codes) > limit {
		codes = codes[:limit] // Remove extra row
		last := codes[len(codes)-1]
		nextCursor = encodeCursor(&PaginationCursor{
			ID:        last.ID,
			CreatedAt: last.CreatedAt,
		})
	}

	return codes, nextCursor, nil
}

// UpdateQRCodeTarget updates the target URL of a QR code.
// The slug and org are immutable; status changes go through ArchiveQRCode.
func (s *Store) UpdateQRCodeTarget(ctx context.Context, id, targetURL string) error {
	query := `
		UPDATE qr_codes
		SET current_target_url = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'active'
	`

	result, err := s.pool.Exec(ctx, query, id, targetURL)
	if err != nil {
		return fmt.Errorf("failed to update qr code: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrQRNotFound
	}

	return nil
}

// ArchiveQRCode soft-deletes a QR code by flipping its status to archived.
// Archived codes stop resolving on the next request; scan history is kept.
func (s *Store) ArchiveQRCode(ctx context.Context, id string) error {
	query := `
		UPDATE qr_codes
		SET status = 'archived', updated_at = NOW()
		WHERE id = $1 AND status = 'active'
	`

	result, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to archive qr code: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrQRNotFound
	}

	return nil
}

// SlugExists checks if a slug is already taken (any status - slugs are never
// reused, even by archived codes).
func (s *Store) SlugExists(ctx context.Context, slug string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM qr_codes WHERE slug = $1)`

	var exists bool
	err := s.pool.QueryRow(ctx, query, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check slug existence: %w", err)
	}

	return exists, nil
}

// scanQRCode scans a single row into a QRCode model.
func (s *Store) scanQRCode(row pgx.Row) (*model.QRCode, error) {
	var qr model.QRCode
	err := row.Scan(
		&qr.ID,
		&qr.Slug,
		&qr.CurrentTargetURL,
		&qr.Status,
		&qr.OrgID,
		&qr.CreatedAt,
		&qr.UpdatedAt,
	)
	return &qr, err
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	// PostgreSQL error code 23505 is unique_violation
	return err != nil && (contains(err.Error(), "23505") || contains(err.Error(), "unique"))
}

// contains checks if a string contains a substring.
func contains(s, substr string) bool {
	return len(s) >= len(substr) && searchString(s, substr)
}

// searchString is a simple string search.
func searchString(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

// encodeCursor encodes pagination cursor to base64.
func encodeCursor(cursor *PaginationCursor) string {
	data, _ := json.Marshal(cursor)
	return base64.URLEncoding.EncodeToString(data)
}

// decodeCursor decodes base64 pagination cursor.
func decodeCursor(s string) (*PaginationCursor, error) {
	data, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}

	var cursor PaginationCursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, err
	}

	return &cursor, nil
}
