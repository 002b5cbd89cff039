package store

import (
	"context"
	"fmt"

	"github.com/dynamicqr/dynamicqr/internal/model"
)

// ListScanEvents retrieves recent scan events for a QR code, newest first,
// using keyset pagination on (ts, id). Rows are returned raw; any aggregation
// is the dashboard's concern. Scan events are only ever written by the
// handle_redirect procedure, never by this service.
func (s *Store) ListScanEvents(ctx context.Context, qrID string, cursor string, limit int) ([]*model.ScanEvent, string, error) {
	var cursorData *PaginationCursor
	if cursor != "" {
		var err error
		cursorData, err = decodeCursor(cursor)
		if err != nil {
			return nil, "", ErrInvalidCursor
		}
	}

	query := `
		SELECT id, qr_id, ts, ip_hash,
		       COALESCE(user_agent, ''), COALESCE(referrer, ''),
		       COALESCE(country, ''), COALESCE(city, '')
		FROM scan_events
		WHERE qr_id = $1
	`
	args := []any{qrID}
	argIndex := 2

	if cursorData != nil {
		query += fmt.Sprintf(" AND (ts, id) < ($%d, $%d)", argIndex, argIndex+1)
		args = append(args, cursorData.CreatedAt, cursorData.ID)
		argIndex += 2
	}

	query += fmt.Sprintf(" ORDER BY ts DESC, id DESC LIMIT $%d", argIndex)
	args = append(args, limit+1)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list scan events: %w", err)
	}
	defer rows.Close()

	var events []*model.ScanEvent
	for rows.Next() {
		var ev model.ScanEvent
		if err := rows.Scan(
			&ev.ID,
			&ev.QRID,
			&ev.TS,
			&ev.IPHash,
			&ev.UserAgent,
			&ev.Referrer,
			&ev.Country,
			&ev.City,
		); err != nil {
			return nil, "", fmt.Errorf("failed to scan event row: %w", err)
		}
		events = append(events, &ev)
	}

	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("error iterating scan events: %w", err)
	}

	var nextCursor string
	if len(events) > limit {
		events = events[:limit]
		last := events[len(events)-1]
		nextCursor = encodeCursor(&PaginationCursor{
			ID:        last.ID,
			CreatedAt: last.TS,
		})
	}

	return events, nextCursor, nil
}
