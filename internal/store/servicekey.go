package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/dynamicqr/dynamicqr/internal/model"
)

// ErrServiceKeyNotFound indicates the service key does not exist.
var ErrServiceKeyNotFound = errors.New("service key not found")

// CreateServiceKey inserts a new service key.
func (s *Store) CreateServiceKey(ctx context.Context, key *model.ServiceKey) error {
	query := `
		INSERT INTO service_keys (id, org_id, key_hash, key_prefix, scopes, name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.pool.Exec(ctx, query,
		key.ID,
		key.OrgID,
		key.KeyHash,
		key.KeyPrefix,
		pq.Array(key.Scopes),
		key.Name,
		key.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create service key: %w", err)
	}

	return nil
}

// GetServiceKeysByPrefix retrieves non-revoked service keys matching a
// prefix. Prefixes are short and random but not guaranteed unique, so the
// caller verifies each candidate's hash.
func (s *Store) GetServiceKeysByPrefix(ctx context.Context, prefix string) ([]*model.ServiceKey, error) {
	query := `
		SELECT id, org_id, key_hash, key_prefix, scopes, name, revoked_at, created_at
		FROM service_keys
		WHERE key_prefix = $1 AND revoked_at IS NULL
	`

	rows, err := s.pool.Query(ctx, query, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to query service keys: %w", err)
	}
	defer rows.Close()

	var keys []*model.ServiceKey
	for rows.Next() {
		key, err := scanServiceKey(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service key: %w", err)
		}
		keys = append(keys, key)
	}

	return keys, rows.Err()
}

// RevokeServiceKey marks a service key as revoked.
func (s *Store) RevokeServiceKey(ctx context.Context, id string) error {
	query := `
		UPDATE service_keys
		SET revoked_at = NOW()
		WHERE id = $1 AND revoked_at IS NULL
	`

	result, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to revoke service key: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrServiceKeyNotFound
	}

	return nil
}

// scanServiceKey scans a row into a ServiceKey model.
func scanServiceKey(rows pgx.Rows) (*model.ServiceKey, error) {
	var key model.ServiceKey
	var scopes []string

	err := rows.Scan(
		&key.ID,
		&key.OrgID,
		&key.KeyHash,
		&key.KeyPrefix,
		pq.Array(&scopes),
		&key.Name,
		&key.RevokedAt,
		&key.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	key.Scopes = scopes
	return &key, nil
}
