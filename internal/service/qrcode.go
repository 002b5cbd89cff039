package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dynamicqr/dynamicqr/internal/metrics"
	"github.com/dynamicqr/dynamicqr/internal/model"
	"github.com/dynamicqr/dynamicqr/internal/store"
)

const (
	slugAlphabet   = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	slugLength     = 7
	maxSlugRetries = 3

	// DefaultPageSize is used when a list request does not specify a limit.
	DefaultPageSize = 25
	// MaxPageSize caps any client-requested page.
	MaxPageSize = 100
)

var ErrSlugGeneration = errors.New("could not generate a unique slug")

// QRStore is the persistence surface QRCodeService needs.
type QRStore interface {
	CreateQRCode(ctx context.Context, qr *model.QRCode) error
	GetQRCodeByID(ctx context.Context, id string) (*model.QRCode, error)
	ListQRCodes(ctx context.Context, filter store.QRFilter, cursor string, limit int) ([]*model.QRCode, string, error)
	UpdateQRCodeTarget(ctx context.Context, id, targetURL string) error
	ArchiveQRCode(ctx context.Context, id string) error
	SlugExists(ctx context.Context, slug string) (bool, error)
	ListScanEvents(ctx context.Context, qrID, cursor string, limit int) ([]*model.ScanEvent, string, error)
}

// QRCodeService manages QR codes for authenticated orgs. Every operation is
// scoped to the caller's org; a QR belonging to another org behaves exactly
// like one that does not exist.
type QRCodeService struct {
	store   QRStore
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewQRCodeService creates a QRCodeService.
func NewQRCodeService(st QRStore, logger *slog.Logger, rec metrics.Recorder) *QRCodeService {
	if rec == nil {
		rec = metrics.NewNoop()
	}
	return &QRCodeService{store: st, logger: logger, metrics: rec}
}

// CreateQRCode registers a new QR code. An empty customSlug means a random
// slug is generated; a non-empty one must pass the custom slug rules and be
// free. New codes are always active.
func (s *QRCodeService) CreateQRCode(ctx context.Context, orgID, targetURL, customSlug string) (*model.QRCode, error) {
	if err := ValidateTargetURL(targetURL); err != nil {
		return nil, err
	}

	var slug string
	if customSlug != "" {
		if err := ValidateCustomSlug(customSlug); err != nil {
			return nil, err
		}
		slug = customSlug
	} else {
		var err error
		slug, err = s.generateUniqueSlug(ctx)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	qr := &model.QRCode{
		ID:               ulid.Make().String(),
		Slug:             slug,
		CurrentTargetURL: targetURL,
		Status:           model.QRStatusActive,
		OrgID:            orgID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.store.CreateQRCode(ctx, qr); err != nil {
		if errors.Is(err, store.ErrSlugExists) {
			return nil, store.ErrSlugExists
		}
		return nil, fmt.Errorf("create qr code: %w", err)
	}

	s.metrics.IncQRCreated()
	s.logger.Info("qr_created",
		slog.String("qr_id", qr.ID),
		slog.String("slug", qr.Slug),
		slog.String("org_id", orgID),
	)
	return qr, nil
}

// GetQRCode fetches one QR code by ID, enforcing org ownership.
func (s *QRCodeService) GetQRCode(ctx context.Context, orgID, id string) (*model.QRCode, error) {
	qr, err := s.store.GetQRCodeByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if qr.OrgID != orgID {
		return nil, store.ErrQRNotFound
	}
	return qr, nil
}

// ListQRCodes returns one page of the org's QR codes, newest first.
func (s *QRCodeService) ListQRCodes(ctx context.Context, orgID string, status model.QRStatus, cursor string, limit int) ([]*model.QRCode, string, error) {
	if status != "" && !status.IsValid() {
		return nil, "", fmt.Errorf("invalid status filter: %q", status)
	}
	limit = clampLimit(limit)

	return s.store.ListQRCodes(ctx, store.QRFilter{OrgID: orgID, Status: status}, cursor, limit)
}

// UpdateTarget points an active QR code at a new destination. The next scan
// resolves to the new URL; nothing is cached in between.
func (s *QRCodeService) UpdateTarget(ctx context.Context, orgID, id, targetURL string) (*model.QRCode, error) {
	if err := ValidateTargetURL(targetURL); err != nil {
		return nil, err
	}

	qr, err := s.GetQRCode(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if !qr.IsActive() {
		return nil, store.ErrQRNotFound
	}

	if err := s.store.UpdateQRCodeTarget(ctx, id, targetURL); err != nil {
		return nil, err
	}

	s.metrics.IncQRUpdated()
	s.logger.Info("qr_target_updated",
		slog.String("qr_id", id),
		slog.String("org_id", orgID),
	)

	qr.CurrentTargetURL = targetURL
	qr.UpdatedAt = time.Now().UTC()
	return qr, nil
}

// Archive retires a QR code. The slug stays reserved forever and scan
// history is preserved; the code simply stops resolving.
func (s *QRCodeService) Archive(ctx context.Context, orgID, id string) error {
	if _, err := s.GetQRCode(ctx, orgID, id); err != nil {
		return err
	}

	if err := s.store.ArchiveQRCode(ctx, id); err != nil {
		return err
	}

	s.metrics.IncQRArchived()
	s.logger.Info("qr_archived",
		slog.String("qr_id", id),
		slog.String("org_id", orgID),
	)
	return nil
}

// ListScans returns one page of raw scan events for an org-owned QR code,
// newest first. Events are immutable; this is a read-only view.
func (s *QRCodeService) ListScans(ctx context.Context, orgID, qrID, cursor string, limit int) ([]*model.ScanEvent, string, error) {
	if _, err := s.GetQRCode(ctx, orgID, qrID); err != nil {
		return nil, "", err
	}
	limit = clampLimit(limit)

	return s.store.ListScanEvents(ctx, qrID, cursor, limit)
}

// generateUniqueSlug draws random slugs until one is free, bounded by
// maxSlugRetries. With a 62^7 space collisions are rare; hitting the bound
// repeatedly means something is wrong upstream.
func (s *QRCodeService) generateUniqueSlug(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxSlugRetries; attempt++ {
		slug, err := randomSlug()
		if err != nil {
			return "", fmt.Errorf("generate slug: %w", err)
		}

		exists, err := s.store.SlugExists(ctx, slug)
		if err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if !exists {
			return slug, nil
		}

		s.logger.Warn("slug_collision",
			slog.String("slug", slug),
			slog.Int("attempt", attempt+1),
		)
	}
	return "", ErrSlugGeneration
}

// randomSlug builds a slug from crypto/rand so slugs are not guessable.
func randomSlug() (string, error) {
	max := big.NewInt(int64(len(slugAlphabet)))
	b := make([]byte, slugLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = slugAlphabet[n.Int64()]
	}
	return string(b), nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}
