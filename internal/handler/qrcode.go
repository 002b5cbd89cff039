package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dynamicqr/dynamicqr/internal/auth"
	"github.com/dynamicqr/dynamicqr/internal/handler/dto"
	"github.com/dynamicqr/dynamicqr/internal/model"
	"github.com/dynamicqr/dynamicqr/internal/service"
	"github.com/dynamicqr/dynamicqr/internal/store"
)

// QRHandler handles the authenticated QR management API. Every route assumes
// the auth middleware already placed an AuthContext on the request context.
type QRHandler struct {
	svc     *service.QRCodeService
	baseURL string
	logger  *slog.Logger
}

// NewQRHandler creates a new QRHandler. baseURL is the public origin used
// to build scan URLs in responses.
func NewQRHandler(svc *service.QRCodeService, baseURL string, logger *slog.Logger) *QRHandler {
	return &QRHandler{
		svc:     svc,
		baseURL: baseURL,
		logger:  logger,
	}
}

// Create handles POST /api/v1/qrcodes.
func (h *QRHandler) Create(w http.ResponseWriter, r *http.Request) {
	orgID := auth.OrgIDFromContext(r.Context())
	if orgID == "" {
		h.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing authentication")
		return
	}

	var req dto.CreateQRCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	qr, err := h.svc.CreateQRCode(r.Context(), orgID, req.TargetURL, req.Slug)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ToQRCodeResponse(qr, h.baseURL))
}

// Get handles GET /api/v1/qrcodes/{id}.
func (h *QRHandler) Get(w http.ResponseWriter, r *http.Request) {
	orgID := auth.OrgIDFromContext(r.Context())
	if orgID == "" {
		h.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing authentication")
		return
	}

	id := chi.URLParam(r, "id")
	qr, err := h.svc.GetQRCode(r.Context(), orgID, id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToQRCodeResponse(qr, h.baseURL))
}

// List handles GET /api/v1/qrcodes.
func (h *QRHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID := auth.OrgIDFromContext(r.Context())
	if orgID == "" {
		h.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing authentication")
		return
	}

	query := r.URL.Query()
	status := model.QRStatus(query.Get("status"))

	codes, nextCursor, err := h.svc.ListQRCodes(r.Context(), orgID, status, query.Get("cursor"), parseLimit(query.Get("limit")))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToQRCodeListResponse(codes, h.baseURL, nextCursor))
}

// UpdateTarget handles PATCH /api/v1/qrcodes/{id}.
func (h *QRHandler) UpdateTarget(w http.ResponseWriter, r *http.Request) {
	orgID := auth.OrgIDFromContext(r.Context())
	if orgID == "" {
		h.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing authentication")
		return
	}

	id := chi.URLParam(r, "id")

	var req dto.UpdateQRCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	qr, err := h.svc.UpdateTarget(r.Context(), orgID, id, req.TargetURL)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToQRCodeResponse(qr, h.baseURL))
}

// Archive handles DELETE /api/v1/qrcodes/{id}.
func (h *QRHandler) Archive(w http.ResponseWriter, r *http.Request) {
	orgID := auth.OrgIDFromContext(r.Context())
	if orgID == "" {
		h.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing authentication")
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.svc.Archive(r.Context(), orgID, id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListScans handles GET /api/v1/qrcodes/{id}/scans.
func (h *QRHandler) ListScans(w http.ResponseWriter, r *http.Request) {
	orgID := auth.OrgIDFromContext(r.Context())
	if orgID == "" {
		h.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing authentication")
		return
	}

	id := chi.URLParam(r, "id")
	query := r.URL.Query()

	events, nextCursor, err := h.svc.ListScans(r.Context(), orgID, id, query.Get("cursor"), parseLimit(query.Get("limit")))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToScanListResponse(events, nextCursor))
}

// handleServiceError maps service errors to HTTP responses.
func (h *QRHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrQRNotFound):
		h.writeError(w, http.StatusNotFound, "QR_NOT_FOUND", "QR code not found")
	case errors.Is(err, store.ErrSlugExists):
		h.writeError(w, http.StatusConflict, "SLUG_TAKEN", "Slug already exists")
	case errors.Is(err, store.ErrInvalidCursor):
		h.writeError(w, http.StatusBadRequest, "INVALID_CURSOR", "Invalid pagination cursor")
	case errors.Is(err, service.ErrInvalidSlug):
		h.writeError(w, http.StatusBadRequest, "INVALID_SLUG", "Invalid slug format")
	case errors.Is(err, service.ErrInvalidTargetURL):
		h.writeError(w, http.StatusBadRequest, "INVALID_TARGET_URL", "Invalid target URL")
	case errors.Is(err, service.ErrSlugGeneration):
		h.writeError(w, http.StatusServiceUnavailable, "SLUG_GENERATION_FAILED", "Could not allocate a slug, try again")
	default:
		h.logger.Error("internal_error", slog.Any("error", err))
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// writeError writes an error response.
func (h *QRHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// parseLimit parses a limit query parameter; invalid values fall back to
// the service default.
func parseLimit(raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
