package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atikur-web-dev/shopeasy/internal/domain"
	"github.com/atikur-web-dev/shopeasy/internal/repository"
	apperrors "github.com/atikur-web-dev/shopeasy/pkg/errors"
	"github.com/atikur-web-dev/shopeasy/pkg/httputil"
	"github.com/atikur-web-dev/shopeasy/pkg/middleware"
	"github.com/atikur-web-dev/shopeasy/pkg/pagination"
)

// WishlistHandler handles the authenticated server-side wishlist endpoints.
// The wishlist is a plain per-user product list, so the handler talks to the
// repository directly.
type WishlistHandler struct {
	repo   repository.WishlistRepository
	logger *slog.Logger
}

// NewWishlistHandler creates a new wishlist HTTP handler.
func NewWishlistHandler(repo repository.WishlistRepository, logger *slog.Logger) *WishlistHandler {
	return &WishlistHandler{repo: repo, logger: logger}
}

// WishlistExistsResponse indicates whether a product is in the wishlist.
type WishlistExistsResponse struct {
	Exists bool `json:"exists"`
}

// List handles GET /api/v1/users/wishlist
func (h *WishlistHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		httputil.WriteError(w, r, apperrors.Unauthorized("user not authenticated"), h.logger)
		return
	}

	p := pagination.FromRequest(r)

	items, total, err := h.repo.List(r.Context(), userID, p.PerPage, p.Offset)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.OK(w, httputil.NewPaginatedResponse(items, total, p.Page, p.PerPage))
}

// Add handles POST /api/v1/users/wishlist/{productID}
func (h *WishlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		httputil.WriteError(w, r, apperrors.Unauthorized("user not authenticated"), h.logger)
		return
	}

	productID := chi.URLParam(r, "productID")
	if productID == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("product id is required"), h.logger)
		return
	}

	if err := h.repo.Add(r.Context(), userID, productID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.Created(w, domain.WishlistItem{UserID: userID, ProductID: productID})
}

// Exists handles GET /api/v1/users/wishlist/{productID}
func (h *WishlistHandler) Exists(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		httputil.WriteError(w, r, apperrors.Unauthorized("user not authenticated"), h.logger)
		return
	}

	productID := chi.URLParam(r, "productID")
	if productID == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("product id is required"), h.logger)
		return
	}

	exists, err := h.repo.Exists(r.Context(), userID, productID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.OK(w, WishlistExistsResponse{Exists: exists})
}

// Remove handles DELETE /api/v1/users/wishlist/{productID}
func (h *WishlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		httputil.WriteError(w, r, apperrors.Unauthorized("user not authenticated"), h.logger)
		return
	}

	productID := chi.URLParam(r, "productID")
	if productID == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("product id is required"), h.logger)
		return
	}

	if err := h.repo.Remove(r.Context(), userID, productID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.OK(w, map[string]string{"product_id": productID, "status": "removed"})
}
