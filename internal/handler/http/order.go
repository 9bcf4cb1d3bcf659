package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atikur-web-dev/shopeasy/internal/domain"
	"github.com/atikur-web-dev/shopeasy/internal/service"
	apperrors "github.com/atikur-web-dev/shopeasy/pkg/errors"
	"github.com/atikur-web-dev/shopeasy/pkg/httputil"
	"github.com/atikur-web-dev/shopeasy/pkg/middleware"
	"github.com/atikur-web-dev/shopeasy/pkg/pagination"
	"github.com/atikur-web-dev/shopeasy/pkg/validator"
)

// OrderHandler handles checkout and order management endpoints.
type OrderHandler struct {
	service *service.OrderService
	logger  *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(svc *service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{service: svc, logger: logger}
}

// OrderItemRequest is a single order line in a checkout submission.
type OrderItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Name      string `json:"name" validate:"required,min=1,max=200"`
	Price     int64  `json:"price" validate:"gte=0"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
	ImageURL  string `json:"image_url" validate:"omitempty,url"`
}

// AddressRequest is the shipping address of a checkout submission.
type AddressRequest struct {
	Street string `json:"street" validate:"required,min=1,max=500"`
	City   string `json:"city" validate:"required,min=1,max=100"`
	State  string `json:"state" validate:"required,min=1,max=100"`
	Zip    string `json:"zip" validate:"required,min=1,max=20"`
	Phone  string `json:"phone" validate:"required,max=20"`
}

// CreateOrderRequest is the JSON request body for submitting an order.
type CreateOrderRequest struct {
	Items           []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingAddress AddressRequest     `json:"shipping_address"`
	PaymentMethod   string             `json:"payment_method" validate:"required,max=50"`
}

// UpdateOrderStatusRequest is the JSON request body for a status change.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// Create handles POST /api/v1/orders
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		httputil.WriteError(w, r, apperrors.Unauthorized("user not authenticated"), h.logger)
		return
	}

	var req CreateOrderRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	items := make([]service.OrderItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, service.OrderItemInput{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
			ImageURL:  it.ImageURL,
		})
	}

	order, err := h.service.CreateOrder(r.Context(), userID, service.CreateOrderInput{
		Items: items,
		ShippingAddress: domain.Address{
			Street: req.ShippingAddress.Street,
			City:   req.ShippingAddress.City,
			State:  req.ShippingAddress.State,
			Zip:    req.ShippingAddress.Zip,
			Phone:  req.ShippingAddress.Phone,
		},
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.Created(w, order)
}

// ListMine handles GET /api/v1/orders
func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		httputil.WriteError(w, r, apperrors.Unauthorized("user not authenticated"), h.logger)
		return
	}

	p := pagination.FromRequest(r)
	orders, total, err := h.service.ListMyOrders(r.Context(), userID, p.PerPage, p.Offset)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.OK(w, httputil.NewPaginatedResponse(orders, total, p.Page, p.PerPage))
}

// Get handles GET /api/v1/orders/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		httputil.WriteError(w, r, apperrors.Unauthorized("user not authenticated"), h.logger)
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("order id is required"), h.logger)
		return
	}

	role := middleware.RoleFromContext(r.Context())
	order, err := h.service.GetOrder(r.Context(), userID, role, id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.OK(w, order)
}

// Pay handles POST /api/v1/orders/{id}/pay
func (h *OrderHandler) Pay(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		httputil.WriteError(w, r, apperrors.Unauthorized("user not authenticated"), h.logger)
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("order id is required"), h.logger)
		return
	}

	order, err := h.service.PayOrder(r.Context(), userID, id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.OK(w, order)
}

// ListAll handles GET /api/v1/admin/orders
func (h *OrderHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	p := pagination.FromRequest(r)

	orders, total, err := h.service.ListOrders(r.Context(), p.PerPage, p.Offset)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.OK(w, httputil.NewPaginatedResponse(orders, total, p.Page, p.PerPage))
}

// UpdateStatus handles PUT /api/v1/admin/orders/{id}/status
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("order id is required"), h.logger)
		return
	}

	var req UpdateOrderStatusRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), id, service.UpdateOrderStatusInput{
		Status: req.Status,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.OK(w, order)
}

// Delete handles DELETE /api/v1/admin/orders/{id}
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("order id is required"), h.logger)
		return
	}

	if err := h.service.DeleteOrder(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.OK(w, map[string]string{"id": id, "status": "deleted"})
}
