package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/atikur-web-dev/shopeasy/internal/domain"
	"github.com/atikur-web-dev/shopeasy/internal/event"
	"github.com/atikur-web-dev/shopeasy/internal/payment"
	"github.com/atikur-web-dev/shopeasy/internal/pricing"
	"github.com/atikur-web-dev/shopeasy/internal/repository"
	apperrors "github.com/atikur-web-dev/shopeasy/pkg/errors"
)

// OrderItemInput is a single line of a checkout submission. Price is the
// price the buyer saw; the recorded order snapshots it verbatim.
type OrderItemInput struct {
	ProductID string `json:"product_id" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Price     int64  `json:"price" validate:"gte=0"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
	ImageURL  string `json:"image_url"`
}

// CreateOrderInput holds the parameters for submitting an order.
type CreateOrderInput struct {
	Items           []OrderItemInput `json:"items" validate:"required,min=1,dive"`
	ShippingAddress domain.Address   `json:"shipping_address"`
	PaymentMethod   string           `json:"payment_method" validate:"required"`
}

// UpdateOrderStatusInput holds the parameters for an administrative status change.
type UpdateOrderStatusInput struct {
	Status string `json:"status" validate:"required"`
}

// OrderService implements the business logic for order operations.
type OrderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	cartRepo    repository.CartRepository
	provider    payment.Provider
	producer    *event.Producer
	rule        pricing.Rule
	logger      *slog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	cartRepo repository.CartRepository,
	provider payment.Provider,
	producer *event.Producer,
	rule pricing.Rule,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		cartRepo:    cartRepo,
		provider:    provider,
		producer:    producer,
		rule:        rule,
		logger:      logger,
	}
}

// CreateOrder validates the submission, reserves stock, and records the order
// as an immutable snapshot. Totals are computed server-side from the same
// pricing rule the storefront displays, so the recorded amounts always match
// what the buyer was shown. The user's cart is cleared on success.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, input CreateOrderInput) (*domain.Order, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if len(input.Items) == 0 {
		return nil, apperrors.InvalidInput("order must contain at least one item")
	}
	if err := validateAddress(input.ShippingAddress); err != nil {
		return nil, err
	}
	if input.PaymentMethod == "" {
		return nil, apperrors.InvalidInput("payment method is required")
	}

	orderID := uuid.New().String()
	items := make([]domain.OrderItem, 0, len(input.Items))
	var subtotal int64

	for _, in := range input.Items {
		if in.Quantity <= 0 {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid quantity for product %s", in.ProductID))
		}
		if in.Price < 0 {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid price for product %s", in.ProductID))
		}
		items = append(items, domain.OrderItem{
			ID:        uuid.New().String(),
			OrderID:   orderID,
			ProductID: in.ProductID,
			Name:      in.Name,
			Price:     in.Price,
			Quantity:  in.Quantity,
			ImageURL:  in.ImageURL,
		})
		subtotal += in.Price * int64(in.Quantity)
	}

	// Reserve stock before recording the order. A failure part-way leaves
	// earlier decrements in place; restocking is an operational concern, not
	// a checkout one.
	for _, item := range items {
		if err := s.productRepo.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			return nil, fmt.Errorf("reserve stock for product %s: %w", item.ProductID, err)
		}
	}

	totals := s.rule.Compute(subtotal)
	now := time.Now().UTC()

	order := &domain.Order{
		ID:              orderID,
		UserID:          userID,
		Status:          domain.OrderStatusPending,
		Items:           items,
		SubtotalAmount:  totals.Subtotal,
		ShippingAmount:  totals.Shipping,
		TaxAmount:       totals.Tax,
		TotalAmount:     totals.Total,
		ShippingAddress: input.ShippingAddress,
		PaymentMethod:   input.PaymentMethod,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := s.cartRepo.Delete(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "failed to clear cart after order creation",
			slog.String("user_id", userID),
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishOrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.created event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", order.ID),
		slog.String("user_id", userID),
		slog.Int64("total_amount", order.TotalAmount),
		slog.Int("item_count", len(order.Items)),
	)

	return order, nil
}

// PayOrder charges the order total through the payment provider and marks the
// order as paid. Paying an already paid order is a conflict.
func (s *OrderService) PayOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	order, err := s.getOwnedOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if order.IsPaid {
		return nil, apperrors.Conflict("order is already paid")
	}

	result, err := s.provider.Charge(ctx, &payment.ChargeInput{
		OrderID:     order.ID,
		Amount:      order.TotalAmount,
		Method:      order.PaymentMethod,
		Description: fmt.Sprintf("order %s", order.ID),
	})
	if err != nil {
		return nil, fmt.Errorf("charge order %s: %w", order.ID, err)
	}
	if result.Status != payment.StatusSucceeded {
		return nil, apperrors.Conflict(fmt.Sprintf("payment failed: %s", result.FailureReason))
	}

	now := time.Now().UTC()
	order.IsPaid = true
	order.PaidAt = &now
	if order.Status == domain.OrderStatusPending {
		order.Status = domain.OrderStatusConfirmed
	}
	order.UpdatedAt = now

	if err := s.orderRepo.UpdateStatus(ctx, order); err != nil {
		return nil, fmt.Errorf("mark order paid: %w", err)
	}

	if err := s.producer.PublishOrderStatusChanged(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.status_changed event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order paid",
		slog.String("order_id", order.ID),
		slog.String("provider", s.provider.Name()),
		slog.String("provider_payment_id", result.ProviderPaymentID),
	)

	return order, nil
}

// GetOrder retrieves an order. Customers can only read their own orders;
// admins can read any.
func (s *OrderService) GetOrder(ctx context.Context, userID, role, orderID string) (*domain.Order, error) {
	if orderID == "" {
		return nil, apperrors.InvalidInput("order id is required")
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.UserID != userID && role != domain.RoleAdmin {
		return nil, apperrors.Forbidden("you do not have access to this order")
	}
	return order, nil
}

// ListMyOrders returns a page of the user's own orders, newest first.
func (s *OrderService) ListMyOrders(ctx context.Context, userID string, limit, offset int) ([]*domain.Order, int, error) {
	if userID == "" {
		return nil, 0, apperrors.InvalidInput("user id is required")
	}
	orders, total, err := s.orderRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list user orders: %w", err)
	}
	return orders, total, nil
}

// ListOrders returns a page of all orders. Admin only.
func (s *OrderService) ListOrders(ctx context.Context, limit, offset int) ([]*domain.Order, int, error) {
	orders, total, err := s.orderRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}

// UpdateStatus advances an order's status. Admin only. Only the transitions
// allowed by the status machine are accepted; line items and amounts are
// never touched.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, input UpdateOrderStatusInput) (*domain.Order, error) {
	if orderID == "" {
		return nil, apperrors.InvalidInput("order id is required")
	}
	if !domain.IsValidStatus(input.Status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid status: %s", input.Status))
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order for status update: %w", err)
	}
	if !order.CanTransitionTo(input.Status) {
		return nil, apperrors.Conflict(fmt.Sprintf("cannot transition order from %s to %s", order.Status, input.Status))
	}

	now := time.Now().UTC()
	order.Status = input.Status
	if input.Status == domain.OrderStatusDelivered {
		order.IsDelivered = true
		order.DeliveredAt = &now
	}
	order.UpdatedAt = now

	if err := s.orderRepo.UpdateStatus(ctx, order); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	if err := s.producer.PublishOrderStatusChanged(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.status_changed event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order status updated",
		slog.String("order_id", order.ID),
		slog.String("status", order.Status),
	)

	return order, nil
}

// DeleteOrder hard-deletes an order. Admin only.
func (s *OrderService) DeleteOrder(ctx context.Context, orderID string) error {
	if orderID == "" {
		return apperrors.InvalidInput("order id is required")
	}
	if err := s.orderRepo.Delete(ctx, orderID); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	s.logger.InfoContext(ctx, "order deleted",
		slog.String("order_id", orderID),
	)
	return nil
}

func (s *OrderService) getOwnedOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if orderID == "" {
		return nil, apperrors.InvalidInput("order id is required")
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.UserID != userID {
		return nil, apperrors.Forbidden("you do not have access to this order")
	}
	return order, nil
}

func validateAddress(addr domain.Address) error {
	switch {
	case addr.Street == "":
		return apperrors.InvalidInput("shipping address street is required")
	case addr.City == "":
		return apperrors.InvalidInput("shipping address city is required")
	case addr.State == "":
		return apperrors.InvalidInput("shipping address state is required")
	case addr.Zip == "":
		return apperrors.InvalidInput("shipping address zip is required")
	}
	return nil
}
