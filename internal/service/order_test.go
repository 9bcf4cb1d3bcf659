package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/atikur-web-dev/shopeasy/internal/domain"
	"github.com/atikur-web-dev/shopeasy/internal/payment"
	paymentmock "github.com/atikur-web-dev/shopeasy/internal/payment/mock"
	"github.com/atikur-web-dev/shopeasy/internal/pricing"
	apperrors "github.com/atikur-web-dev/shopeasy/pkg/errors"
)

// --- Mock Repositories ---

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Order, int, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*domain.Order), args.Int(1), args.Error(2)
}

func (m *mockOrderRepository) List(ctx context.Context, limit, offset int) ([]*domain.Order, int, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*domain.Order), args.Int(1), args.Error(2)
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) Create(ctx context.Context, p *domain.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) List(ctx context.Context, category string, limit, offset int) ([]*domain.Product, int, error) {
	args := m.Called(ctx, category, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*domain.Product), args.Int(1), args.Error(2)
}

func (m *mockProductRepository) Update(ctx context.Context, p *domain.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockProductRepository) DecrementStock(ctx context.Context, id string, quantity int) error {
	args := m.Called(ctx, id, quantity)
	return args.Error(0)
}

func (m *mockProductRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Test Helpers ---

func newTestOrderService(orderRepo *mockOrderRepository, productRepo *mockProductRepository, cartRepo *mockCartRepository) *OrderService {
	return NewOrderService(
		orderRepo,
		productRepo,
		cartRepo,
		paymentmock.NewProvider(),
		newTestEventProducer(),
		pricing.DefaultRule(),
		newTestLogger(),
	)
}

func validOrderInput() CreateOrderInput {
	return CreateOrderInput{
		Items: []OrderItemInput{
			{ProductID: "prod-1", Name: "Test Product", Price: 1999, Quantity: 2},
			{ProductID: "prod-2", Name: "Another Product", Price: 4999, Quantity: 1},
		},
		ShippingAddress: domain.Address{
			Street: "1 Main St",
			City:   "Springfield",
			State:  "IL",
			Zip:    "62701",
			Phone:  "555-0100",
		},
		PaymentMethod: "card",
	}
}

// --- Tests ---

func TestCreateOrder_Success(t *testing.T) {
	orderRepo := new(mockOrderRepository)
	productRepo := new(mockProductRepository)
	cartRepo := new(mockCartRepository)
	svc := newTestOrderService(orderRepo, productRepo, cartRepo)
	ctx := context.Background()

	productRepo.On("DecrementStock", ctx, "prod-1", 2).Return(nil)
	productRepo.On("DecrementStock", ctx, "prod-2", 1).Return(nil)
	orderRepo.On("Create", ctx, mock.AnythingOfType("*domain.Order")).Return(nil)
	cartRepo.On("Delete", ctx, "user-1").Return(nil)

	order, err := svc.CreateOrder(ctx, "user-1", validOrderInput())

	require.NoError(t, err)
	assert.Equal(t, "user-1", order.UserID)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	require.Len(t, order.Items, 2)

	// Subtotal: 2*1999 + 1*4999 = 8997. Below the 10000 threshold, so the
	// flat shipping fee applies. Tax is 15% of the subtotal, truncated.
	assert.Equal(t, int64(8997), order.SubtotalAmount)
	assert.Equal(t, int64(1000), order.ShippingAmount)
	assert.Equal(t, int64(1349), order.TaxAmount)
	assert.Equal(t, int64(8997+1000+1349), order.TotalAmount)

	orderRepo.AssertExpectations(t)
	productRepo.AssertExpectations(t)
	cartRepo.AssertExpectations(t)
}

func TestCreateOrder_FreeShippingAboveThreshold(t *testing.T) {
	orderRepo := new(mockOrderRepository)
	productRepo := new(mockProductRepository)
	cartRepo := new(mockCartRepository)
	svc := newTestOrderService(orderRepo, productRepo, cartRepo)
	ctx := context.Background()

	input := validOrderInput()
	input.Items = []OrderItemInput{
		{ProductID: "prod-1", Name: "Expensive Product", Price: 15000, Quantity: 1},
	}

	productRepo.On("DecrementStock", ctx, "prod-1", 1).Return(nil)
	orderRepo.On("Create", ctx, mock.AnythingOfType("*domain.Order")).Return(nil)
	cartRepo.On("Delete", ctx, "user-1").Return(nil)

	order, err := svc.CreateOrder(ctx, "user-1", input)

	require.NoError(t, err)
	assert.Equal(t, int64(0), order.ShippingAmount)
	assert.Equal(t, int64(15000+2250), order.TotalAmount)
}

func TestCreateOrder_OutOfStock(t *testing.T) {
	orderRepo := new(mockOrderRepository)
	productRepo := new(mockProductRepository)
	cartRepo := new(mockCartRepository)
	svc := newTestOrderService(orderRepo, productRepo, cartRepo)
	ctx := context.Background()

	productRepo.On("DecrementStock", ctx, "prod-1", 2).Return(apperrors.OutOfStock("prod-1"))

	_, err := svc.CreateOrder(ctx, "user-1", validOrderInput())

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrOutOfStock)
	orderRepo.AssertNotCalled(t, "Create")
	cartRepo.AssertNotCalled(t, "Delete")
}

func TestCreateOrder_MissingAddress(t *testing.T) {
	orderRepo := new(mockOrderRepository)
	productRepo := new(mockProductRepository)
	cartRepo := new(mockCartRepository)
	svc := newTestOrderService(orderRepo, productRepo, cartRepo)
	ctx := context.Background()

	input := validOrderInput()
	input.ShippingAddress.City = ""

	_, err := svc.CreateOrder(ctx, "user-1", input)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	productRepo.AssertNotCalled(t, "DecrementStock")
}

func TestCreateOrder_EmptyItems(t *testing.T) {
	orderRepo := new(mockOrderRepository)
	productRepo := new(mockProductRepository)
	cartRepo := new(mockCartRepository)
	svc := newTestOrderService(orderRepo, productRepo, cartRepo)
	ctx := context.Background()

	input := validOrderInput()
	input.Items = nil

	_, err := svc.CreateOrder(ctx, "user-1", input)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCreateOrder_CartClearFailureIsNotFatal(t *testing.T) {
	orderRepo := new(mockOrderRepository)
	productRepo := new(mockProductRepository)
	cartRepo := new(mockCartRepository)
	svc := newTestOrderService(orderRepo, productRepo, cartRepo)
	ctx := context.Background()

	productRepo.On("DecrementStock", ctx, "prod-1", 2).Return(nil)
	productRepo.On("DecrementStock", ctx, "prod-2", 1).Return(nil)
	orderRepo.On("Create", ctx, mock.AnythingOfType("*domain.Order")).Return(nil)
	cartRepo.On("Delete", ctx, "user-1").Return(fmt.Errorf("redis down"))

	order, err := svc.CreateOrder(ctx, "user-1", validOrderInput())

	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
}

func TestPayOrder_Success(t *testing.T) {
	orderRepo := new(mockOrderRepository)
	productRepo := new(mockProductRepository)
	cartRepo := new(mockCartRepository)
	svc := newTestOrderService(orderRepo, productRepo, cartRepo)
	ctx := context.Background()

	existing := &domain.Order{
		ID:            "order-1",
		UserID:        "user-1",
		Status:        domain.OrderStatusPending,
		TotalAmount:   11346,
		PaymentMethod: "card",
	}
	orderRepo.On("GetByID", ctx, "order-1").Return(existing, nil)
	orderRepo.On("UpdateStatus", ctx, mock.AnythingOfType("*domain.Order")).Return(nil)

	order, err := svc.PayOrder(ctx, "user-1", "order-1")

	require.NoError(t, err)
	assert.True(t, order.IsPaid)
	require.NotNil(t, order.PaidAt)
	assert.Equal(t, domain.OrderStatusConfirmed, order.Status)

	orderRepo.AssertExpectations(t)
}

func TestPayOrder_AlreadyPaid(t *testing.T) {
	orderRepo := new(mockOrderRepository)
	productRepo := new(mockProductRepository)
	cartRepo := new(mockCartRepository)
	svc := newTestOrderService(orderRepo, productRepo, cartRepo)
	ctx := context.Background()

	existing := &domain.Order{
		ID:     "order-1",
		UserID: "user-1",
		Status: domain.OrderStatusConfirmed,
		IsPaid: true,
	}
	orderRepo.On("GetByID", ctx, "order-1").Return(existing, nil)

	_, err := svc.PayOrder(ctx, "user-1", "order-1")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	orderRepo.AssertNotCalled(t, "UpdateStatus")
}

func TestPayOrder_NotOwner(t *testing.T) {
	orderRepo := new(mockOrderRepository)
	productRepo := new(mockProductRepository)
	cartRepo := new(mockCartRepository)
	svc := newTestOrderService(orderRepo, productRepo, cartRepo)
	ctx := context.Background()

	existing := &domain.Order{ID: "order-1", UserID: "user-2"}
	orderRepo.On("GetByID", ctx, "order-1").Return(existing, nil)

	_, err := svc.PayOrder(ctx, "user-1", "order-1")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestGetOrder_AdminCanReadAny(t *testing.T) {
	orderRepo := new(mockOrderRepository)
	productRepo := new(mockProductRepository)
	cartRepo := new(mockCartRepository)
	svc := newTestOrderService(orderRepo, productRepo, cartRepo)
	ctx := context.Background()

	existing := &domain.Order{ID: "order-1", UserID: "user-2"}
	orderRepo.On("GetByID", ctx, "order-1").Return(existing, nil)

	order, err := svc.GetOrder(ctx, "admin-1", domain.RoleAdmin, "order-1")

	require.NoError(t, err)
	assert.Equal(t, "order-1", order.ID)
}

func TestGetOrder_ForbiddenForOtherCustomer(t *testing.T) {
	orderRepo := new(mockOrderRepository)
	productRepo := new(mockProductRepository)
	cartRepo := new(mockCartRepository)
	svc := newTestOrderService(orderRepo, productRepo, cartRepo)
	ctx := context.Background()

	existing := &domain.Order{ID: "order-1", UserID: "user-2"}
	orderRepo.On("GetByID", ctx, "order-1").Return(existing, nil)

	_, err := svc.GetOrder(ctx, "user-1", domain.RoleCustomer, "order-1")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestUpdateStatus_ValidTransition(t *testing.T) {
	orderRepo := new(mockOrderRepository)
	productRepo := new(mockProductRepository)
	cartRepo := new(mockCartRepository)
	svc := newTestOrderService(orderRepo, productRepo, cartRepo)
	ctx := context.Background()

	existing := &domain.Order{ID: "order-1", UserID: "user-1", Status: domain.OrderStatusShipped}
	orderRepo.On("GetByID", ctx, "order-1").Return(existing, nil)
	orderRepo.On("UpdateStatus", ctx, mock.AnythingOfType("*domain.Order")).Return(nil)

	order, err := svc.UpdateStatus(ctx, "order-1", UpdateOrderStatusInput{Status: domain.OrderStatusDelivered})

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, order.Status)
	assert.True(t, order.IsDelivered)
	require.NotNil(t, order.DeliveredAt)
}

func TestUpdateStatus_InvalidTransition(t *testing.T) {
	orderRepo := new(mockOrderRepository)
	productRepo := new(mockProductRepository)
	cartRepo := new(mockCartRepository)
	svc := newTestOrderService(orderRepo, productRepo, cartRepo)
	ctx := context.Background()

	existing := &domain.Order{ID: "order-1", UserID: "user-1", Status: domain.OrderStatusDelivered}
	orderRepo.On("GetByID", ctx, "order-1").Return(existing, nil)

	_, err := svc.UpdateStatus(ctx, "order-1", UpdateOrderStatusInput{Status: domain.OrderStatusPending})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	orderRepo.AssertNotCalled(t, "UpdateStatus")
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	orderRepo := new(mockOrderRepository)
	productRepo := new(mockProductRepository)
	cartRepo := new(mockCartRepository)
	svc := newTestOrderService(orderRepo, productRepo, cartRepo)
	ctx := context.Background()

	_, err := svc.UpdateStatus(ctx, "order-1", UpdateOrderStatusInput{Status: "lost"})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	orderRepo.AssertNotCalled(t, "GetByID")
}

var _ payment.Provider = (*paymentmock.Provider)(nil)
