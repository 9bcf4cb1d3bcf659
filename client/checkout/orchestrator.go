// Package checkout turns a non-empty cart plus validated shipping and
// payment input into a confirmed order, exactly once. Submission is
// single-flight: a second submit while one is outstanding is rejected, never
// queued. After confirmation the server-recorded total is checked against
// the displayed estimate, so a pricing divergence never goes unnoticed.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/atikur-web-dev/shopeasy/client/api"
	"github.com/atikur-web-dev/shopeasy/client/cart"
	"github.com/atikur-web-dev/shopeasy/internal/domain"
	"github.com/atikur-web-dev/shopeasy/internal/pricing"
)

// Phase is the orchestrator's position in the checkout flow.
type Phase int

const (
	// PhaseCollectingInfo: the user edits shipping fields; no side effects.
	PhaseCollectingInfo Phase = iota
	// PhaseSubmitting: exactly one order-creation request is in flight.
	PhaseSubmitting
	// PhaseSucceeded: the order is confirmed and the cart cleared.
	PhaseSucceeded
)

// String returns the phase name for logging.
func (p Phase) String() string {
	switch p {
	case PhaseCollectingInfo:
		return "collecting_info"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSucceeded:
		return "succeeded"
	default:
		return "unknown"
	}
}

// ErrSubmitInFlight is returned when Submit is called while a previous
// submission has not resolved yet.
var ErrSubmitInFlight = errors.New("checkout: submission already in flight")

// ErrEmptyCart is returned when Submit is called with no cart lines.
var ErrEmptyCart = errors.New("checkout: cart is empty")

// ErrTotalsMismatch is returned together with the confirmed order when the
// server-recorded total differs from the estimate shown before submission.
// The order exists and the cart is cleared; the caller should display the
// server total and flag the divergence instead of retrying.
var ErrTotalsMismatch = errors.New("checkout: confirmed total differs from estimate")

// ValidationError carries field-level feedback for missing shipping input.
// No network call is made when validation fails.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("checkout: %d invalid fields", len(e.Fields))
}

// Orchestrator drives the checkout flow for one cart.
type Orchestrator struct {
	api    *api.Client
	cart   *cart.Reconciler
	rule   pricing.Rule
	logger *slog.Logger

	mu    sync.Mutex
	phase Phase
}

// NewOrchestrator creates a checkout orchestrator.
func NewOrchestrator(apiClient *api.Client, reconciler *cart.Reconciler, rule pricing.Rule, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		api:    apiClient,
		cart:   reconciler,
		rule:   rule,
		logger: logger,
		phase:  PhaseCollectingInfo,
	}
}

// Phase returns the current checkout phase.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// Totals computes the pre-submit estimate from the current cart lines. The
// identical rule produces the totals recorded on the created order.
func (o *Orchestrator) Totals() pricing.Totals {
	return o.rule.Compute(o.cart.Subtotal())
}

// Validate checks the shipping address without side effects. Every field is
// required.
func Validate(addr domain.Address) *ValidationError {
	fields := map[string]string{}
	if addr.Street == "" {
		fields["street"] = "street is required"
	}
	if addr.City == "" {
		fields["city"] = "city is required"
	}
	if addr.State == "" {
		fields["state"] = "state is required"
	}
	if addr.Zip == "" {
		fields["zip"] = "zip is required"
	}
	if addr.Phone == "" {
		fields["phone"] = "phone is required"
	}
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// Submit validates the input and creates the order. On success the cart is
// cleared as a single logical step after server confirmation. On any failure
// the cart is left untouched and the orchestrator returns to the editable
// phase so the user can retry.
func (o *Orchestrator) Submit(ctx context.Context, addr domain.Address, paymentMethod string) (*domain.Order, error) {
	if verr := Validate(addr); verr != nil {
		return nil, verr
	}
	if paymentMethod == "" {
		return nil, &ValidationError{Fields: map[string]string{"payment_method": "payment method is required"}}
	}

	items := o.cart.Items()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	o.mu.Lock()
	if o.phase == PhaseSubmitting {
		o.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	o.phase = PhaseSubmitting
	o.mu.Unlock()

	order, err := o.submit(ctx, items, addr, paymentMethod)

	o.mu.Lock()
	if err != nil {
		o.phase = PhaseCollectingInfo
	} else {
		o.phase = PhaseSucceeded
	}
	o.mu.Unlock()

	if err != nil {
		o.logger.Warn("checkout submission failed",
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	// The server confirmed the order and cleared its cart copy atomically
	// with it; the local view follows immediately.
	o.cart.ResetAfterOrder()

	// The server prices the order under its own rule, which can drift from
	// the one this orchestrator was built with. A silent divergence would
	// mean the user confirmed a number they never saw.
	var subtotal int64
	for _, it := range items {
		subtotal += it.Price * int64(it.Quantity)
	}
	if estimate := o.rule.Compute(subtotal); order.TotalAmount != estimate.Total {
		o.logger.Warn("confirmed total diverged from estimate",
			slog.String("order_id", order.ID),
			slog.Int64("estimated", estimate.Total),
			slog.Int64("confirmed", order.TotalAmount),
		)
		return order, ErrTotalsMismatch
	}

	o.logger.Info("order confirmed",
		slog.String("order_id", order.ID),
		slog.Int64("total", order.TotalAmount),
	)
	return order, nil
}

// Reset returns the orchestrator to the editable phase, e.g. after the
// confirmation view has been shown.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	o.phase = PhaseCollectingInfo
	o.mu.Unlock()
}

type orderItemBody struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	ImageURL  string `json:"image_url,omitempty"`
}

type createOrderBody struct {
	Items           []orderItemBody `json:"items"`
	ShippingAddress domain.Address  `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method"`
}

func (o *Orchestrator) submit(ctx context.Context, items []domain.CartItem, addr domain.Address, paymentMethod string) (*domain.Order, error) {
	body := createOrderBody{
		Items:           make([]orderItemBody, 0, len(items)),
		ShippingAddress: addr,
		PaymentMethod:   paymentMethod,
	}
	for _, it := range items {
		body.Items = append(body.Items, orderItemBody{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
			ImageURL:  it.ImageURL,
		})
	}

	var order domain.Order
	if err := o.api.Post(ctx, "/api/v1/orders", body, &order); err != nil {
		return nil, err
	}
	return &order, nil
}
