// Package cart presents a single consistent cart view whether or not the
// user is authenticated. A guest cart lives in durable local storage; an
// authenticated cart is owned by the server and cached for rendering. The
// reconciler decides per mutation which store is authoritative and falls
// back to an in-memory copy when the server is unreachable.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/atikur-web-dev/shopeasy/client/api"
	"github.com/atikur-web-dev/shopeasy/client/localstore"
	"github.com/atikur-web-dev/shopeasy/internal/domain"
)

// State identifies which store currently owns the cart.
type State int

const (
	// StateGuest: no session; mutations write through to local storage.
	StateGuest State = iota
	// StateAuthenticated: session active; the server cart is authoritative.
	StateAuthenticated
	// StateDegraded: session active but the last server call failed; the
	// in-memory copy carries the user's intent until the next successful
	// sync. It is never written to guest storage.
	StateDegraded
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateGuest:
		return "guest"
	case StateAuthenticated:
		return "authenticated"
	case StateDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// Session is the slice of the session manager the reconciler needs: whether
// a session is active, and the single cleanup hook for credential rejection.
type Session interface {
	IsAuthenticated() bool
	Invalidate()
}

// Line is the input for an add mutation: the product identity plus the
// denormalized display fields captured at add time.
type Line struct {
	ProductID string
	Name      string
	Price     int64
	Quantity  int
	ImageURL  string
}

// Reconciler maintains the cart line items across session transitions.
type Reconciler struct {
	api     *api.Client
	store   *localstore.Store
	session Session
	logger  *slog.Logger

	mu    sync.Mutex
	state State
	items []domain.CartItem
}

// NewReconciler creates a reconciler in guest state with the durable guest
// cart loaded. Call Activate after login or a bootstrap that restored a
// session.
func NewReconciler(apiClient *api.Client, store *localstore.Store, session Session, logger *slog.Logger) (*Reconciler, error) {
	items, err := store.LoadGuestCart()
	if err != nil {
		return nil, fmt.Errorf("load guest cart: %w", err)
	}
	return &Reconciler{
		api:     apiClient,
		store:   store,
		session: session,
		logger:  logger,
		state:   StateGuest,
		items:   items,
	}, nil
}

// State returns the current ownership state.
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Items returns a copy of the current lines.
func (r *Reconciler) Items() []domain.CartItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.CartItem, len(r.items))
	copy(out, r.items)
	return out
}

// Count returns the total item count, the sum of quantities over all lines.
// It is derived on read, never stored.
func (r *Reconciler) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, it := range r.items {
		n += it.Quantity
	}
	return n
}

// Subtotal returns the sum of quantity times the denormalized unit price
// over all lines, in cents. Derived on read.
func (r *Reconciler) Subtotal() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	for _, it := range r.items {
		total += it.Price * int64(it.Quantity)
	}
	return total
}

// Activate transitions the cart to authenticated ownership. The server cart
// is fetched and replaces whatever guest cart was in memory; the server is
// authoritative on entry, never merged. A credential rejection clears the
// session and leaves the cart in guest state; any other failure enters the
// degraded state with the current in-memory view retained.
func (r *Reconciler) Activate(ctx context.Context) error {
	if !r.session.IsAuthenticated() {
		return errors.New("cart: no active session")
	}

	var serverCart domain.Cart
	err := r.api.Get(ctx, "/api/v1/cart", &serverCart)

	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case err == nil:
		r.items = normalize(serverCart.Items)
		r.state = StateAuthenticated
		r.logger.Info("cart activated from server",
			slog.Int("lines", len(r.items)),
		)
		return nil

	case errors.Is(err, api.ErrSessionExpired):
		r.session.Invalidate()
		items, loadErr := r.store.LoadGuestCart()
		if loadErr != nil {
			items = []domain.CartItem{}
		}
		r.items = items
		r.state = StateGuest
		r.logger.Info("session rejected during cart fetch, reverting to guest")
		return err

	default:
		r.state = StateDegraded
		r.logger.Warn("cart fetch failed, entering degraded state",
			slog.String("error", err.Error()),
		)
		return err
	}
}

// Deactivate returns the cart to guest ownership after logout. The in-memory
// authenticated view is discarded and the durable guest cart reloaded.
func (r *Reconciler) Deactivate() error {
	items, err := r.store.LoadGuestCart()
	if err != nil {
		return fmt.Errorf("load guest cart: %w", err)
	}

	r.mu.Lock()
	r.items = items
	r.state = StateGuest
	r.mu.Unlock()
	return nil
}

// Add inserts a line or, when the product is already present, increments its
// quantity. The visible cart reflects the addition when Add returns even if
// the server call failed; in that case the error is returned for surfacing
// and the fallback copy carries the intent.
func (r *Reconciler) Add(ctx context.Context, line Line) error {
	if line.ProductID == "" {
		return errors.New("cart: product id is required")
	}
	if line.Quantity < 1 {
		line.Quantity = 1
	}

	if !r.authenticated() {
		return r.mutateGuest(func() {
			r.applyAdd(line)
		})
	}

	var serverCart domain.Cart
	err := r.api.Post(ctx, "/api/v1/cart/items", map[string]any{
		"product_id": line.ProductID,
		"name":       line.Name,
		"price":      line.Price,
		"quantity":   line.Quantity,
		"image_url":  line.ImageURL,
	}, &serverCart)

	return r.settle(err, &serverCart, func() {
		r.applyAdd(line)
	})
}

// Update sets a line's quantity. A target below 1 removes the line; a line
// never survives with quantity 0.
func (r *Reconciler) Update(ctx context.Context, productID string, quantity int) error {
	if productID == "" {
		return errors.New("cart: product id is required")
	}
	if quantity < 1 {
		return r.Remove(ctx, productID)
	}

	if !r.authenticated() {
		return r.mutateGuest(func() {
			r.applyUpdate(productID, quantity)
		})
	}

	var serverCart domain.Cart
	err := r.api.Put(ctx, "/api/v1/cart/items/"+productID, map[string]int{
		"quantity": quantity,
	}, &serverCart)

	return r.settle(err, &serverCart, func() {
		r.applyUpdate(productID, quantity)
	})
}

// Remove deletes a line from the cart.
func (r *Reconciler) Remove(ctx context.Context, productID string) error {
	if productID == "" {
		return errors.New("cart: product id is required")
	}

	if !r.authenticated() {
		return r.mutateGuest(func() {
			r.applyRemove(productID)
		})
	}

	var serverCart domain.Cart
	err := r.api.Delete(ctx, "/api/v1/cart/items/"+productID, &serverCart)

	return r.settle(err, &serverCart, func() {
		r.applyRemove(productID)
	})
}

// Clear removes every line from the cart.
func (r *Reconciler) Clear(ctx context.Context) error {
	if !r.authenticated() {
		return r.mutateGuest(func() {
			r.items = []domain.CartItem{}
		})
	}

	err := r.api.Delete(ctx, "/api/v1/cart", nil)

	empty := domain.Cart{Items: []domain.CartItem{}}
	return r.settle(err, &empty, func() {
		r.items = []domain.CartItem{}
	})
}

// ResetAfterOrder clears the in-memory cart after the server confirmed order
// creation. The server has already cleared its copy as part of the order, so
// no network call is made and the reset cannot fail partially.
func (r *Reconciler) ResetAfterOrder() {
	r.mu.Lock()
	r.items = []domain.CartItem{}
	if r.state == StateDegraded {
		r.state = StateAuthenticated
	}
	r.mu.Unlock()
}

func (r *Reconciler) authenticated() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state != StateGuest
}

// mutateGuest applies a mutation to the in-memory cart and writes the result
// through to durable guest storage. The in-memory state only changes when
// the durable write succeeds, so the two never diverge.
func (r *Reconciler) mutateGuest(apply func()) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	before := r.items
	r.items = cloneItems(r.items)
	apply()

	if err := r.store.SaveGuestCart(r.items); err != nil {
		r.items = before
		return fmt.Errorf("persist guest cart: %w", err)
	}
	return nil
}

// settle resolves an authenticated mutation. On success the server's
// returned cart replaces the in-memory view. A credential rejection clears
// the session and re-applies the mutation as a guest. Any other failure
// applies the mutation to the in-memory fallback only and flips the cart
// into the degraded state; the error is returned for surfacing.
func (r *Reconciler) settle(err error, serverCart *domain.Cart, apply func()) error {
	if err == nil {
		r.mu.Lock()
		r.items = normalize(serverCart.Items)
		r.state = StateAuthenticated
		r.mu.Unlock()
		return nil
	}

	if errors.Is(err, api.ErrSessionExpired) {
		r.session.Invalidate()

		r.mu.Lock()
		items, loadErr := r.store.LoadGuestCart()
		if loadErr != nil {
			items = []domain.CartItem{}
		}
		r.items = items
		r.state = StateGuest
		r.mu.Unlock()

		r.logger.Info("session rejected during cart mutation, reverting to guest")
		if guestErr := r.mutateGuest(apply); guestErr != nil {
			return guestErr
		}
		return err
	}

	r.mu.Lock()
	r.items = cloneItems(r.items)
	apply()
	r.state = StateDegraded
	r.mu.Unlock()

	r.logger.Warn("cart mutation failed, fallback applied",
		slog.String("error", err.Error()),
	)
	return err
}

func (r *Reconciler) applyAdd(line Line) {
	for i := range r.items {
		if r.items[i].ProductID == line.ProductID {
			r.items[i].Quantity += line.Quantity
			return
		}
	}
	r.items = append(r.items, domain.CartItem{
		ProductID: line.ProductID,
		Name:      line.Name,
		Price:     line.Price,
		Quantity:  line.Quantity,
		ImageURL:  line.ImageURL,
	})
}

func (r *Reconciler) applyUpdate(productID string, quantity int) {
	for i := range r.items {
		if r.items[i].ProductID == productID {
			r.items[i].Quantity = quantity
			return
		}
	}
}

func (r *Reconciler) applyRemove(productID string) {
	for i := range r.items {
		if r.items[i].ProductID == productID {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return
		}
	}
}

func cloneItems(items []domain.CartItem) []domain.CartItem {
	out := make([]domain.CartItem, len(items))
	copy(out, items)
	return out
}

func normalize(items []domain.CartItem) []domain.CartItem {
	if items == nil {
		return []domain.CartItem{}
	}
	return items
}
