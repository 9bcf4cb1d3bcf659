package repository

import (
	"context"

	"github.com/atikur-web-dev/shopeasy/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user. Returns ErrAlreadyExists if the email is taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update persists changes to an existing user.
	Update(ctx context.Context, user *domain.User) error

	// List returns a page of users and the total count.
	List(ctx context.Context, limit, offset int) ([]*domain.User, int, error)

	// Delete removes a user by ID.
	Delete(ctx context.Context, id string) error
}

// ProductRepository defines the interface for product persistence operations.
type ProductRepository interface {
	// Create inserts a new product.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID retrieves a product by ID.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// List returns a page of active products and the total count. An empty
	// category matches all categories.
	List(ctx context.Context, category string, limit, offset int) ([]*domain.Product, int, error)

	// Update persists changes to an existing product.
	Update(ctx context.Context, product *domain.Product) error

	// DecrementStock atomically reduces stock by the given quantity.
	// Returns ErrOutOfStock if the remaining stock is insufficient.
	DecrementStock(ctx context.Context, id string, quantity int) error

	// Delete removes a product by ID.
	Delete(ctx context.Context, id string) error
}

// OrderRepository defines the interface for order persistence operations.
type OrderRepository interface {
	// Create inserts a new order and its items atomically.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order by ID, including its items.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// ListByUser returns a page of the user's orders and the total count.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Order, int, error)

	// List returns a page of all orders and the total count.
	List(ctx context.Context, limit, offset int) ([]*domain.Order, int, error)

	// UpdateStatus sets the order status and associated flags/timestamps.
	UpdateStatus(ctx context.Context, order *domain.Order) error

	// Delete hard-deletes an order. Admin escape hatch only.
	Delete(ctx context.Context, id string) error
}

// WishlistRepository defines the interface for wishlist persistence operations.
type WishlistRepository interface {
	// Add inserts a product into the user's wishlist. Adding an already
	// present product is a no-op.
	Add(ctx context.Context, userID, productID string) error

	// Remove deletes a product from the user's wishlist.
	Remove(ctx context.Context, userID, productID string) error

	// List returns a page of the user's wishlist items and the total count.
	List(ctx context.Context, userID string, limit, offset int) ([]*domain.WishlistItem, int, error)

	// Exists checks whether a product is in the user's wishlist.
	Exists(ctx context.Context, userID, productID string) (bool, error)
}

// CartRepository defines the interface for cart persistence operations.
type CartRepository interface {
	// Get retrieves a cart by its user ID.
	Get(ctx context.Context, userID string) (*domain.Cart, error)

	// Save persists a cart, overwriting any existing cart for the user.
	Save(ctx context.Context, cart *domain.Cart) error

	// SaveIfVersion persists a cart only if the stored version matches
	// expectedVersion (0 for a cart that does not exist yet). On success the
	// cart's version is bumped and true is returned; a mismatch returns false
	// with nothing written.
	SaveIfVersion(ctx context.Context, cart *domain.Cart, expectedVersion int) (bool, error)

	// Delete removes a cart by the user ID.
	Delete(ctx context.Context, userID string) error
}
