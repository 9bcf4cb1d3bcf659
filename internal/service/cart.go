package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/atikur-web-dev/shopeasy/internal/domain"
	"github.com/atikur-web-dev/shopeasy/internal/event"
	"github.com/atikur-web-dev/shopeasy/internal/repository"
	apperrors "github.com/atikur-web-dev/shopeasy/pkg/errors"
)

// Cart operation upper-bound limits to prevent abuse.
const (
	// MaxQuantityPerItem is the maximum quantity allowed for a single cart line.
	MaxQuantityPerItem = 100
	// MaxItemsPerCart is the maximum number of distinct lines allowed in a cart.
	MaxItemsPerCart = 50
	// maxSaveAttempts bounds how often a mutation is replayed after losing a
	// version race to a concurrent writer.
	maxSaveAttempts = 3
)

// AddItemInput holds the parameters for adding an item to the cart.
type AddItemInput struct {
	ProductID string `json:"product_id" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Price     int64  `json:"price" validate:"gte=0"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
	ImageURL  string `json:"image_url"`
}

// CartService implements the business logic for cart operations.
type CartService struct {
	repo     repository.CartRepository
	producer *event.Producer
	logger   *slog.Logger
	cartTTL  time.Duration
}

// NewCartService creates a new cart service.
func NewCartService(repo repository.CartRepository, producer *event.Producer, logger *slog.Logger, cartTTL time.Duration) *CartService {
	return &CartService{
		repo:     repo,
		producer: producer,
		logger:   logger,
		cartTTL:  cartTTL,
	}
}

// GetCart retrieves the cart for a user. If no cart exists, returns an empty cart.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}

	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return s.newEmptyCart(userID), nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}

	return cart, nil
}

// AddItem adds an item to the user's cart. If the product is already present,
// the existing line's quantity is increased rather than a duplicate created.
// The save is version-guarded; a lost race reloads the cart and replays the
// mutation.
func (s *CartService) AddItem(ctx context.Context, userID string, input AddItemInput) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if input.ProductID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if input.Quantity <= 0 {
		return nil, apperrors.InvalidInput("quantity must be greater than 0")
	}
	if input.Quantity > MaxQuantityPerItem {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
	}
	if input.Price < 0 {
		return nil, apperrors.InvalidInput("price must not be negative")
	}

	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		cart, err := s.getOrCreateCart(ctx, userID)
		if err != nil {
			return nil, err
		}
		expectedVersion := cart.Version

		if i := cart.FindItemIndex(input.ProductID); i >= 0 {
			newQty := cart.Items[i].Quantity + input.Quantity
			if newQty > MaxQuantityPerItem {
				return nil, apperrors.InvalidInput(fmt.Sprintf("combined quantity must not exceed %d", MaxQuantityPerItem))
			}
			cart.Items[i].Quantity = newQty
			// Refresh denormalized fields in case the catalog changed.
			cart.Items[i].Price = input.Price
			cart.Items[i].Name = input.Name
			cart.Items[i].ImageURL = input.ImageURL
		} else {
			if len(cart.Items) >= MaxItemsPerCart {
				return nil, apperrors.InvalidInput(fmt.Sprintf("cart must not contain more than %d items", MaxItemsPerCart))
			}
			cart.Items = append(cart.Items, domain.CartItem{
				ProductID: input.ProductID,
				Name:      input.Name,
				Price:     input.Price,
				Quantity:  input.Quantity,
				ImageURL:  input.ImageURL,
			})
		}

		ok, err := s.saveCartIfVersion(ctx, cart, expectedVersion)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		s.publishUpdated(ctx, cart)

		s.logger.InfoContext(ctx, "item added to cart",
			slog.String("user_id", userID),
			slog.String("product_id", input.ProductID),
			slog.Int("quantity", input.Quantity),
		)

		return cart, nil
	}

	return nil, apperrors.Conflict("cart was modified concurrently, please retry")
}

// UpdateItemQuantity updates the quantity of a line in the cart. A quantity
// below 1 removes the line entirely; a line never persists with quantity 0.
func (s *CartService) UpdateItemQuantity(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if quantity > MaxQuantityPerItem {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
	}

	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		cart, err := s.repo.Get(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("get cart for update: %w", err)
		}
		expectedVersion := cart.Version

		i := cart.FindItemIndex(productID)
		if i < 0 {
			return nil, apperrors.NotFound("cart item", productID)
		}

		if quantity < 1 {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
		} else {
			cart.Items[i].Quantity = quantity
		}

		ok, err := s.saveCartIfVersion(ctx, cart, expectedVersion)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		s.publishUpdated(ctx, cart)

		s.logger.InfoContext(ctx, "cart item quantity updated",
			slog.String("user_id", userID),
			slog.String("product_id", productID),
			slog.Int("quantity", quantity),
		)

		return cart, nil
	}

	return nil, apperrors.Conflict("cart was modified concurrently, please retry")
}

// RemoveItem removes a specific line from the cart.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		cart, err := s.repo.Get(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("get cart for remove: %w", err)
		}
		expectedVersion := cart.Version

		i := cart.FindItemIndex(productID)
		if i < 0 {
			return nil, apperrors.NotFound("cart item", productID)
		}
		cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)

		ok, err := s.saveCartIfVersion(ctx, cart, expectedVersion)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		s.publishUpdated(ctx, cart)

		s.logger.InfoContext(ctx, "item removed from cart",
			slog.String("user_id", userID),
			slog.String("product_id", productID),
		)

		return cart, nil
	}

	return nil, apperrors.Conflict("cart was modified concurrently, please retry")
}

// ClearCart removes all items from the user's cart.
func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	if userID == "" {
		return apperrors.InvalidInput("user id is required")
	}

	if err := s.repo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}

	if err := s.producer.PublishCartCleared(ctx, userID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "cart cleared",
		slog.String("user_id", userID),
	)

	return nil
}

func (s *CartService) getOrCreateCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return s.newEmptyCart(userID), nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

func (s *CartService) newEmptyCart(userID string) *domain.Cart {
	now := time.Now().UTC()
	return &domain.Cart{
		ID:        uuid.New().String(),
		UserID:    userID,
		Items:     []domain.CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.cartTTL),
	}
}

// saveCartIfVersion stamps the cart and attempts a version-guarded save.
// A false return means a concurrent writer got there first.
func (s *CartService) saveCartIfVersion(ctx context.Context, cart *domain.Cart, expectedVersion int) (bool, error) {
	now := time.Now().UTC()
	cart.UpdatedAt = now
	cart.ExpiresAt = now.Add(s.cartTTL)

	ok, err := s.repo.SaveIfVersion(ctx, cart, expectedVersion)
	if err != nil {
		return false, fmt.Errorf("save cart: %w", err)
	}
	return ok, nil
}

func (s *CartService) publishUpdated(ctx context.Context, cart *domain.Cart) {
	if err := s.producer.PublishCartUpdated(ctx, cart); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("user_id", cart.UserID),
			slog.String("error", err.Error()),
		)
	}
}
