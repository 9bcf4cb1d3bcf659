// Package wishlist keeps a per-user list of product IDs in local storage.
// It is a simple client-side feature independent of the cart and session
// consistency rules; each user's list is keyed by their user ID.
package wishlist

import (
	"errors"

	"github.com/atikur-web-dev/shopeasy/client/localstore"
)

// Wishlist manages the wished product IDs for one user.
type Wishlist struct {
	store  *localstore.Store
	userID string
}

// ForUser opens the wishlist of the given user.
func ForUser(store *localstore.Store, userID string) (*Wishlist, error) {
	if userID == "" {
		return nil, errors.New("wishlist: user id is required")
	}
	return &Wishlist{store: store, userID: userID}, nil
}

// List returns the wished product IDs in insertion order.
func (w *Wishlist) List() ([]string, error) {
	return w.store.LoadWishlist(w.userID)
}

// Has reports whether the product is on the list.
func (w *Wishlist) Has(productID string) (bool, error) {
	ids, err := w.store.LoadWishlist(w.userID)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == productID {
			return true, nil
		}
	}
	return false, nil
}

// Add appends the product to the list. Adding a product already present is
// a no-op.
func (w *Wishlist) Add(productID string) error {
	if productID == "" {
		return errors.New("wishlist: product id is required")
	}
	ids, err := w.store.LoadWishlist(w.userID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == productID {
			return nil
		}
	}
	return w.store.SaveWishlist(w.userID, append(ids, productID))
}

// Remove deletes the product from the list. Removing an absent product is a
// no-op.
func (w *Wishlist) Remove(productID string) error {
	ids, err := w.store.LoadWishlist(w.userID)
	if err != nil {
		return err
	}
	for i, id := range ids {
		if id == productID {
			return w.store.SaveWishlist(w.userID, append(ids[:i], ids[i+1:]...))
		}
	}
	return nil
}
