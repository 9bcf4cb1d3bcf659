package wishlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atikur-web-dev/shopeasy/client/localstore"
)

func newTestWishlist(t *testing.T, userID string) (*Wishlist, *localstore.Store) {
	t.Helper()
	store, err := localstore.Open(t.TempDir())
	require.NoError(t, err)
	w, err := ForUser(store, userID)
	require.NoError(t, err)
	return w, store
}

func TestForUser_RequiresUserID(t *testing.T) {
	store, err := localstore.Open(t.TempDir())
	require.NoError(t, err)

	_, err = ForUser(store, "")
	assert.Error(t, err)
}

func TestAddAndList_InsertionOrder(t *testing.T) {
	w, _ := newTestWishlist(t, "user-123")

	require.NoError(t, w.Add("prod-003"))
	require.NoError(t, w.Add("prod-001"))
	require.NoError(t, w.Add("prod-002"))

	ids, err := w.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"prod-003", "prod-001", "prod-002"}, ids)
}

func TestAdd_DuplicateIsNoOp(t *testing.T) {
	w, _ := newTestWishlist(t, "user-123")

	require.NoError(t, w.Add("prod-001"))
	require.NoError(t, w.Add("prod-001"))

	ids, err := w.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"prod-001"}, ids)
}

func TestAdd_RequiresProductID(t *testing.T) {
	w, _ := newTestWishlist(t, "user-123")
	assert.Error(t, w.Add(""))
}

func TestHas(t *testing.T) {
	w, _ := newTestWishlist(t, "user-123")

	require.NoError(t, w.Add("prod-001"))

	ok, err := w.Has("prod-001")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = w.Has("prod-999")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRemove(t *testing.T) {
	w, _ := newTestWishlist(t, "user-123")

	require.NoError(t, w.Add("prod-001"))
	require.NoError(t, w.Add("prod-002"))
	require.NoError(t, w.Remove("prod-001"))

	ids, err := w.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"prod-002"}, ids)
}

func TestRemove_AbsentIsNoOp(t *testing.T) {
	w, _ := newTestWishlist(t, "user-123")

	require.NoError(t, w.Add("prod-001"))
	require.NoError(t, w.Remove("prod-999"))

	ids, err := w.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"prod-001"}, ids)
}

func TestListsAreIsolatedPerUser(t *testing.T) {
	store, err := localstore.Open(t.TempDir())
	require.NoError(t, err)

	alice, err := ForUser(store, "user-alice")
	require.NoError(t, err)
	bob, err := ForUser(store, "user-bob")
	require.NoError(t, err)

	require.NoError(t, alice.Add("prod-001"))
	require.NoError(t, bob.Add("prod-002"))

	ids, err := alice.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"prod-001"}, ids)

	ids, err = bob.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"prod-002"}, ids)
}

func TestSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	store, err := localstore.Open(dir)
	require.NoError(t, err)
	w, err := ForUser(store, "user-123")
	require.NoError(t, err)
	require.NoError(t, w.Add("prod-001"))

	reopened, err := localstore.Open(dir)
	require.NoError(t, err)
	w2, err := ForUser(reopened, "user-123")
	require.NoError(t, err)

	ids, err := w2.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"prod-001"}, ids)
}
