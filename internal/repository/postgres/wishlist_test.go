package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atikur-web-dev/shopeasy/pkg/database"
	apperrors "github.com/atikur-web-dev/shopeasy/pkg/errors"
)

func setupWishlistRepo(t *testing.T) (*WishlistRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewWishlistRepository(mock), mock
}

// ---------------------------------------------------------------------------
// Add
// ---------------------------------------------------------------------------

func TestWishlistRepository_Add_Success(t *testing.T) {
	repo, mock := setupWishlistRepo(t)

	mock.ExpectExec("INSERT INTO wishlists").
		WithArgs("user-001", "prod-001").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Add(context.Background(), "user-001", "prod-001")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWishlistRepository_Add_DuplicateIsNoOp(t *testing.T) {
	repo, mock := setupWishlistRepo(t)

	// ON CONFLICT DO NOTHING reports zero rows affected; still a success.
	mock.ExpectExec("INSERT INTO wishlists").
		WithArgs("user-001", "prod-001").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	err := repo.Add(context.Background(), "user-001", "prod-001")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWishlistRepository_Add_ExecError(t *testing.T) {
	repo, mock := setupWishlistRepo(t)

	mock.ExpectExec("INSERT INTO wishlists").
		WithArgs("user-001", "prod-001").
		WillReturnError(errors.New("connection refused"))

	err := repo.Add(context.Background(), "user-001", "prod-001")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "add to wishlist")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Remove
// ---------------------------------------------------------------------------

func TestWishlistRepository_Remove_Success(t *testing.T) {
	repo, mock := setupWishlistRepo(t)

	mock.ExpectExec("DELETE FROM wishlists WHERE user_id =").
		WithArgs("user-001", "prod-001").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := repo.Remove(context.Background(), "user-001", "prod-001")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWishlistRepository_Remove_NotFound(t *testing.T) {
	repo, mock := setupWishlistRepo(t)

	mock.ExpectExec("DELETE FROM wishlists WHERE user_id =").
		WithArgs("user-001", "prod-missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Remove(context.Background(), "user-001", "prod-missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// List
// ---------------------------------------------------------------------------

func TestWishlistRepository_List_Success(t *testing.T) {
	repo, mock := setupWishlistRepo(t)

	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("user-001").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))

	mock.ExpectQuery("SELECT user_id, product_id, created_at FROM wishlists").
		WithArgs("user-001", 20, 0).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "product_id", "created_at"}).
			AddRow("user-001", "prod-002", createdAt).
			AddRow("user-001", "prod-001", createdAt.Add(-time.Hour)))

	items, total, err := repo.List(context.Background(), "user-001", 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 2)
	assert.Equal(t, "prod-002", items[0].ProductID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWishlistRepository_List_Empty(t *testing.T) {
	repo, mock := setupWishlistRepo(t)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("user-001").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))

	mock.ExpectQuery("SELECT user_id, product_id, created_at FROM wishlists").
		WithArgs("user-001", 20, 0).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "product_id", "created_at"}))

	items, total, err := repo.List(context.Background(), "user-001", 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.NotNil(t, items)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWishlistRepository_List_QueryError(t *testing.T) {
	repo, mock := setupWishlistRepo(t)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("user-001").
		WillReturnError(errors.New("connection refused"))

	_, _, err := repo.List(context.Background(), "user-001", 20, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count wishlist items")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Exists
// ---------------------------------------------------------------------------

func TestWishlistRepository_Exists(t *testing.T) {
	repo, mock := setupWishlistRepo(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("user-001", "prod-001").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.Exists(context.Background(), "user-001", "prod-001")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWishlistRepository_Exists_False(t *testing.T) {
	repo, mock := setupWishlistRepo(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("user-001", "prod-999").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	exists, err := repo.Exists(context.Background(), "user-001", "prod-999")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
