package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atikur-web-dev/shopeasy/internal/domain"
	"github.com/atikur-web-dev/shopeasy/pkg/database"
	apperrors "github.com/atikur-web-dev/shopeasy/pkg/errors"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func setupProductRepo(t *testing.T) (*ProductRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	repo := NewProductRepository(mock)
	return repo, mock
}

func sampleProduct() *domain.Product {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &domain.Product{
		ID:          "prod-001",
		Name:        "Wireless Mouse",
		Description: "Ergonomic 2.4GHz wireless mouse",
		Brand:       "Logi",
		Category:    "accessories",
		Price:       2999,
		ImageURL:    "https://cdn.example.com/mouse.jpg",
		Stock:       25,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func productColumns() []string {
	return []string{
		"id", "name", "description", "brand", "category",
		"price", "image_url", "stock", "is_active", "created_at", "updated_at",
	}
}

func productRow(p *domain.Product) *pgxmock.Rows {
	return pgxmock.NewRows(productColumns()).
		AddRow(
			p.ID, p.Name, p.Description, p.Brand, p.Category,
			p.Price, p.ImageURL, p.Stock, p.IsActive, p.CreatedAt, p.UpdatedAt,
		)
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestProductRepository_Create_Success(t *testing.T) {
	repo, mock := setupProductRepo(t)
	defer mock.Close()

	p := sampleProduct()

	mock.ExpectExec("INSERT INTO products").
		WithArgs(
			p.ID, p.Name, p.Description, p.Brand, p.Category,
			p.Price, p.ImageURL, p.Stock, p.IsActive, p.CreatedAt, p.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), p)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Create_ExecError(t *testing.T) {
	repo, mock := setupProductRepo(t)
	defer mock.Close()

	p := sampleProduct()

	mock.ExpectExec("INSERT INTO products").
		WithArgs(
			p.ID, p.Name, p.Description, p.Brand, p.Category,
			p.Price, p.ImageURL, p.Stock, p.IsActive, p.CreatedAt, p.UpdatedAt,
		).
		WillReturnError(errors.New("connection refused"))

	err := repo.Create(context.Background(), p)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "insert product")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// GetByID
// ---------------------------------------------------------------------------

func TestProductRepository_GetByID_Success(t *testing.T) {
	repo, mock := setupProductRepo(t)
	defer mock.Close()

	p := sampleProduct()

	mock.ExpectQuery("SELECT .+ FROM products WHERE id").
		WithArgs(p.ID).
		WillReturnRows(productRow(p))

	result, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, p.ID, result.ID)
	assert.Equal(t, p.Name, result.Name)
	assert.Equal(t, p.Brand, result.Brand)
	assert.Equal(t, p.Category, result.Category)
	assert.Equal(t, p.Price, result.Price)
	assert.Equal(t, p.Stock, result.Stock)
	assert.True(t, result.IsActive)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := setupProductRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM products WHERE id").
		WithArgs("nonexistent-id").
		WillReturnError(pgx.ErrNoRows)

	result, err := repo.GetByID(context.Background(), "nonexistent-id")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// List
// ---------------------------------------------------------------------------

func TestProductRepository_List_Success(t *testing.T) {
	repo, mock := setupProductRepo(t)
	defer mock.Close()

	p1 := sampleProduct()
	p2 := sampleProduct()
	p2.ID = "prod-002"
	p2.Name = "Mechanical Keyboard"
	p2.Price = 8999

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))

	rows := pgxmock.NewRows(productColumns()).
		AddRow(
			p1.ID, p1.Name, p1.Description, p1.Brand, p1.Category,
			p1.Price, p1.ImageURL, p1.Stock, p1.IsActive, p1.CreatedAt, p1.UpdatedAt,
		).
		AddRow(
			p2.ID, p2.Name, p2.Description, p2.Brand, p2.Category,
			p2.Price, p2.ImageURL, p2.Stock, p2.IsActive, p2.CreatedAt, p2.UpdatedAt,
		)

	mock.ExpectQuery("SELECT .+ FROM products").
		WithArgs("", 20, 0).
		WillReturnRows(rows)

	products, total, err := repo.List(context.Background(), "", 20, 0)
	require.NoError(t, err)

	assert.Equal(t, 2, total)
	require.Len(t, products, 2)
	assert.Equal(t, "prod-001", products[0].ID)
	assert.Equal(t, "prod-002", products[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_List_CategoryFilter(t *testing.T) {
	repo, mock := setupProductRepo(t)
	defer mock.Close()

	p := sampleProduct()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("accessories").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))

	mock.ExpectQuery("SELECT .+ FROM products").
		WithArgs("accessories", 20, 0).
		WillReturnRows(productRow(p))

	products, total, err := repo.List(context.Background(), "accessories", 20, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, total)
	require.Len(t, products, 1)
	assert.Equal(t, "accessories", products[0].Category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_List_QueryError(t *testing.T) {
	repo, mock := setupProductRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))

	mock.ExpectQuery("SELECT .+ FROM products").
		WithArgs("", 20, 0).
		WillReturnError(errors.New("database timeout"))

	products, total, err := repo.List(context.Background(), "", 20, 0)
	assert.Nil(t, products)
	assert.Equal(t, 0, total)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "query products")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func TestProductRepository_Update_Success(t *testing.T) {
	repo, mock := setupProductRepo(t)
	defer mock.Close()

	p := sampleProduct()
	p.Price = 2499

	mock.ExpectExec("UPDATE products").
		WithArgs(
			p.ID, p.Name, p.Description, p.Brand, p.Category,
			p.Price, p.ImageURL, p.Stock, p.IsActive, p.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.Update(context.Background(), p)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Update_NotFound(t *testing.T) {
	repo, mock := setupProductRepo(t)
	defer mock.Close()

	p := sampleProduct()
	p.ID = "nonexistent-id"

	mock.ExpectExec("UPDATE products").
		WithArgs(
			p.ID, p.Name, p.Description, p.Brand, p.Category,
			p.Price, p.ImageURL, p.Stock, p.IsActive, p.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), p)
	assert.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// DecrementStock
// ---------------------------------------------------------------------------

func TestProductRepository_DecrementStock_Success(t *testing.T) {
	repo, mock := setupProductRepo(t)
	defer mock.Close()

	mock.ExpectExec("UPDATE products").
		WithArgs("prod-001", 3).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.DecrementStock(context.Background(), "prod-001", 3)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_DecrementStock_Insufficient(t *testing.T) {
	repo, mock := setupProductRepo(t)
	defer mock.Close()

	// The guarded UPDATE matches no rows when stock < quantity.
	mock.ExpectExec("UPDATE products").
		WithArgs("prod-001", 999).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.DecrementStock(context.Background(), "prod-001", 999)
	assert.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrOutOfStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_DecrementStock_ExecError(t *testing.T) {
	repo, mock := setupProductRepo(t)
	defer mock.Close()

	mock.ExpectExec("UPDATE products").
		WithArgs("prod-001", 1).
		WillReturnError(errors.New("connection reset"))

	err := repo.DecrementStock(context.Background(), "prod-001", 1)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "decrement stock")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func TestProductRepository_Delete_Success(t *testing.T) {
	repo, mock := setupProductRepo(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM products WHERE").
		WithArgs("prod-001").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := repo.Delete(context.Background(), "prod-001")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Delete_NotFound(t *testing.T) {
	repo, mock := setupProductRepo(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM products WHERE").
		WithArgs("nonexistent-id").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Delete(context.Background(), "nonexistent-id")
	assert.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
