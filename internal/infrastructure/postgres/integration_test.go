package postgres_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/storemax-api/internal/application/dto"
	"github.com/jhoicas/storemax-api/internal/application/sales"
	"github.com/jhoicas/storemax-api/internal/domain"
	"github.com/jhoicas/storemax-api/internal/domain/entity"
	"github.com/jhoicas/storemax-api/internal/domain/repository"
	"github.com/jhoicas/storemax-api/internal/infrastructure/postgres"
	"github.com/jhoicas/storemax-api/pkg/config"
)

// Requiere una base PostgreSQL desechable: STOREMAX_TEST_DATABASE_URL=postgres://...
func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("STOREMAX_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("STOREMAX_TEST_DATABASE_URL no definido")
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: url})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.Migrate(ctx, pool, nil))
	// segunda pasada: no debe reaplicar nada
	require.NoError(t, postgres.Migrate(ctx, pool, nil))

	_, err = pool.Exec(ctx, `TRUNCATE sale_items, sales, products, categories, users`)
	require.NoError(t, err)
	return pool
}

func createProduct(t *testing.T, repo repository.ProductRepository, name, price string, qty int) *entity.Product {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	p := &entity.Product{
		ID:        uuid.New().String(),
		Name:      name,
		Price:     decimal.RequireFromString(price),
		Quantity:  qty,
		Category:  "Accessories",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func TestProductRepo_CRUDYFiltros(t *testing.T) {
	pool := setupDB(t)
	repo := postgres.NewProductRepository(pool)
	ctx := context.Background()

	mouse := createProduct(t, repo, "Mouse", "29.99", 50)
	createProduct(t, repo, "Mousepad 50%", "5.00", 10)

	got, err := repo.GetByID(ctx, mouse.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, mouse.Price.Equal(got.Price))
	assert.Equal(t, 50, got.Quantity)

	list, err := repo.List(ctx, repository.ProductFilter{Query: "mouse"})
	require.NoError(t, err)
	assert.Len(t, list, 2)
	list, err = repo.List(ctx, repository.ProductFilter{Query: "50%"})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	// CHECK (quantity >= 0)
	err = repo.UpdateQuantity(ctx, mouse.ID, -1)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	// una copia vieja del producto no devuelve el stock a su valor anterior
	stale := *got
	require.NoError(t, repo.UpdateQuantity(ctx, mouse.ID, 0))
	stale.Name = "Mouse Pro"
	require.NoError(t, repo.Update(ctx, &stale))
	assert.Equal(t, 0, stale.Quantity)
	got, err = repo.GetByID(ctx, mouse.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mouse Pro", got.Name)
	assert.Equal(t, 0, got.Quantity)

	ok, err := repo.Delete(ctx, mouse.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	missing, err := repo.GetByID(ctx, mouse.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)
	assert.ErrorIs(t, repo.Update(ctx, &stale), domain.ErrNotFound)
}

func TestCreateSale_ConcurrenciaEnPostgres(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	laptop := createProduct(t, postgres.NewProductRepository(pool), "Laptop", "999.99", 15)

	uc := sales.NewSaleUseCase(postgres.NewTxRunner(pool), postgres.NewSaleRepository(pool), nil)
	const n = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	var ok, insufficient int
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.CreateSale(ctx, "", dto.CreateSaleRequest{Items: []dto.SaleItemRequest{{ProductID: laptop.ID, Quantity: 15}}})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrInsufficientStock):
				insufficient++
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, insufficient)
	p, err := postgres.NewProductRepository(pool).GetByID(ctx, laptop.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Quantity)

	list, err := uc.List(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Len(t, list[0].Items, 1)
	assert.Equal(t, "Laptop", list[0].Items[0].ProductName)
	assert.Equal(t, "14999.85", list[0].TotalAmount.StringFixed(2))
}

func TestCreateSale_IDEnMayusculasEnPostgres(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	repo := postgres.NewProductRepository(pool)
	mouse := createProduct(t, repo, "Mouse", "29.99", 50)

	uc := sales.NewSaleUseCase(postgres.NewTxRunner(pool), postgres.NewSaleRepository(pool), nil)
	out, err := uc.CreateSale(ctx, "", dto.CreateSaleRequest{Items: []dto.SaleItemRequest{
		{ProductID: strings.ToUpper(mouse.ID), Quantity: 1},
	}})
	require.NoError(t, err)
	assert.Equal(t, mouse.ID, out.Items[0].ProductID)

	p, err := repo.GetByID(ctx, mouse.ID)
	require.NoError(t, err)
	assert.Equal(t, 49, p.Quantity)
}

func TestCreateSale_RollbackEnPostgres(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	repo := postgres.NewProductRepository(pool)
	cable := createProduct(t, repo, "USB Cable", "9.99", 100)
	monitor := createProduct(t, repo, "Monitor", "299.99", 20)

	uc := sales.NewSaleUseCase(postgres.NewTxRunner(pool), postgres.NewSaleRepository(pool), nil)
	_, err := uc.CreateSale(ctx, "", dto.CreateSaleRequest{Items: []dto.SaleItemRequest{
		{ProductID: cable.ID, Quantity: 10},
		{ProductID: monitor.ID, Quantity: 21},
	}})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	c, err := repo.GetByID(ctx, cable.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, c.Quantity)
	list, err := uc.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}
