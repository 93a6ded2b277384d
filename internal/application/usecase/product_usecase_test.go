package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/storemax-api/internal/application/dto"
	"github.com/jhoicas/storemax-api/internal/application/events"
	"github.com/jhoicas/storemax-api/internal/application/sales"
	"github.com/jhoicas/storemax-api/internal/application/usecase"
	"github.com/jhoicas/storemax-api/internal/domain"
	"github.com/jhoicas/storemax-api/internal/domain/entity"
	"github.com/jhoicas/storemax-api/internal/domain/repository"
	"github.com/jhoicas/storemax-api/internal/testutil/memstore"
)

func ptr[T any](v T) *T { return &v }

func newProductUseCase() (*usecase.ProductUseCase, *memstore.EventLog) {
	log := &memstore.EventLog{}
	return usecase.NewProductUseCase(memstore.New().Products(), log, nil), log
}

func TestProduct_CrearYObtener(t *testing.T) {
	uc, log := newProductUseCase()
	ctx := context.Background()

	created, err := uc.Create(ctx, dto.CreateProductRequest{
		Name:        "Mouse",
		Price:       ptr(decimal.RequireFromString("29.99")),
		Quantity:    ptr(50),
		Description: "Wireless mouse",
		Category:    "Accessories",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := uc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mouse", got.Name)
	assert.True(t, decimal.RequireFromString("29.99").Equal(got.Price))
	assert.Equal(t, 50, got.Quantity)
	assert.Equal(t, "Accessories", got.Category)

	assert.Equal(t, []string{events.ProductAdded}, log.Names())
}

func TestProduct_UpdateParcialConservaCampos(t *testing.T) {
	uc, log := newProductUseCase()
	ctx := context.Background()
	created, err := uc.Create(ctx, dto.CreateProductRequest{
		Name: "Keyboard", Price: ptr(decimal.RequireFromString("79.99")), Quantity: ptr(30),
		Description: "Mechanical keyboard", Category: "Accessories",
	})
	require.NoError(t, err)

	out, err := uc.Update(ctx, created.ID, dto.UpdateProductRequest{Price: ptr(decimal.RequireFromString("69.99"))})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("69.99").Equal(out.Price))
	assert.Equal(t, "Keyboard", out.Name)
	assert.Equal(t, 30, out.Quantity)
	assert.Equal(t, "Mechanical keyboard", out.Description)

	// quantity 0 explícito se aplica
	out, err = uc.Update(ctx, created.ID, dto.UpdateProductRequest{Quantity: ptr(0)})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Quantity)
	assert.True(t, decimal.RequireFromString("69.99").Equal(out.Price))

	assert.Equal(t, []string{events.ProductAdded, events.ProductUpdated, events.ProductUpdated}, log.Names())
}

func TestProduct_ValidacionPrecioYCantidad(t *testing.T) {
	uc, log := newProductUseCase()
	ctx := context.Background()

	_, err := uc.Create(ctx, dto.CreateProductRequest{Name: "Roto", Price: ptr(decimal.NewFromInt(-1)), Quantity: ptr(1)})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "price", verr.Field)

	_, err = uc.Create(ctx, dto.CreateProductRequest{Name: "Roto", Price: ptr(decimal.Zero), Quantity: ptr(-3)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	created, err := uc.Create(ctx, dto.CreateProductRequest{Name: "Gratis", Price: ptr(decimal.Zero), Quantity: ptr(0)})
	require.NoError(t, err)
	_, err = uc.Update(ctx, created.ID, dto.UpdateProductRequest{Price: ptr(decimal.RequireFromString("-0.01"))})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.Equal(t, []string{events.ProductAdded}, log.Names())
}

func TestProduct_NoEncontrado(t *testing.T) {
	uc, log := newProductUseCase()
	ctx := context.Background()
	id := "9b2f1c1e-0000-4000-8000-000000000000"

	_, err := uc.GetByID(ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = uc.Update(ctx, id, dto.UpdateProductRequest{Name: ptr("Nuevo nombre")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, uc.Delete(ctx, id), domain.ErrNotFound)
	assert.Empty(t, log.Names())
}

func TestProduct_DeletePublicaID(t *testing.T) {
	uc, log := newProductUseCase()
	ctx := context.Background()
	created, err := uc.Create(ctx, dto.CreateProductRequest{Name: "Monitor", Price: ptr(decimal.RequireFromString("299.99")), Quantity: ptr(20)})
	require.NoError(t, err)

	require.NoError(t, uc.Delete(ctx, created.ID))
	_, err = uc.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	evs := log.Events()
	require.Len(t, evs, 2)
	assert.Equal(t, events.ProductDeleted, evs[1].Name)
	assert.Equal(t, events.Deleted{ID: created.ID}, evs[1].Payload)
}

func TestProduct_FallaDePublicacionNoFallaLaOperacion(t *testing.T) {
	log := &memstore.EventLog{Err: errors.New("broker caído")}
	uc := usecase.NewProductUseCase(memstore.New().Products(), log, nil)

	_, err := uc.Create(context.Background(), dto.CreateProductRequest{Name: "Cable", Price: ptr(decimal.RequireFromString("9.99")), Quantity: ptr(100)})
	assert.NoError(t, err)
	assert.Len(t, log.Names(), 1)
}

func TestProduct_ListFiltros(t *testing.T) {
	uc, _ := newProductUseCase()
	ctx := context.Background()
	for _, in := range []dto.CreateProductRequest{
		{Name: "Laptop", Price: ptr(decimal.RequireFromString("999.99")), Quantity: ptr(15), Category: "Electronics"},
		{Name: "Mouse", Price: ptr(decimal.RequireFromString("29.99")), Quantity: ptr(50), Category: "Accessories"},
		{Name: "USB Cable", Price: ptr(decimal.RequireFromString("9.99")), Quantity: ptr(100), Category: "Accessories"},
	} {
		_, err := uc.Create(ctx, in)
		require.NoError(t, err)
	}

	all, err := uc.List(ctx, repository.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	acc, err := uc.List(ctx, repository.ProductFilter{Category: "accessories"})
	require.NoError(t, err)
	assert.Len(t, acc, 2)

	q, err := uc.List(ctx, repository.ProductFilter{Query: "lap"})
	require.NoError(t, err)
	require.Len(t, q, 1)
	assert.Equal(t, "Laptop", q[0].Name)
}

// saleDuringRead ejecuta onRead justo después de leer el producto, antes de que
// el caso de uso escriba su actualización.
type saleDuringRead struct {
	*memstore.ProductRepo
	onRead func()
}

func (r *saleDuringRead) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	p, err := r.ProductRepo.GetByID(ctx, id)
	if r.onRead != nil {
		fn := r.onRead
		r.onRead = nil
		fn()
	}
	return p, err
}

func TestProduct_UpdateSinCantidadNoPisaVentaConcurrente(t *testing.T) {
	store := memstore.New()
	now := time.Now()
	const mouseID = "22222222-2222-4222-8222-222222222222"
	store.PutProduct(entity.Product{ID: mouseID, Name: "Mouse", Price: decimal.RequireFromString("29.99"), Quantity: 50, CreatedAt: now, UpdatedAt: now})
	ctx := context.Background()

	saleUC := sales.NewSaleUseCase(store.TxRunner(), store.Sales(), nil)
	repo := &saleDuringRead{ProductRepo: store.Products()}
	repo.onRead = func() {
		_, err := saleUC.CreateSale(ctx, "", dto.CreateSaleRequest{Items: []dto.SaleItemRequest{{ProductID: mouseID, Quantity: 50}}})
		require.NoError(t, err)
	}
	uc := usecase.NewProductUseCase(repo, nil, nil)

	out, err := uc.Update(ctx, mouseID, dto.UpdateProductRequest{Name: ptr("Mouse Pro")})
	require.NoError(t, err)
	assert.Equal(t, "Mouse Pro", out.Name)
	assert.Equal(t, 0, out.Quantity)

	assert.Equal(t, 1, store.SaleCount())
	assert.Equal(t, 0, store.Product(mouseID).Quantity)
	assert.Equal(t, "Mouse Pro", store.Product(mouseID).Name)
}

func TestProduct_NombreRecortadoExigeLongitudMinima(t *testing.T) {
	uc, log := newProductUseCase()
	ctx := context.Background()

	_, err := uc.Create(ctx, dto.CreateProductRequest{Name: "   ab   ", Price: ptr(decimal.Zero), Quantity: ptr(1)})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "name", verr.Field)

	created, err := uc.Create(ctx, dto.CreateProductRequest{Name: "  Mouse  ", Price: ptr(decimal.Zero), Quantity: ptr(1)})
	require.NoError(t, err)
	assert.Equal(t, "Mouse", created.Name)

	_, err = uc.Update(ctx, created.ID, dto.UpdateProductRequest{Name: ptr("   ab   ")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	got, err := uc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mouse", got.Name)

	assert.Equal(t, []string{events.ProductAdded}, log.Names())
}
