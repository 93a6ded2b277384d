package seed_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/storemax-api/internal/application/auth"
	"github.com/jhoicas/storemax-api/internal/application/seed"
	"github.com/jhoicas/storemax-api/internal/domain/repository"
	"github.com/jhoicas/storemax-api/internal/testutil/memstore"
)

func newSeeder(store *memstore.Store, demo bool) *seed.Seeder {
	authUC := auth.NewAuthUseCase(store.Users(), auth.JWTConfig{Secret: "s", ExpMinutes: 60}).WithHashCost(bcrypt.MinCost)
	return seed.NewSeeder(authUC, store.Products(), store.Categories(), seed.Config{
		AdminName:     "Administrador",
		AdminEmail:    "admin@storemax.local",
		AdminPassword: "admin123",
		DemoCatalog:   demo,
	}, nil)
}

func TestRun_CatalogoDemoIdempotente(t *testing.T) {
	store := memstore.New()
	s := newSeeder(store, true)
	ctx := context.Background()

	require.NoError(t, s.Run(ctx))
	require.NoError(t, s.Run(ctx))

	products, err := store.Products().List(ctx, repository.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, products, 5)

	mouse, err := store.Products().List(ctx, repository.ProductFilter{Query: "mouse"})
	require.NoError(t, err)
	require.Len(t, mouse, 1)
	assert.Equal(t, "29.99", mouse[0].Price.StringFixed(2))
	assert.Equal(t, 50, mouse[0].Quantity)

	cats, err := store.Categories().List(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 2)

	n, err := store.Users().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRun_SinCatalogo(t *testing.T) {
	store := memstore.New()
	require.NoError(t, newSeeder(store, false).Run(context.Background()))
	n, err := store.Products().Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestImportCSV(t *testing.T) {
	store := memstore.New()
	s := newSeeder(store, false)
	ctx := context.Background()

	csv := "name,price,quantity,description,category\n" +
		"Webcam,49.90,12,Full HD,Accessories\n" +
		"X,1,1,,\n" +
		"Parlante,abc,3,,Audio\n" +
		"Audífonos,19.5,40\n"
	res, err := s.ImportCSV(ctx, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Len(t, res.Skipped, 2)

	list, err := store.Products().List(ctx, repository.ProductFilter{Query: "webcam"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 12, list[0].Quantity)
	assert.Equal(t, "Accessories", list[0].Category)
}

func TestDecodeReader_Latin1(t *testing.T) {
	// "Café" en ISO-8859-1
	raw := []byte{'C', 'a', 'f', 0xE9}
	r, err := seed.DecodeReader(bytes.NewReader(raw), "latin1")
	require.NoError(t, err)
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "Café", string(out))

	_, err = seed.DecodeReader(bytes.NewReader(raw), "ebcdic")
	assert.Error(t, err)
}
