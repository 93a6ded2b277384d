package http

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/storemax-api/internal/application/dto"
	"github.com/jhoicas/storemax-api/internal/application/events"
	"github.com/jhoicas/storemax-api/internal/application/sales"
	"github.com/jhoicas/storemax-api/internal/application/usecase"
	"github.com/jhoicas/storemax-api/internal/domain/entity"
	"github.com/jhoicas/storemax-api/internal/infrastructure/realtime"
	"github.com/jhoicas/storemax-api/internal/testutil/memstore"
)

func newRealtimeHandler(t *testing.T) *RealtimeHandler {
	t.Helper()
	store := memstore.New()
	now := time.Now()
	store.PutProduct(entity.Product{ID: "22222222-2222-4222-8222-222222222222", Name: "Mouse", Price: decimal.RequireFromString("29.99"), Quantity: 50, CreatedAt: now, UpdatedAt: now})
	hub := realtime.NewHub(4, nil)
	products := usecase.NewProductUseCase(store.Products(), hub, nil)
	salesUC := sales.NewSaleUseCase(store.TxRunner(), store.Sales(), hub)
	return NewRealtimeHandler(hub, products, salesUC, nil)
}

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func TestRealtime_Snapshot(t *testing.T) {
	h := newRealtimeHandler(t)

	raw, err := h.snapshot(context.Background(), events.ProductsInit)
	require.NoError(t, err)
	var f frame
	require.NoError(t, json.Unmarshal(raw, &f))
	assert.Equal(t, events.ProductsInit, f.Event)
	var products []dto.ProductResponse
	require.NoError(t, json.Unmarshal(f.Data, &products))
	require.Len(t, products, 1)
	assert.Equal(t, "Mouse", products[0].Name)

	raw, err = h.snapshot(context.Background(), events.SalesInit)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &f))
	assert.Equal(t, events.SalesInit, f.Event)
	assert.JSONEq(t, `[]`, string(f.Data))
}

func TestRealtime_Reply(t *testing.T) {
	h := newRealtimeHandler(t)

	raw, err := h.reply([]byte(`{"event":"product:request-update"}`))
	require.NoError(t, err)
	var f frame
	require.NoError(t, json.Unmarshal(raw, &f))
	assert.Equal(t, events.ProductsUpdate, f.Event)

	raw, err = h.reply([]byte(`{"event":"sales:request-update"}`))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &f))
	assert.Equal(t, events.SalesUpdate, f.Event)

	// eventos desconocidos se ignoran
	raw, err = h.reply([]byte(`{"event":"ping"}`))
	require.NoError(t, err)
	assert.Nil(t, raw)

	_, err = h.reply([]byte(`no-json`))
	assert.Error(t, err)
}
