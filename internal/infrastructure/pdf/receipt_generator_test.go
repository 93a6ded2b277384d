package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/jhoicas/storemax-api/internal/domain/entity"
)

func TestMoney(t *testing.T) {
	g := NewReceiptGenerator(language.AmericanEnglish)
	assert.Equal(t, "$14,999.85", g.Money(decimal.RequireFromString("14999.85")))
	assert.Equal(t, "$9.99", g.Money(decimal.RequireFromString("9.99")))
	assert.Equal(t, "$0.00", g.Money(decimal.Zero))
}

func TestGenerateSaleReceipt(t *testing.T) {
	g := NewReceiptGenerator(language.AmericanEnglish)
	sale := &entity.Sale{
		ID: "0b0e7d7e-3f55-4c1a-9a43-5f6f1d2a9c11",
		Items: []entity.SaleItem{{
			ProductID:   "22222222-2222-4222-8222-222222222222",
			ProductName: "Mouse",
			Quantity:    50,
			Price:       decimal.RequireFromString("29.99"),
			Subtotal:    decimal.RequireFromString("1499.50"),
		}},
		TotalAmount: decimal.RequireFromString("1499.50"),
		Timestamp:   time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
	}

	doc, err := g.GenerateSaleReceipt(context.Background(), sale, "StoreMax")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))

	_, err = g.GenerateSaleReceipt(context.Background(), nil, "StoreMax")
	assert.Error(t, err)
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "0b0e7d7e", shortID("0b0e7d7e-3f55-4c1a-9a43-5f6f1d2a9c11"))
	assert.Equal(t, "abc", shortID("abc"))
}
