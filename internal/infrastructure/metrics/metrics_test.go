package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/storemax-api/internal/domain/entity"
)

func TestMetrics_Ventas(t *testing.T) {
	m := New()
	m.SaleCompleted(&entity.Sale{TotalAmount: decimal.RequireFromString("1499.50")})
	m.SaleCompleted(&entity.Sale{TotalAmount: decimal.RequireFromString("0.50")})
	m.SaleRejected("insufficient_stock")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.salesCompleted))
	assert.Equal(t, 1500.0, testutil.ToFloat64(m.saleAmount))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.salesRejected.WithLabelValues("insufficient_stock")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.Subscribers().Set(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "storemax_realtime_subscribers 3"))
}
