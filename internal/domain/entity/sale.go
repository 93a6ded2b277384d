package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale es un registro inmutable del libro de ventas: se crea una vez y nunca se actualiza ni elimina.
type Sale struct {
	ID          string
	Items       []SaleItem // en el orden recibido
	TotalAmount decimal.Decimal
	SoldBy      string // ID del usuario que registró la venta
	Timestamp   time.Time
}

// SaleItem línea de venta con snapshot de nombre y precio al momento de vender.
type SaleItem struct {
	ProductID   string
	ProductName string
	Quantity    int
	Price       decimal.Decimal
	Subtotal    decimal.Decimal
}
