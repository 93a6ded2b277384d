package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo.
// Quantity es el stock disponible y nunca es negativo; sólo lo decrementa una venta.
// Category es una etiqueta desnormalizada, sin clave foránea hacia categories.
type Product struct {
	ID          string
	Name        string
	Price       decimal.Decimal // precio de venta, >= 0
	Quantity    int
	Description string
	Category    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
