// Package sale contiene la lógica pura de una venta: validación de stock,
// snapshot de precios y cálculo del total. No conoce la base de datos; el caso
// de uso le entrega los productos ya bloqueados dentro de la transacción.
package sale

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/storemax-api/internal/domain"
	"github.com/jhoicas/storemax-api/internal/domain/entity"
)

// LineRequest línea solicitada por el cliente.
type LineRequest struct {
	ProductID string
	Quantity  int
}

// Result venta calculada lista para persistir.
type Result struct {
	Items       []entity.SaleItem
	TotalAmount decimal.Decimal
	// NewQuantities stock final por producto tocado.
	NewQuantities map[string]int
}

// LockOrder devuelve los IDs de producto sin repetir y en orden ascendente.
// Todas las transacciones bloquean en este orden para no producir deadlocks entre ventas concurrentes.
func LockOrder(lines []LineRequest) []string {
	seen := make(map[string]struct{}, len(lines))
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}
	sort.Strings(ids)
	return ids
}

// Plan recorre las líneas en el orden recibido contra los productos bloqueados.
// Un producto repetido en varias líneas descuenta de un stock acumulado.
// Devuelve el primer error (NotFoundError o InsufficientStockError); en ese caso no hay resultado parcial.
func Plan(lines []LineRequest, products map[string]*entity.Product) (*Result, error) {
	if len(lines) == 0 {
		return nil, domain.NewValidationError("items", "la venta debe tener al menos un ítem")
	}

	remaining := make(map[string]int, len(products))
	res := &Result{
		Items:         make([]entity.SaleItem, 0, len(lines)),
		TotalAmount:   decimal.Zero,
		NewQuantities: make(map[string]int),
	}

	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, domain.NewValidationError("quantity", "debe ser un entero positivo")
		}
		p, ok := products[l.ProductID]
		if !ok || p == nil {
			return nil, &domain.NotFoundError{Resource: "producto", ID: l.ProductID}
		}
		available, seen := remaining[p.ID]
		if !seen {
			available = p.Quantity
		}
		if available < l.Quantity {
			return nil, &domain.InsufficientStockError{
				ProductID:   p.ID,
				ProductName: p.Name,
				Requested:   l.Quantity,
				Available:   available,
			}
		}
		remaining[p.ID] = available - l.Quantity
		res.NewQuantities[p.ID] = available - l.Quantity

		subtotal := p.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		res.TotalAmount = res.TotalAmount.Add(subtotal)
		res.Items = append(res.Items, entity.SaleItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    l.Quantity,
			Price:       p.Price,
			Subtotal:    subtotal,
		})
	}
	return res, nil
}
