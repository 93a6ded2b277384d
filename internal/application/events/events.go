// Package events define los nombres de eventos del canal en vivo y el puerto para publicarlos.
package events

import "context"

// Eventos emitidos tras una mutación exitosa.
const (
	ProductAdded     = "product:added"
	ProductUpdated   = "product:updated"
	ProductDeleted   = "product:deleted"
	SaleCompleted    = "sale:completed"
	InventoryUpdated = "inventory:updated"
)

// Eventos de estado completo: snapshot inicial al conectar y respuesta a pedidos de refresco.
const (
	ProductsInit   = "products:init"
	SalesInit      = "sales:init"
	ProductsUpdate = "products:update"
	SalesUpdate    = "sales:update"

	ProductRequestUpdate = "product:request-update"
	SalesRequestUpdate   = "sales:request-update"
)

// Publisher entrega un evento a los suscriptores conectados (best-effort, sin reintentos ni historial).
type Publisher interface {
	Publish(ctx context.Context, event string, payload any) error
}

// NopPublisher descarta los eventos.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }

// Deleted payload de product:deleted.
type Deleted struct {
	ID string `json:"id"`
}
