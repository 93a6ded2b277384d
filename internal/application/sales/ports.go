package sales

import (
	"context"

	"github.com/jhoicas/storemax-api/internal/domain/entity"
	"github.com/jhoicas/storemax-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback y ningún cambio queda visible.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		productRepo repository.ProductRepository,
		saleRepo repository.SaleRepository,
	) error) error
}

// ReceiptGenerator genera el comprobante imprimible (PDF) de una venta.
type ReceiptGenerator interface {
	GenerateSaleReceipt(ctx context.Context, sale *entity.Sale, storeName string) ([]byte, error)
}

// Recorder registra métricas de ventas. Puede ser nil.
type Recorder interface {
	SaleCompleted(sale *entity.Sale)
	SaleRejected(reason string)
}
