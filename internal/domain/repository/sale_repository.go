package repository

import (
	"context"

	"github.com/jhoicas/storemax-api/internal/domain/entity"
)

// SaleRepository persistencia del libro de ventas. Sólo inserta y consulta: una venta nunca se modifica.
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale) error
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Sale, error)
}
