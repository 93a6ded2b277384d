package repository

import (
	"context"

	"github.com/jhoicas/storemax-api/internal/domain/entity"
)

// ProductFilter filtros opcionales para listar productos.
type ProductFilter struct {
	Query    string // coincidencia parcial sobre el nombre
	Category string
}

// ProductRepository define el puerto de persistencia para Product (DIP).
// Los métodos que devuelven un *entity.Product devuelven (nil, nil) si no existe.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// GetForUpdate bloquea la fila hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*entity.Product, error)
	Count(ctx context.Context) (int, error)
	// Update escribe nombre, precio, descripción y categoría; nunca el stock.
	// Al volver, product.Quantity refleja el stock almacenado.
	Update(ctx context.Context, product *entity.Product) error
	UpdateQuantity(ctx context.Context, id string, quantity int) error
	Delete(ctx context.Context, id string) (bool, error)
}
