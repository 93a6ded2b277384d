package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/storemax-api/internal/application/dto"
	"github.com/jhoicas/storemax-api/internal/application/events"
	"github.com/jhoicas/storemax-api/internal/domain"
	"github.com/jhoicas/storemax-api/internal/domain/entity"
	"github.com/jhoicas/storemax-api/internal/domain/repository"
	"github.com/jhoicas/storemax-api/pkg/logger"
)

// ProductUseCase casos de uso CRUD para productos. Cada mutación confirmada se publica al canal en vivo.
type ProductUseCase struct {
	repo      repository.ProductRepository
	publisher events.Publisher
	log       *logger.Logger
}

// NewProductUseCase construye el caso de uso. publisher y log pueden ser nil.
func NewProductUseCase(repo repository.ProductRepository, publisher events.Publisher, log *logger.Logger) *ProductUseCase {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ProductUseCase{repo: repo, publisher: publisher, log: log}
}

// Create crea un nuevo producto.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if in.Price == nil {
		return nil, domain.NewValidationError("price", "es obligatorio")
	}
	if in.Quantity == nil {
		return nil, domain.NewValidationError("quantity", "es obligatorio")
	}
	name, err := normalizeName(in.Name, productNameMin)
	if err != nil {
		return nil, err
	}
	if err := validatePrice(*in.Price); err != nil {
		return nil, err
	}
	if *in.Quantity < 0 {
		return nil, domain.NewValidationError("quantity", "debe ser >= 0")
	}
	now := time.Now()
	product := &entity.Product{
		ID:          uuid.New().String(),
		Name:        name,
		Price:       *in.Price,
		Quantity:    *in.Quantity,
		Description: in.Description,
		Category:    strings.TrimSpace(in.Category),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	out := toProductResponse(product)
	uc.publish(ctx, events.ProductAdded, out)
	return out, nil
}

// GetByID obtiene un producto por ID. NotFoundError si no existe.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, &domain.NotFoundError{Resource: "producto", ID: id}
	}
	return toProductResponse(product), nil
}

// List lista productos con filtros opcionales por nombre y categoría.
func (uc *ProductUseCase) List(ctx context.Context, filter repository.ProductFilter) ([]dto.ProductResponse, error) {
	list, err := uc.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return items, nil
}

// Update actualización parcial: sólo se aplican los campos presentes (quantity 0 incluido).
// El stock sólo se escribe si viene en la petición; un cambio de nombre o precio
// concurrente con una venta no pisa el descuento de esa venta.
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, &domain.NotFoundError{Resource: "producto", ID: id}
	}
	if in.Name != nil {
		name, err := normalizeName(*in.Name, productNameMin)
		if err != nil {
			return nil, err
		}
		product.Name = name
	}
	if in.Price != nil {
		if err := validatePrice(*in.Price); err != nil {
			return nil, err
		}
		product.Price = *in.Price
	}
	if in.Quantity != nil && *in.Quantity < 0 {
		return nil, domain.NewValidationError("quantity", "debe ser >= 0")
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.Category != nil {
		product.Category = strings.TrimSpace(*in.Category)
	}

	if in.Quantity != nil {
		if err := uc.repo.UpdateQuantity(ctx, id, *in.Quantity); err != nil {
			return nil, err
		}
	}
	product.UpdatedAt = time.Now()
	// Update refresca product.Quantity con el valor almacenado.
	if err := uc.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	out := toProductResponse(product)
	uc.publish(ctx, events.ProductUpdated, out)
	return out, nil
}

// Delete elimina un producto. Las ventas previas conservan su snapshot.
func (uc *ProductUseCase) Delete(ctx context.Context, id string) error {
	ok, err := uc.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return &domain.NotFoundError{Resource: "producto", ID: id}
	}
	uc.publish(ctx, events.ProductDeleted, events.Deleted{ID: id})
	return nil
}

func (uc *ProductUseCase) publish(ctx context.Context, event string, payload any) {
	if err := uc.publisher.Publish(ctx, event, payload); err != nil {
		uc.log.Warn().Err(err).Str("event", event).Msg("no se pudo publicar evento")
	}
}

const (
	productNameMin  = 3
	categoryNameMin = 3
)

// normalizeName recorta espacios y exige la longitud mínima sobre el valor recortado.
func normalizeName(raw string, minLen int) (string, error) {
	name := strings.TrimSpace(raw)
	if utf8.RuneCountInString(name) < minLen {
		return "", domain.NewValidationError("name", fmt.Sprintf("debe tener al menos %d caracteres", minLen))
	}
	return name, nil
}

func validatePrice(p decimal.Decimal) error {
	if p.IsNegative() {
		return domain.NewValidationError("price", "debe ser >= 0")
	}
	return nil
}

// ToProductResponse mapea la entidad a su DTO de salida.
func ToProductResponse(p *entity.Product) *dto.ProductResponse {
	return toProductResponse(p)
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Quantity:    p.Quantity,
		Description: p.Description,
		Category:    p.Category,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
