package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/storemax-api/internal/application/dto"
	"github.com/jhoicas/storemax-api/internal/application/events"
	"github.com/jhoicas/storemax-api/internal/application/usecase"
	"github.com/jhoicas/storemax-api/internal/domain"
	"github.com/jhoicas/storemax-api/internal/domain/entity"
	"github.com/jhoicas/storemax-api/internal/domain/repository"
	"github.com/jhoicas/storemax-api/internal/domain/sale"
	"github.com/jhoicas/storemax-api/pkg/logger"
)

// Motivos de rechazo usados como etiqueta de métricas.
const (
	RejectInvalid           = "invalid"
	RejectNotFound          = "not_found"
	RejectInsufficientStock = "insufficient_stock"
	RejectError             = "error"
)

// SaleUseCase registra ventas descontando inventario en una sola transacción.
type SaleUseCase struct {
	txRunner  TxRunner
	saleRepo  repository.SaleRepository
	receipts  ReceiptGenerator
	publisher events.Publisher
	recorder  Recorder
	log       *logger.Logger
	storeName string
}

// Option configura dependencias opcionales del caso de uso.
type Option func(*SaleUseCase)

// WithReceipts habilita la generación de comprobantes PDF.
func WithReceipts(g ReceiptGenerator, storeName string) Option {
	return func(uc *SaleUseCase) {
		uc.receipts = g
		uc.storeName = storeName
	}
}

// WithRecorder registra métricas de ventas.
func WithRecorder(r Recorder) Option {
	return func(uc *SaleUseCase) { uc.recorder = r }
}

// WithLogger asigna el logger.
func WithLogger(l *logger.Logger) Option {
	return func(uc *SaleUseCase) { uc.log = l }
}

// NewSaleUseCase construye el caso de uso. saleRepo se usa para las lecturas fuera de transacción.
func NewSaleUseCase(txRunner TxRunner, saleRepo repository.SaleRepository, publisher events.Publisher, opts ...Option) *SaleUseCase {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	uc := &SaleUseCase{
		txRunner:  txRunner,
		saleRepo:  saleRepo,
		publisher: publisher,
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// CreateSale valida las líneas (los IDs se normalizan a su forma canónica), bloquea los productos en orden de ID, verifica stock,
// descuenta cantidades y persiste la venta con snapshot de nombre y precio.
// Si cualquier línea falla se hace rollback: ni el stock ni el libro de ventas cambian.
func (uc *SaleUseCase) CreateSale(ctx context.Context, userID string, in dto.CreateSaleRequest) (*dto.SaleResponse, error) {
	lines, err := toLines(in)
	if err != nil {
		uc.reject(RejectInvalid)
		return nil, err
	}

	var created *entity.Sale
	var updated []*entity.Product
	err = uc.txRunner.Run(ctx, func(productRepo repository.ProductRepository, saleRepo repository.SaleRepository) error {
		// 1) Bloquear filas en orden ascendente de ID
		locked := make(map[string]*entity.Product, len(lines))
		for _, id := range sale.LockOrder(lines) {
			p, err := productRepo.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if p != nil {
				locked[id] = p
			}
		}

		// 2) Validar stock y calcular totales sobre los precios actuales
		plan, err := sale.Plan(lines, locked)
		if err != nil {
			return err
		}

		// 3) Descontar inventario
		now := time.Now()
		updated = updated[:0]
		for _, id := range sale.LockOrder(lines) {
			p := *locked[id]
			qty, ok := plan.NewQuantities[p.ID]
			if !ok {
				return fmt.Errorf("producto %s sin cantidad planificada", p.ID)
			}
			if err := productRepo.UpdateQuantity(ctx, p.ID, qty); err != nil {
				return err
			}
			p.Quantity = qty
			p.UpdatedAt = now
			updated = append(updated, &p)
		}

		// 4) Asiento en el libro de ventas
		s := &entity.Sale{
			ID:          uuid.New().String(),
			Items:       plan.Items,
			TotalAmount: plan.TotalAmount,
			SoldBy:      userID,
			Timestamp:   now,
		}
		if err := saleRepo.Create(ctx, s); err != nil {
			return err
		}
		created = s
		return nil
	})
	if err != nil {
		uc.reject(rejectReason(err))
		return nil, err
	}

	if uc.recorder != nil {
		uc.recorder.SaleCompleted(created)
	}
	out := ToSaleResponse(created)
	uc.publish(ctx, events.SaleCompleted, out)
	products := make([]dto.ProductResponse, 0, len(updated))
	for _, p := range updated {
		products = append(products, *usecase.ToProductResponse(p))
	}
	uc.publish(ctx, events.InventoryUpdated, products)

	uc.log.Info().
		Str("sale_id", created.ID).
		Str("total", created.TotalAmount.StringFixed(2)).
		Int("items", len(created.Items)).
		Msg("venta registrada")
	return out, nil
}

// GetByID obtiene una venta.
func (uc *SaleUseCase) GetByID(ctx context.Context, id string) (*dto.SaleResponse, error) {
	s, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToSaleResponse(s), nil
}

// List ventas más recientes primero. limit <= 0 devuelve todas.
func (uc *SaleUseCase) List(ctx context.Context, limit, offset int) ([]dto.SaleResponse, error) {
	if offset < 0 {
		offset = 0
	}
	list, err := uc.saleRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SaleResponse, 0, len(list))
	for _, s := range list {
		out = append(out, *ToSaleResponse(s))
	}
	return out, nil
}

// Receipt genera el comprobante PDF de una venta.
func (uc *SaleUseCase) Receipt(ctx context.Context, id string) ([]byte, error) {
	if uc.receipts == nil {
		return nil, errors.New("generador de comprobantes no configurado")
	}
	s, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return uc.receipts.GenerateSaleReceipt(ctx, s, uc.storeName)
}

func (uc *SaleUseCase) get(ctx context.Context, id string) (*entity.Sale, error) {
	s, err := uc.saleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, &domain.NotFoundError{Resource: "venta", ID: id}
	}
	return s, nil
}

func (uc *SaleUseCase) publish(ctx context.Context, event string, payload any) {
	if err := uc.publisher.Publish(ctx, event, payload); err != nil {
		uc.log.Warn().Err(err).Str("event", event).Msg("no se pudo publicar evento")
	}
}

func (uc *SaleUseCase) reject(reason string) {
	if uc.recorder != nil {
		uc.recorder.SaleRejected(reason)
	}
}

func toLines(in dto.CreateSaleRequest) ([]sale.LineRequest, error) {
	if len(in.Items) == 0 {
		return nil, domain.NewValidationError("items", "la venta debe tener al menos un ítem")
	}
	lines := make([]sale.LineRequest, 0, len(in.Items))
	for _, it := range in.Items {
		id, err := uuid.Parse(it.ProductID)
		if err != nil {
			return nil, domain.NewValidationError("productId", "debe ser un UUID")
		}
		if it.Quantity <= 0 {
			return nil, domain.NewValidationError("quantity", "debe ser un entero positivo")
		}
		lines = append(lines, sale.LineRequest{ProductID: id.String(), Quantity: it.Quantity})
	}
	return lines, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		return RejectInsufficientStock
	case errors.Is(err, domain.ErrNotFound):
		return RejectNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		return RejectInvalid
	default:
		return RejectError
	}
}

// ToSaleResponse mapea la entidad a su DTO de salida.
func ToSaleResponse(s *entity.Sale) *dto.SaleResponse {
	if s == nil {
		return nil
	}
	items := make([]dto.SaleItemResponse, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, dto.SaleItemResponse{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Price:       it.Price,
			Subtotal:    it.Subtotal,
		})
	}
	return &dto.SaleResponse{
		ID:          s.ID,
		Items:       items,
		TotalAmount: s.TotalAmount,
		SoldBy:      s.SoldBy,
		Timestamp:   s.Timestamp,
	}
}
