// Package seed carga datos iniciales: administrador de primer arranque,
// catálogo de demostración e importación de productos desde CSV.
package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/storemax-api/internal/domain/entity"
	"github.com/jhoicas/storemax-api/internal/domain/repository"
	"github.com/jhoicas/storemax-api/pkg/logger"
)

// AdminEnsurer crea el administrador si no hay usuarios.
type AdminEnsurer interface {
	EnsureAdmin(ctx context.Context, name, email, password string) (bool, error)
}

// Config datos de arranque.
type Config struct {
	AdminName     string
	AdminEmail    string
	AdminPassword string
	DemoCatalog   bool
}

type demoProduct struct {
	name, price, description, category string
	quantity                           int
}

var demoCatalog = []demoProduct{
	{"Laptop", "999.99", "High-performance laptop", "Electronics", 15},
	{"Mouse", "29.99", "Wireless mouse", "Accessories", 50},
	{"Keyboard", "79.99", "Mechanical keyboard", "Accessories", 30},
	{"Monitor", "299.99", "27-inch 4K Monitor", "Electronics", 20},
	{"USB Cable", "9.99", "USB 3.0 Cable", "Accessories", 100},
}

var demoCategories = []entity.Category{
	{Name: "Electronics", Description: "Equipos electrónicos"},
	{Name: "Accessories", Description: "Accesorios y periféricos"},
}

// Seeder aplica los datos iniciales. Es idempotente: sólo inserta en tablas vacías.
type Seeder struct {
	admin        AdminEnsurer
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	cfg          Config
	log          *logger.Logger
}

// NewSeeder construye el seeder.
func NewSeeder(admin AdminEnsurer, productRepo repository.ProductRepository, categoryRepo repository.CategoryRepository, cfg Config, log *logger.Logger) *Seeder {
	if log == nil {
		log = logger.Nop()
	}
	return &Seeder{admin: admin, productRepo: productRepo, categoryRepo: categoryRepo, cfg: cfg, log: log}
}

// Run crea el admin inicial y, si está habilitado, el catálogo de demostración.
func (s *Seeder) Run(ctx context.Context) error {
	if s.admin != nil {
		created, err := s.admin.EnsureAdmin(ctx, s.cfg.AdminName, s.cfg.AdminEmail, s.cfg.AdminPassword)
		if err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		if created {
			s.log.Info().Str("email", s.cfg.AdminEmail).Msg("administrador inicial creado")
		}
	}
	if !s.cfg.DemoCatalog {
		return nil
	}
	if err := s.seedCategories(ctx); err != nil {
		return err
	}
	n, err := s.productRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("seed productos: %w", err)
	}
	if n > 0 {
		return nil
	}
	now := time.Now()
	for _, d := range demoCatalog {
		p := &entity.Product{
			ID:          uuid.New().String(),
			Name:        d.name,
			Price:       decimal.RequireFromString(d.price),
			Quantity:    d.quantity,
			Description: d.description,
			Category:    d.category,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.productRepo.Create(ctx, p); err != nil {
			return fmt.Errorf("seed producto %s: %w", d.name, err)
		}
	}
	s.log.Info().Int("productos", len(demoCatalog)).Msg("catálogo de ejemplo insertado")
	return nil
}

func (s *Seeder) seedCategories(ctx context.Context) error {
	now := time.Now()
	for _, c := range demoCategories {
		existing, err := s.categoryRepo.GetByName(ctx, c.Name)
		if err != nil {
			return fmt.Errorf("seed categorías: %w", err)
		}
		if existing != nil {
			continue
		}
		cat := c
		cat.ID = uuid.New().String()
		cat.CreatedAt, cat.UpdatedAt = now, now
		if err := s.categoryRepo.Create(ctx, &cat); err != nil {
			return fmt.Errorf("seed categoría %s: %w", c.Name, err)
		}
	}
	return nil
}

// ImportResult resumen de una importación CSV.
type ImportResult struct {
	Imported int
	Skipped  []string
}

// ImportCSV carga productos desde un CSV con columnas name,price,quantity,description,category.
// La primera fila se ignora si es encabezado. Las filas inválidas se reportan en Skipped y no detienen la carga.
func (s *Seeder) ImportCSV(ctx context.Context, r io.Reader) (*ImportResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	res := &ImportResult{}
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return res, fmt.Errorf("csv línea %d: %w", line, err)
		}
		if line == 1 && len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "name") {
			continue
		}
		p, err := parseRow(rec)
		if err != nil {
			res.Skipped = append(res.Skipped, fmt.Sprintf("línea %d: %v", line, err))
			continue
		}
		if err := s.productRepo.Create(ctx, p); err != nil {
			return res, fmt.Errorf("csv línea %d: %w", line, err)
		}
		res.Imported++
	}
	s.log.Info().Int("importados", res.Imported).Int("omitidos", len(res.Skipped)).Msg("importación CSV")
	return res, nil
}

func parseRow(rec []string) (*entity.Product, error) {
	if len(rec) < 3 {
		return nil, errors.New("se esperan al menos name,price,quantity")
	}
	field := func(i int) string {
		if i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}
	name := field(0)
	if len([]rune(name)) < 3 {
		return nil, errors.New("name debe tener al menos 3 caracteres")
	}
	price, err := decimal.NewFromString(field(1))
	if err != nil || price.IsNegative() {
		return nil, fmt.Errorf("price inválido %q", field(1))
	}
	qty, err := strconv.Atoi(field(2))
	if err != nil || qty < 0 {
		return nil, fmt.Errorf("quantity inválido %q", field(2))
	}
	now := time.Now()
	return &entity.Product{
		ID:          uuid.New().String(),
		Name:        name,
		Price:       price,
		Quantity:    qty,
		Description: field(3),
		Category:    field(4),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// DecodeReader envuelve r para convertir desde el charset indicado a UTF-8.
// Acepta "utf-8" (sin conversión), "latin1"/"iso-8859-1" y "windows-1252".
func DecodeReader(r io.Reader, charset string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "", "utf-8", "utf8":
		return r, nil
	case "latin1", "iso-8859-1", "iso8859-1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("charset no soportado: %s", charset)
	}
}
