package http

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jhoicas/storemax-api/internal/application/auth"
	"github.com/jhoicas/storemax-api/internal/application/sales"
	"github.com/jhoicas/storemax-api/internal/application/usecase"
	"github.com/jhoicas/storemax-api/internal/infrastructure/realtime"
	"github.com/jhoicas/storemax-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC     *auth.AuthUseCase
	ProductUC  *usecase.ProductUseCase
	CategoryUC *usecase.CategoryUseCase
	SaleUC     *sales.SaleUseCase
	Hub        *realtime.Hub
	JWTSecret  string
	Errors     *ErrorResponder
	Logger     *logger.Logger

	// Opcionales
	ServiceName    string
	Health         func() error // nil = siempre ok
	MetricsHandler http.Handler // nil = /metrics deshabilitado
	OpenAPI        func() string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	errs := deps.Errors
	if errs == nil {
		errs = NewErrorResponder(false, deps.Logger)
	}
	authMW := AuthMiddleware(deps.JWTSecret)

	app.Get("/health", func(c *fiber.Ctx) error {
		if deps.Health != nil {
			if err := deps.Health(); err != nil {
				body := fiber.Map{"status": "degraded", "service": deps.ServiceName}
				if errs.debug {
					body["details"] = err.Error()
				}
				if deps.Logger != nil {
					deps.Logger.Warn().Err(err).Msg("health: dependencia no disponible")
				}
				return c.Status(fiber.StatusServiceUnavailable).JSON(body)
			}
		}
		return c.JSON(fiber.Map{"status": "ok", "service": deps.ServiceName})
	})
	if deps.MetricsHandler != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.MetricsHandler))
	}
	if deps.OpenAPI != nil {
		app.Get("/openapi.json", func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
			return c.SendString(deps.OpenAPI())
		})
	}

	api := app.Group("/api")

	// Auth
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC, errs)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Get("/profile", authMW, authHandler.Profile)
	authGroup.Put("/profile", authMW, authHandler.UpdateProfile)
	authGroup.Get("/users", authMW, RequireAdmin(), authHandler.ListUsers)

	// Products (lectura pública, escritura admin)
	products := api.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC, errs)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Post("/", authMW, RequireAdmin(), productHandler.Create)
	products.Put("/:id", authMW, RequireAdmin(), productHandler.Update)
	products.Delete("/:id", authMW, RequireAdmin(), productHandler.Delete)

	// Categories (lectura pública, escritura admin)
	categories := api.Group("/categories")
	categoryHandler := NewCategoryHandler(deps.CategoryUC, errs)
	categories.Get("/", categoryHandler.List)
	categories.Get("/:id", categoryHandler.GetByID)
	categories.Post("/", authMW, RequireAdmin(), categoryHandler.Create)
	categories.Put("/:id", authMW, RequireAdmin(), categoryHandler.Update)
	categories.Delete("/:id", authMW, RequireAdmin(), categoryHandler.Delete)

	// Sales (cualquier usuario autenticado)
	salesGroup := api.Group("/sales", authMW)
	saleHandler := NewSaleHandler(deps.SaleUC, errs)
	salesGroup.Post("/", saleHandler.Create)
	salesGroup.Get("/", saleHandler.List)
	salesGroup.Get("/:id", saleHandler.GetByID)
	salesGroup.Get("/:id/receipt", saleHandler.Receipt)

	// Canal en vivo
	if deps.Hub != nil {
		rt := NewRealtimeHandler(deps.Hub, deps.ProductUC, deps.SaleUC, deps.Logger)
		app.Get("/ws", rt.Upgrade, authMW, rt.Handler())
	}
}
