package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/swaggo/swag"
	"golang.org/x/text/language"

	"github.com/jhoicas/storemax-api/docs"
	"github.com/jhoicas/storemax-api/internal/application/auth"
	"github.com/jhoicas/storemax-api/internal/application/events"
	"github.com/jhoicas/storemax-api/internal/application/sales"
	"github.com/jhoicas/storemax-api/internal/application/seed"
	"github.com/jhoicas/storemax-api/internal/application/usecase"
	"github.com/jhoicas/storemax-api/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/storemax-api/internal/infrastructure/pdf"
	"github.com/jhoicas/storemax-api/internal/infrastructure/postgres"
	"github.com/jhoicas/storemax-api/internal/infrastructure/realtime"
	httpRouter "github.com/jhoicas/storemax-api/internal/interfaces/http"
	"github.com/jhoicas/storemax-api/pkg/config"
	"github.com/jhoicas/storemax-api/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if cfg.DB.Migrate {
		if err := postgres.Migrate(ctx, pool, log.Component("migrate")); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
	}

	userRepo := postgres.NewUserRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	saleRepo := postgres.NewSaleRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	seeder := seed.NewSeeder(authUC, productRepo, categoryRepo, seed.Config{
		AdminName:     cfg.Seed.AdminName,
		AdminEmail:    cfg.Seed.AdminEmail,
		AdminPassword: cfg.Seed.AdminPassword,
		DemoCatalog:   cfg.Seed.DemoCatalog,
	}, log.Component("seed"))
	if err := seeder.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("datos iniciales")
	}

	// Canal en vivo: hub local y, si hay broker, réplica entre instancias.
	m := metrics.New()
	hub := realtime.NewHub(cfg.Realtime.Buffer, log.Component("hub")).WithGauge(m.Subscribers())
	var publisher events.Publisher = hub
	if cfg.Realtime.RabbitURL != "" {
		relay, err := realtime.NewAMQPRelay(cfg.Realtime.RabbitURL, cfg.Realtime.Exchange, hub, log.Component("amqp"))
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a RabbitMQ")
		}
		defer relay.Close()
		go func() {
			if err := relay.Run(ctx); err != nil {
				log.Error().Err(err).Msg("relay de eventos detenido")
			}
		}()
		publisher = relay
		log.Info().Str("exchange", cfg.Realtime.Exchange).Msg("eventos replicados vía RabbitMQ")
	}

	receipts := infrapdf.NewReceiptGenerator(language.Make(cfg.App.ReceiptLocale))
	productUC := usecase.NewProductUseCase(productRepo, publisher, log.Component("products"))
	categoryUC := usecase.NewCategoryUseCase(categoryRepo)
	saleUC := sales.NewSaleUseCase(txRunner, saleRepo, publisher,
		sales.WithReceipts(receipts, cfg.App.StoreName),
		sales.WithRecorder(m),
		sales.WithLogger(log.Component("sales")),
	)

	errs := httpRouter.NewErrorResponder(!cfg.App.IsProduction(), log)
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: errs.FiberErrorHandler,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(splitOrigins(cfg.HTTP.CORSOrigins), ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))
	app.Use(logger.FiberMiddleware(log))

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    docs.SwaggerInfo.Title,
		}))
	} else {
		log.Warn().Str("file", swaggerFile).Msg("swagger UI deshabilitado: archivo no encontrado")
	}

	deps := httpRouter.RouterDeps{
		AuthUC:      authUC,
		ProductUC:   productUC,
		CategoryUC:  categoryUC,
		SaleUC:      saleUC,
		Hub:         hub,
		JWTSecret:   cfg.JWT.Secret,
		Errors:      errs,
		Logger:      log,
		ServiceName: cfg.App.Name,
		Health: func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Ping(pingCtx)
		},
		OpenAPI: func() string {
			doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
			if err != nil {
				return "{}"
			}
			return doc
		},
	}
	if cfg.Metrics.Enabled {
		deps.MetricsHandler = m.Handler()
	}
	httpRouter.Router(app, deps)

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
