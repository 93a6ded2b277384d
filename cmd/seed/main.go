// seed aplica migraciones, crea el administrador inicial y carga el catálogo.
//
// Uso:
//
//	go run ./cmd/seed                          # admin + catálogo demo (si la tabla está vacía)
//	go run ./cmd/seed -csv productos.csv       # importa productos desde CSV
//	go run ./cmd/seed -csv p.csv -charset latin1
//
// El CSV lleva columnas name,price,quantity,description,category; el encabezado es opcional.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jhoicas/storemax-api/internal/application/auth"
	"github.com/jhoicas/storemax-api/internal/application/seed"
	"github.com/jhoicas/storemax-api/internal/infrastructure/postgres"
	"github.com/jhoicas/storemax-api/pkg/config"
	"github.com/jhoicas/storemax-api/pkg/logger"
)

func main() {
	csvPath := flag.String("csv", "", "archivo CSV de productos a importar")
	charset := flag.String("charset", "utf-8", "codificación del CSV: utf-8, latin1, windows-1252")
	noDemo := flag.Bool("no-demo", false, "no insertar el catálogo de demostración")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cargar configuración:", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool, log.Component("migrate")); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}

	authUC := auth.NewAuthUseCase(postgres.NewUserRepository(pool), auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	seeder := seed.NewSeeder(authUC, postgres.NewProductRepository(pool), postgres.NewCategoryRepository(pool), seed.Config{
		AdminName:     cfg.Seed.AdminName,
		AdminEmail:    cfg.Seed.AdminEmail,
		AdminPassword: cfg.Seed.AdminPassword,
		DemoCatalog:   cfg.Seed.DemoCatalog && !*noDemo && *csvPath == "",
	}, log)

	if err := seeder.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("datos iniciales")
	}
	if *csvPath == "" {
		return
	}

	f, err := os.Open(*csvPath)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir CSV")
	}
	defer f.Close()
	r, err := seed.DecodeReader(f, *charset)
	if err != nil {
		log.Fatal().Err(err).Msg("charset")
	}
	res, err := seeder.ImportCSV(ctx, r)
	if err != nil {
		log.Fatal().Err(err).Int("importados", res.Imported).Msg("importación CSV")
	}
	for _, s := range res.Skipped {
		log.Warn().Msg(s)
	}
	fmt.Printf("✓ %d productos importados, %d filas omitidas\n", res.Imported, len(res.Skipped))
}
