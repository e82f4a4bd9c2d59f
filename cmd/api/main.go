package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"

	"github.com/docufact/docufact-api/internal/application/numbering"
	"github.com/docufact/docufact-api/internal/application/pricing"
	"github.com/docufact/docufact-api/internal/infrastructure/catalog"
	"github.com/docufact/docufact-api/internal/infrastructure/policycache"
	"github.com/docufact/docufact-api/internal/infrastructure/postgres"
	httpRouter "github.com/docufact/docufact-api/internal/interfaces/http"
	"github.com/docufact/docufact-api/pkg/config"
	"github.com/docufact/docufact-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	seqRepo := postgres.NewSequenceRepository(pool)
	policyRepo := policycache.New(postgres.NewPolicyRepository(pool), cfg.Numbering.PolicyTTL)
	maintLock := postgres.NewAdvisoryMaintenanceLock(pool)
	authority := numbering.NewAuthority(seqRepo, policyRepo, maintLock, log, cfg.Numbering.MaxAttempts)

	allowedRates, err := parseRates(cfg.Pricing.TaxRates)
	if err != nil {
		log.Fatal().Err(err).Msg("tasas de IVA configuradas")
	}
	defaultRate, err := decimal.NewFromString(cfg.Catalog.DefaultTaxRate)
	if err != nil {
		log.Fatal().Err(err).Msg("tasa de IVA por defecto configurada")
	}

	catalogClient := catalog.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.RequestTimeout)
	sourcer := pricing.NewSourcer(catalogClient, defaultRate, cfg.Catalog.ItemTimeout, log)
	aggregator := pricing.NewAggregator(pricing.NewNormalizer(allowedRates))
	documentSvc := pricing.NewDocumentService(sourcer, aggregator)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Numbering: httpRouter.NewNumberingHandler(authority, policyRepo),
		Documents: httpRouter.NewDocumentHandler(documentSvc),
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func parseRates(raw []string) ([]decimal.Decimal, error) {
	rates := make([]decimal.Decimal, 0, len(raw))
	for _, s := range raw {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, err
		}
		rates = append(rates, d)
	}
	return rates, nil
}
