package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/caixazap/fiscal-api/internal/application/auth"
	"github.com/caixazap/fiscal-api/internal/application/fiscal"
	"github.com/caixazap/fiscal-api/internal/application/usecase"
	"github.com/caixazap/fiscal-api/internal/infrastructure/postgres"
	"github.com/caixazap/fiscal-api/internal/infrastructure/sefaz"
	httpRouter "github.com/caixazap/fiscal-api/internal/interfaces/http"
	"github.com/caixazap/fiscal-api/pkg/config"
	"github.com/caixazap/fiscal-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("carregar configuração: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicação")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexão ao PostgreSQL")
	}
	defer pool.Close()

	accountRepo := postgres.NewAccountRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	settingsRepo := postgres.NewFiscalSettingsRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	cupomRepo := postgres.NewCupomRepository(pool)
	logRepo := postgres.NewTransmissionLogRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Ciclo fiscal: XML → assinatura → SOAP Sefaz → QR Code
	signer := sefaz.NewDigitalSignatureService()
	client := sefaz.NewClient(time.Duration(cfg.Fiscal.SefazTimeoutSeconds)*time.Second, signer)
	orchestrator := fiscal.NewOrchestrator(
		settingsRepo, orderRepo, cupomRepo, logRepo, txRunner,
		sefaz.NewXMLBuilderService(),
		sefaz.NewQRCodeService(),
		client,
		sefaz.RespTec{
			CNPJ:    cfg.Fiscal.RespTecCNPJ,
			Contact: cfg.Fiscal.RespTecContact,
			Email:   cfg.Fiscal.RespTecEmail,
			Phone:   cfg.Fiscal.RespTecPhone,
		},
		log,
	)

	accountUC := usecase.NewAccountUseCase(accountRepo)
	authUC := auth.NewAuthUseCase(userRepo, accountRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 60, // a emissão espera a resposta da Sefaz
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "CaixaZap Fiscal API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AccountUC: accountUC,
		AuthUC:    authUC,
		Fiscal:    orchestrator,
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

	log.Info().Msg("sinal de desligamento recebido, encerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("encerramento do servidor")
	}

	log.Info().Msg("aplicação encerrada")
}
