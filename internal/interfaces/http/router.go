package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/caixazap/fiscal-api/internal/application/auth"
	"github.com/caixazap/fiscal-api/internal/application/fiscal"
	"github.com/caixazap/fiscal-api/internal/application/usecase"
)

// RouterDeps dependências do router.
type RouterDeps struct {
	AccountUC *usecase.AccountUseCase
	AuthUC    *auth.AuthUseCase
	Fiscal    *fiscal.Orchestrator
	JWTSecret string
}

// Router registra as rotas da API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Accounts (público no onboarding; a UI de administração fica em outro
	// serviço)
	accounts := api.Group("/accounts")
	accountHandler := NewAccountHandler(deps.AccountUC)
	accounts.Get("/", accountHandler.List)
	accounts.Post("/", accountHandler.Create)
	accounts.Get("/:id", accountHandler.GetByID)

	// Rotas protegidas (Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Ciclo fiscal NFC-e (protegido)
	cupons := protected.Group("/fiscal/cupons")
	fiscalHandler := NewFiscalHandler(deps.Fiscal)
	cupons.Post("/", fiscalHandler.Emit)
	cupons.Get("/", fiscalHandler.List)
	cupons.Get("/:id", fiscalHandler.Detail)
	cupons.Post("/:id/query", fiscalHandler.QueryStatus)
	cupons.Post("/:id/cancel", fiscalHandler.Cancel)
	cupons.Get("/:id/xml", fiscalHandler.DownloadXML)
	cupons.Get("/:id/logs", fiscalHandler.Logs)
}
