package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/caixazap/fiscal-api/internal/application/dto"
	"github.com/caixazap/fiscal-api/internal/application/fiscal"
	"github.com/caixazap/fiscal-api/internal/domain"
)

// FiscalHandler trata as requisições HTTP do ciclo de emissão NFC-e
// (protegido; tudo escopado pelo AccountID do token).
type FiscalHandler struct {
	orch *fiscal.Orchestrator
}

// NewFiscalHandler constrói o handler fiscal.
func NewFiscalHandler(orch *fiscal.Orchestrator) *FiscalHandler {
	return &FiscalHandler{orch: orch}
}

// Emit emite um cupom fiscal para um pedido fechado.
// POST /api/fiscal/cupons
func (h *FiscalHandler) Emit(c *fiber.Ctx) error {
	accountID := GetAccountID(c)
	if accountID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.EmitCupomRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corpo inválido"})
	}
	if in.OrderID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "order_id é obrigatório"})
	}
	out, err := h.orch.Emit(c.Context(), accountID, in)
	if err != nil {
		return fiscalError(c, err)
	}
	// rejeição da Sefaz não é erro HTTP: o cupom foi persistido e a resposta
	// carrega o motivo
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List devolve o histórico de cupons da conta.
// GET /api/fiscal/cupons
func (h *FiscalHandler) List(c *fiber.Ctx) error {
	accountID := GetAccountID(c)
	if accountID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginação inválida"})
	}
	page.DefaultPage()
	out, err := h.orch.List(c.Context(), accountID, page.Limit, page.Offset)
	if err != nil {
		return fiscalError(c, err)
	}
	return c.JSON(out)
}

// Detail devolve a visão completa de um cupom com itens.
// GET /api/fiscal/cupons/:id
func (h *FiscalHandler) Detail(c *fiber.Ctx) error {
	accountID := GetAccountID(c)
	if accountID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	out, err := h.orch.Detail(c.Context(), accountID, c.Params("id"))
	if err != nil {
		return fiscalError(c, err)
	}
	return c.JSON(out)
}

// QueryStatus reconsulta a situação do cupom na Sefaz.
// POST /api/fiscal/cupons/:id/query
func (h *FiscalHandler) QueryStatus(c *fiber.Ctx) error {
	accountID := GetAccountID(c)
	if accountID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	out, err := h.orch.Query(c.Context(), accountID, c.Params("id"))
	if err != nil {
		return fiscalError(c, err)
	}
	return c.JSON(out)
}

// Cancel registra o cancelamento de um cupom autorizado.
// POST /api/fiscal/cupons/:id/cancel
func (h *FiscalHandler) Cancel(c *fiber.Ctx) error {
	accountID := GetAccountID(c)
	if accountID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.CancelCupomRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corpo inválido"})
	}
	if len(in.Reason) < 15 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "justificativa deve ter pelo menos 15 caracteres"})
	}
	out, err := h.orch.Cancel(c.Context(), accountID, c.Params("id"), in.Reason)
	if err != nil {
		return fiscalError(c, err)
	}
	return c.JSON(out)
}

// DownloadXML devolve o XML do cupom (assinado quando houver).
// GET /api/fiscal/cupons/:id/xml
func (h *FiscalHandler) DownloadXML(c *fiber.Ctx) error {
	accountID := GetAccountID(c)
	if accountID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	xml, err := h.orch.DownloadXML(c.Context(), accountID, c.Params("id"))
	if err != nil {
		return fiscalError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/xml; charset=utf-8")
	return c.Send(xml)
}

// Logs devolve a trilha de transmissões do cupom.
// GET /api/fiscal/cupons/:id/logs
func (h *FiscalHandler) Logs(c *fiber.Ctx) error {
	accountID := GetAccountID(c)
	if accountID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	out, err := h.orch.Logs(c.Context(), accountID, c.Params("id"))
	if err != nil {
		return fiscalError(c, err)
	}
	return c.JSON(out)
}

// fiscalError mapeia erros de domínio para status HTTP. A ordem importa:
// ErrCertificate é mais específico que ErrConfiguration.
func fiscalError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso não encontrado"})
	case errors.Is(err, domain.ErrConfiguration):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "NO_FISCAL_CONFIG", Message: "conta sem configuração fiscal ativa"})
	case errors.Is(err, domain.ErrCertificate),
		errors.Is(err, domain.ErrCertificateFormat),
		errors.Is(err, domain.ErrCertificateContent):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "CERTIFICATE", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidTransition):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_TRANSITION", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotAvailable):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_AVAILABLE", Message: err.Error()})
	case errors.Is(err, domain.ErrSigning):
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "SIGNING", Message: "falha na assinatura digital"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
