// Package fiscal orquestra o ciclo de emissão da NFC-e:
//
//	configuração → pedido → certificado → numeração → chave de acesso →
//	XML → assinatura → SOAP Sefaz → persistência + trilha de auditoria
//
// Máquina de estados do cupom: pending → authorized | rejected; somente
// authorized pode virar canceled.
package fiscal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/caixazap/fiscal-api/internal/application/dto"
	"github.com/caixazap/fiscal-api/internal/domain"
	"github.com/caixazap/fiscal-api/internal/domain/entity"
	"github.com/caixazap/fiscal-api/internal/domain/nfce"
	"github.com/caixazap/fiscal-api/internal/domain/repository"
	"github.com/caixazap/fiscal-api/internal/infrastructure/certificate"
	"github.com/caixazap/fiscal-api/internal/infrastructure/sefaz"
	"github.com/caixazap/fiscal-api/pkg/br"
	"github.com/caixazap/fiscal-api/pkg/logger"
)

// Classificação tributária genérica aplicada a todos os itens (regime
// simplificado: alimentação preparada, Simples Nacional, PIS/COFINS NT).
const (
	defaultNCM       = "21069090"
	defaultCFOP      = "5102"
	defaultCSOSN     = "102"
	defaultCSTPisCof = "07"
	defaultUnit      = "UN"
)

// Orchestrator executa as operações do ciclo fiscal. Cada chamada é uma
// tentativa única: não há retry automático; quem decide repetir é a UI.
type Orchestrator struct {
	settingsRepo repository.FiscalSettingsRepository
	orderRepo    repository.OrderRepository
	cupomRepo    repository.CupomRepository
	logRepo      repository.TransmissionLogRepository
	txRunner     TxRunner

	builder *sefaz.XMLBuilderService
	qr      *sefaz.QRCodeService
	client  sefaz.Transmitter
	respTec sefaz.RespTec
	log     *logger.Logger

	// pontos de injeção para testes determinísticos
	loadCert func(bundleB64, password string) (*certificate.Handle, error)
	now      func() time.Time
	nonce    func() (string, error)
}

// NewOrchestrator constrói o orquestrador com todas as dependências.
func NewOrchestrator(
	settingsRepo repository.FiscalSettingsRepository,
	orderRepo repository.OrderRepository,
	cupomRepo repository.CupomRepository,
	logRepo repository.TransmissionLogRepository,
	txRunner TxRunner,
	builder *sefaz.XMLBuilderService,
	qr *sefaz.QRCodeService,
	client sefaz.Transmitter,
	respTec sefaz.RespTec,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		settingsRepo: settingsRepo,
		orderRepo:    orderRepo,
		cupomRepo:    cupomRepo,
		logRepo:      logRepo,
		txRunner:     txRunner,
		builder:      builder,
		qr:           qr,
		client:       client,
		respTec:      respTec,
		log:          log.Component("fiscal-orchestrator"),
		loadCert:     certificate.Load,
		now:          time.Now,
		nonce:        nfce.RandomNonce,
	}
}

// Emit emite uma NFC-e para o pedido. Erros de configuração, certificado e
// assinatura sobem para o chamador; desfechos da Sefaz (autorizado, rejeitado,
// falha de rede) viram resposta estruturada com o cupom persistido.
func (o *Orchestrator) Emit(ctx context.Context, accountID string, req dto.EmitCupomRequest) (*dto.EmitCupomResponse, error) {
	// ═══════════════════════════════════════════════════════════════════════════
	// 1. Configuração fiscal ativa da conta
	// ═══════════════════════════════════════════════════════════════════════════
	settings, err := o.settingsRepo.GetActiveByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("buscar configuração fiscal: %w", err)
	}
	if settings == nil {
		return nil, fmt.Errorf("%w: conta %s sem configuração fiscal ativa", domain.ErrConfiguration, accountID)
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 2. Pedido de origem
	// ═══════════════════════════════════════════════════════════════════════════
	order, err := o.orderRepo.GetByID(ctx, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("buscar pedido: %w", err)
	}
	if order == nil || order.AccountID != accountID {
		return nil, fmt.Errorf("%w: pedido %s", domain.ErrNotFound, req.OrderID)
	}
	if len(order.Items) == 0 {
		return nil, fmt.Errorf("%w: pedido %s sem itens", domain.ErrInvalidInput, req.OrderID)
	}
	if err := validateConsumerTaxID(req.ConsumerTaxID); err != nil {
		return nil, err
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 3. Certificado: carga e validação ANTES de alocar número ou criar linha.
	//    Certificado vencido não queima numeração nem deixa lixo no banco.
	// ═══════════════════════════════════════════════════════════════════════════
	handle, err := o.loadCert(settings.CertBundle, settings.CertPass)
	if err != nil {
		return nil, err
	}
	if v := certificate.Validate(handle, o.now()); !v.Valid {
		return nil, fmt.Errorf("%w: %s", domain.ErrCertificate, v.Errors[0])
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 4. Numeração atômica e chave de acesso
	// ═══════════════════════════════════════════════════════════════════════════
	number, err := o.settingsRepo.AllocateNextNumber(ctx, settings.ID, settings.Serie)
	if err != nil {
		return nil, fmt.Errorf("alocar número da série %d: %w", settings.Serie, err)
	}

	issuedAt := o.now()
	cNF, err := o.nonce()
	if err != nil {
		return nil, err
	}
	accessKey, err := nfce.NewKeyBuilderService().Build(&nfce.KeyParams{
		UF:       settings.UF,
		IssuedAt: issuedAt,
		CNPJ:     settings.CNPJ,
		Serie:    settings.Serie,
		Number:   number,
		Nonce:    cNF,
	})
	if err != nil {
		return nil, err
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 5. Persistir cupom pending + itens antes de qualquer transmissão: a
	//    trilha existe mesmo que o processo morra no meio
	// ═══════════════════════════════════════════════════════════════════════════
	cupom := &entity.Cupom{
		ID:            uuid.NewString(),
		AccountID:     accountID,
		OrderID:       order.ID,
		Serie:         settings.Serie,
		Number:        number,
		AccessKey:     accessKey,
		Total:         order.Total,
		TaxEstimate:   decimal.Zero, // zerado no regime simplificado
		ConsumerName:  req.ConsumerName,
		ConsumerTaxID: req.ConsumerTaxID,
		Status:        entity.CupomStatusPending,
		EmittedAt:     issuedAt,
		Notes:         req.Notes,
	}
	items := make([]*entity.CupomItem, len(order.Items))
	for i, oi := range order.Items {
		unit := oi.Unit
		if unit == "" {
			unit = defaultUnit
		}
		items[i] = &entity.CupomItem{
			ID:          uuid.NewString(),
			CupomID:     cupom.ID,
			ProductID:   oi.ProductID,
			Description: oi.Name,
			NCM:         defaultNCM,
			CFOP:        defaultCFOP,
			CSOSN:       defaultCSOSN,
			CSTPIS:      defaultCSTPisCof,
			CSTCOFINS:   defaultCSTPisCof,
			Unit:        unit,
			Quantity:    oi.Quantity,
			UnitPrice:   oi.UnitPrice,
			Total:       oi.LineTotal(),
		}
	}
	err = o.txRunner.Run(ctx, func(cupomRepo repository.CupomRepository) error {
		if err := cupomRepo.Create(ctx, cupom); err != nil {
			return fmt.Errorf("persistir cupom: %w", err)
		}
		for _, it := range items {
			if err := cupomRepo.CreateItem(ctx, it); err != nil {
				return fmt.Errorf("persistir item do cupom: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 6. XML de geração (sem assinatura), persistido ainda como pending
	// ═══════════════════════════════════════════════════════════════════════════
	unsignedXML, err := o.builder.Build(&sefaz.CupomBuildContext{
		Settings: settings,
		Cupom:    cupom,
		Items:    items,
		IssuedAt: issuedAt,
		RespTec:  o.respTec,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSigning, err)
	}
	cupom.XMLUnsigned = string(unsignedXML)
	if err := o.cupomRepo.UpdateStatus(ctx, cupom); err != nil {
		return nil, fmt.Errorf("persistir XML de geração: %w", err)
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 7. Assinar e transmitir. A partir daqui nenhum erro é lançado: rede e
	//    negócio Sefaz viram estado persistido
	// ═══════════════════════════════════════════════════════════════════════════
	result, err := o.client.Submit(ctx, unsignedXML, handle, settings.UF, settings.Environment)
	if err != nil {
		// falha de assinatura: cupom permanece pending, consultável depois
		return nil, err
	}

	if result.Success {
		cupom.Status = entity.CupomStatusAuthorized
		cupom.Protocol = result.Protocol
		cupom.XMLSigned = string(result.SignedXML)

		payload, qrErr := o.qr.Build(sefaz.QRParams{
			AccessKey:     accessKey,
			UF:            settings.UF,
			Environment:   settings.Environment,
			EmittedAt:     issuedAt,
			Total:         cupom.Total,
			ConsumerTaxID: req.ConsumerTaxID,
			CSCID:         settings.CSCID,
			CSCToken:      settings.CSCToken,
		})
		if qrErr != nil {
			// autorização vale mesmo sem QR; o payload pode ser regerado depois
			o.log.Warn().Err(qrErr).Str("cupom_id", cupom.ID).Msg("falha ao montar QR Code de cupom autorizado")
		} else {
			cupom.QRPayload = payload
		}
	} else {
		cupom.Status = entity.CupomStatusRejected
		cupom.Reason = result.Reason
		cupom.XMLSigned = string(result.SignedXML)
	}

	if err := o.cupomRepo.UpdateStatus(ctx, cupom); err != nil {
		return nil, fmt.Errorf("persistir desfecho da emissão: %w", err)
	}
	o.appendLog(ctx, cupom.ID, entity.TransmissionOpSubmit, result)

	o.log.Info().
		Str("cupom_id", cupom.ID).
		Int64("numero", number).
		Str("status", cupom.Status).
		Str("cstat", result.StatusCode).
		Msg("emissão concluída")

	return &dto.EmitCupomResponse{
		Success:   result.Success,
		CupomID:   cupom.ID,
		Number:    number,
		AccessKey: accessKey,
		Status:    cupom.Status,
		Protocol:  cupom.Protocol,
		Reason:    cupom.Reason,
		QRPayload: cupom.QRPayload,
	}, nil
}

// Query reconsulta a situação do cupom na Sefaz e atualiza o status local
// quando divergir do armazenado.
func (o *Orchestrator) Query(ctx context.Context, accountID, cupomID string) (*dto.CupomStatusResponse, error) {
	cupom, err := o.getScoped(ctx, accountID, cupomID)
	if err != nil {
		return nil, err
	}
	settings, err := o.settingsRepo.GetActiveByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("buscar configuração fiscal: %w", err)
	}
	if settings == nil {
		return nil, fmt.Errorf("%w: conta %s sem configuração fiscal ativa", domain.ErrConfiguration, accountID)
	}

	result, err := o.client.Query(ctx, cupom.AccessKey, settings.UF, settings.Environment)
	if err != nil {
		return nil, err
	}
	o.appendLog(ctx, cupom.ID, entity.TransmissionOpQuery, result)

	if newStatus := statusFromQuery(result.StatusCode); newStatus != "" && newStatus != cupom.Status {
		o.log.Info().
			Str("cupom_id", cupom.ID).
			Str("de", cupom.Status).
			Str("para", newStatus).
			Msg("status atualizado pela consulta")
		cupom.Status = newStatus
		if result.Protocol != "" {
			cupom.Protocol = result.Protocol
		}
		if !result.Success {
			cupom.Reason = result.Reason
		}
		if err := o.cupomRepo.UpdateStatus(ctx, cupom); err != nil {
			return nil, fmt.Errorf("persistir status consultado: %w", err)
		}
	}

	return &dto.CupomStatusResponse{
		Success:  result.Success,
		Status:   cupom.Status,
		Protocol: cupom.Protocol,
		Reason:   result.Reason,
	}, nil
}

// Cancel registra o cancelamento de um cupom autorizado. Qualquer outro
// status falha antes de tocar a rede.
func (o *Orchestrator) Cancel(ctx context.Context, accountID, cupomID, reason string) (*dto.CancelCupomResponse, error) {
	cupom, err := o.getScoped(ctx, accountID, cupomID)
	if err != nil {
		return nil, err
	}
	if !cupom.CanCancel() {
		return nil, fmt.Errorf("%w: cupom %s em %q, somente authorized aceita cancelamento",
			domain.ErrInvalidTransition, cupom.ID, cupom.Status)
	}

	settings, err := o.settingsRepo.GetActiveByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("buscar configuração fiscal: %w", err)
	}
	if settings == nil {
		return nil, fmt.Errorf("%w: conta %s sem configuração fiscal ativa", domain.ErrConfiguration, accountID)
	}

	handle, err := o.loadCert(settings.CertBundle, settings.CertPass)
	if err != nil {
		return nil, err
	}
	if v := certificate.Validate(handle, o.now()); !v.Valid {
		return nil, fmt.Errorf("%w: %s", domain.ErrCertificate, v.Errors[0])
	}

	result, err := o.client.Cancel(ctx, cupom.AccessKey, cupom.Protocol, reason, handle, settings.UF, settings.Environment)
	if err != nil {
		return nil, err
	}
	o.appendLog(ctx, cupom.ID, entity.TransmissionOpCancel, result)

	if result.Success {
		cupom.Status = entity.CupomStatusCanceled
		cupom.Reason = reason
		if err := o.cupomRepo.UpdateStatus(ctx, cupom); err != nil {
			return nil, fmt.Errorf("persistir cancelamento: %w", err)
		}
	}

	return &dto.CancelCupomResponse{
		Success: result.Success,
		Status:  cupom.Status,
		Reason:  result.Reason,
	}, nil
}

// DownloadXML devolve o XML autorizado; se o cupom nunca foi autorizado,
// cai para o XML de geração.
func (o *Orchestrator) DownloadXML(ctx context.Context, accountID, cupomID string) ([]byte, error) {
	cupom, err := o.getScoped(ctx, accountID, cupomID)
	if err != nil {
		return nil, err
	}
	if cupom.XMLSigned != "" {
		return []byte(cupom.XMLSigned), nil
	}
	if cupom.XMLUnsigned != "" {
		return []byte(cupom.XMLUnsigned), nil
	}
	return nil, fmt.Errorf("%w: cupom %s não possui XML armazenado", domain.ErrNotAvailable, cupomID)
}

// Detail devolve a visão completa do cupom com itens, para a UI do lojista.
func (o *Orchestrator) Detail(ctx context.Context, accountID, cupomID string) (*dto.CupomDetailResponse, error) {
	cupom, err := o.getScoped(ctx, accountID, cupomID)
	if err != nil {
		return nil, err
	}
	items, err := o.cupomRepo.GetItemsByCupomID(ctx, cupom.ID)
	if err != nil {
		return nil, fmt.Errorf("buscar itens do cupom: %w", err)
	}

	resp := &dto.CupomDetailResponse{
		ID:            cupom.ID,
		OrderID:       cupom.OrderID,
		Serie:         cupom.Serie,
		Number:        cupom.Number,
		AccessKey:     cupom.AccessKey,
		Total:         cupom.Total.StringFixed(2),
		Status:        cupom.Status,
		Protocol:      cupom.Protocol,
		Reason:        cupom.Reason,
		QRPayload:     cupom.QRPayload,
		ConsumerName:  cupom.ConsumerName,
		ConsumerTaxID: cupom.ConsumerTaxID,
		EmittedAt:     cupom.EmittedAt,
	}
	for _, it := range items {
		resp.Items = append(resp.Items, dto.CupomItemDTO{
			Description: it.Description,
			NCM:         it.NCM,
			CFOP:        it.CFOP,
			Unit:        it.Unit,
			Quantity:    it.Quantity.StringFixed(4),
			UnitPrice:   it.UnitPrice.StringFixed(2),
			Total:       it.Total.StringFixed(2),
		})
	}
	return resp, nil
}

// List devolve o histórico de cupons da conta, mais recentes primeiro.
func (o *Orchestrator) List(ctx context.Context, accountID string, limit, offset int) ([]dto.CupomSummaryDTO, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	cupons, err := o.cupomRepo.ListByAccount(ctx, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listar cupons: %w", err)
	}
	out := make([]dto.CupomSummaryDTO, 0, len(cupons))
	for _, c := range cupons {
		out = append(out, dto.CupomSummaryDTO{
			ID:        c.ID,
			Serie:     c.Serie,
			Number:    c.Number,
			AccessKey: c.AccessKey,
			Total:     c.Total.StringFixed(2),
			Status:    c.Status,
			EmittedAt: c.EmittedAt,
		})
	}
	return out, nil
}

// Logs devolve a trilha de transmissões do cupom, mais antiga primeiro.
func (o *Orchestrator) Logs(ctx context.Context, accountID, cupomID string) ([]dto.TransmissionLogDTO, error) {
	cupom, err := o.getScoped(ctx, accountID, cupomID)
	if err != nil {
		return nil, err
	}
	logs, err := o.logRepo.ListByCupomID(ctx, cupom.ID)
	if err != nil {
		return nil, fmt.Errorf("buscar logs de transmissão: %w", err)
	}
	out := make([]dto.TransmissionLogDTO, 0, len(logs))
	for _, l := range logs {
		out = append(out, dto.TransmissionLogDTO{
			ID:         l.ID,
			Operation:  l.Operation,
			StatusCode: l.StatusCode,
			Reason:     l.Reason,
			Protocol:   l.Protocol,
			Success:    l.Success,
			CreatedAt:  l.CreatedAt,
		})
	}
	return out, nil
}

// ── helpers privados ──────────────────────────────────────────────────────────

// getScoped carrega o cupom garantindo que pertence à conta. Cupom de outra
// conta responde como inexistente.
func (o *Orchestrator) getScoped(ctx context.Context, accountID, cupomID string) (*entity.Cupom, error) {
	cupom, err := o.cupomRepo.GetByID(ctx, cupomID)
	if err != nil {
		return nil, fmt.Errorf("buscar cupom: %w", err)
	}
	if cupom == nil || cupom.AccountID != accountID {
		return nil, fmt.Errorf("%w: cupom %s", domain.ErrNotFound, cupomID)
	}
	return cupom, nil
}

// appendLog grava a trilha de auditoria. Falha de gravação não derruba a
// operação: o desfecho fiscal já está decidido.
func (o *Orchestrator) appendLog(ctx context.Context, cupomID, op string, r *sefaz.Result) {
	entry := &entity.TransmissionLog{
		ID:          uuid.NewString(),
		CupomID:     cupomID,
		Operation:   op,
		RequestXML:  r.RequestXML,
		ResponseXML: r.RawResponse,
		StatusCode:  r.StatusCode,
		Reason:      r.Reason,
		Protocol:    r.Protocol,
		Success:     r.Success,
		CreatedAt:   o.now(),
	}
	if err := o.logRepo.Append(ctx, entry); err != nil {
		o.log.Error().Err(err).Str("cupom_id", cupomID).Str("operacao", op).Msg("falha ao gravar log de transmissão")
	}
}

// statusFromQuery traduz o cStat da consulta para um status local; vazio
// significa "sem informação nova". Só códigos que falam do documento mudam
// status: códigos do serviço de consulta (217 "não consta na base", 108/109
// serviço indisponível) e a falha de rede sintética falam da consulta em si.
func statusFromQuery(cStat string) string {
	switch cStat {
	case "100", "150":
		return entity.CupomStatusAuthorized
	case "101", "135", "151", "155":
		return entity.CupomStatusCanceled
	case "110", "205", "301", "302", "303":
		// uso denegado: a Sefaz conhece o documento e nega o seu uso
		return entity.CupomStatusRejected
	default:
		return ""
	}
}

func validateConsumerTaxID(taxID string) error {
	digits := br.OnlyDigits(taxID)
	switch len(digits) {
	case 0:
		return nil
	case 11:
		if err := br.ValidateCPF(taxID); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		return nil
	case 14:
		if err := br.ValidateCNPJ(taxID); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		return nil
	default:
		return fmt.Errorf("%w: documento do consumidor deve ser CPF ou CNPJ", domain.ErrInvalidInput)
	}
}
