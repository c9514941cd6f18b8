package domain

import "errors"

// Erros de domínio (sem dependências externas). A camada HTTP mapeia cada um
// para o status apropriado via errors.Is.
var (
	// ErrNotFound: pedido ou cupom referenciado não existe.
	ErrNotFound = errors.New("recurso não encontrado")
	// ErrConfiguration: nenhuma configuração fiscal ativa para a conta.
	ErrConfiguration = errors.New("configuração fiscal ausente ou inativa")
	// ErrCertificateFormat: base64 inválido, PKCS#12 corrompido ou senha errada.
	ErrCertificateFormat = errors.New("certificado em formato inválido")
	// ErrCertificateContent: bundle sem certificado ou sem chave privada.
	ErrCertificateContent = errors.New("certificado sem cadeia ou chave privada")
	// ErrCertificate: certificado inválido para emissão (expirado, sujeito sem CNPJ).
	ErrCertificate = errors.New("certificado digital inválido")
	// ErrSigning: alvo da assinatura malformado ou chave inutilizável. Indica
	// defeito de geração de XML; nunca deve ser re-tentado automaticamente.
	ErrSigning = errors.New("falha na assinatura digital")
	// ErrQRGeneration: falha ao montar o payload do QR Code. Não invalida a
	// autorização já concedida.
	ErrQRGeneration = errors.New("falha na geração do QR Code")
	// ErrNotAvailable: cupom sem XML assinado nem XML de geração armazenado.
	ErrNotAvailable = errors.New("conteúdo não disponível")
	// ErrInvalidTransition: transição de status ilegal (ex.: cancelar cupom
	// pendente ou rejeitado).
	ErrInvalidTransition = errors.New("transição de status ilegal")
	// ErrInvalidInput: entrada inválida do chamador.
	ErrInvalidInput = errors.New("entrada inválida")
	// ErrDuplicate: recurso com chave natural já existente (ex.: CNPJ de conta).
	ErrDuplicate = errors.New("recurso duplicado")
	// ErrUnauthorized / ErrForbidden: controle de acesso na borda HTTP.
	ErrUnauthorized = errors.New("não autorizado")
	ErrForbidden    = errors.New("acesso negado")
)
