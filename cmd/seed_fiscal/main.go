// seed_fiscal gera um script SQL com dados de homologação: conta demo,
// usuário, configuração fiscal apontando para o ambiente de staging da Sefaz
// e um pedido de exemplo pronto para emissão.
//
// Uso: go run ./cmd/seed_fiscal <certificado.pfx> <senha>
// Escreve: internal/infrastructure/postgres/migrations/002_seed_demo.sql
package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/caixazap/fiscal-api/internal/infrastructure/certificate"
)

const outPath = "internal/infrastructure/postgres/migrations/002_seed_demo.sql"

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "uso: seed_fiscal <certificado.pfx> <senha>")
		os.Exit(1)
	}
	pfxPath, password := os.Args[1], os.Args[2]

	raw, err := os.ReadFile(pfxPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ler certificado: %v\n", err)
		os.Exit(1)
	}
	bundle := base64.StdEncoding.EncodeToString(raw)

	// Valida o bundle antes de semear: um PFX corrompido aqui viraria falha
	// obscura na primeira emissão.
	if _, err := certificate.Load(bundle, password); err != nil {
		fmt.Fprintf(os.Stderr, "certificado inválido: %v\n", err)
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("caixazap123"), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash da senha demo: %v\n", err)
		os.Exit(1)
	}

	accountID := uuid.NewString()
	userID := uuid.NewString()
	settingsID := uuid.NewString()
	orderID := uuid.NewString()

	var b strings.Builder
	b.WriteString("-- Dados de homologação gerados por cmd/seed_fiscal. Não usar em produção.\n\n")

	fmt.Fprintf(&b, `INSERT INTO accounts (id, name, cnpj, address, phone, email, status)
VALUES ('%s', 'Restaurante Demo Ltda', '12345678000195', 'Rua Augusta 1500, Sao Paulo', '1140000000', 'demo@caixazap.com.br', 'active');

`, accountID)

	fmt.Fprintf(&b, `INSERT INTO users (id, account_id, email, password_hash, name, role, status)
VALUES ('%s', '%s', 'demo@caixazap.com.br', '%s', 'Usuário Demo', 'admin', 'active');

`, userID, accountID, string(hash))

	fmt.Fprintf(&b, `INSERT INTO fiscal_settings (id, account_id, cnpj, ie, legal_name, trade_name, uf, city_code, city_name,
	street, number, district, zip_code, serie, next_number, cert_bundle, cert_pass, environment, tax_regime, csc_id, csc_token, active)
VALUES ('%s', '%s', '12345678000195', '123456789012', 'Restaurante Demo Ltda', 'Demo Burger', 'SP', '3550308', 'Sao Paulo',
	'Rua Augusta', '1500', 'Consolacao', '01304001', 1, 1, '%s', '%s', 'staging', '1', '000001', 'A1B2C3D4E5F6', true);

`, settingsID, accountID, bundle, sqlEscape(password))

	fmt.Fprintf(&b, `INSERT INTO orders (id, account_id, total) VALUES ('%s', '%s', 50.00);

INSERT INTO order_items (id, order_id, product_id, name, unit, quantity, unit_price)
VALUES ('%s', '%s', 'XBURG', 'X-Burger Especial', 'UN', 2.0000, 25.00);
`, orderID, accountID, uuid.NewString(), orderID)

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "criar diretório: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(outPath, []byte(b.String()), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "gravar SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("seed gravado em %s (conta %s, login demo@caixazap.com.br / caixazap123)\n", outPath, accountID)
}

func sqlEscape(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
