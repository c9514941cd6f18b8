// Package br: regras de documentos brasileiros (CNPJ/CPF) e saneamento de
// texto para o XML fiscal.
package br

import (
	"fmt"
	"strings"
)

// pesos do primeiro dígito verificador do CNPJ, aplicados aos 12 primeiros
// dígitos. O segundo dígito usa 6 seguido dos mesmos pesos sobre 13 dígitos.
var cnpjWeights = [12]int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}

// ValidateCNPJ valida os dois dígitos verificadores do CNPJ (módulo 11).
// Aceita com ou sem máscara: "12.345.678/0001-95" ou "12345678000195".
func ValidateCNPJ(doc string) error {
	digits := OnlyDigits(doc)
	if len(digits) != 14 {
		return fmt.Errorf("br: CNPJ deve ter 14 dígitos, recebidos %d", len(digits))
	}
	if allSame(digits) {
		return fmt.Errorf("br: CNPJ com dígitos repetidos é inválido")
	}
	d1 := cnpjDigit(digits[:12], cnpjWeights[:])
	d2 := cnpjDigit(digits[:13], append([]int{6}, cnpjWeights[:]...))
	if digits[12] != d1 || digits[13] != d2 {
		return fmt.Errorf("br: dígitos verificadores do CNPJ inválidos: esperado %c%c, recebido %s",
			d1, d2, digits[12:])
	}
	return nil
}

func cnpjDigit(base string, weights []int) byte {
	var sum int
	for i, c := range []byte(base) {
		sum += int(c-'0') * weights[i]
	}
	dv := 11 - sum%11
	if dv >= 10 {
		dv = 0
	}
	return byte('0' + dv)
}

// ValidateCPF valida os dígitos verificadores do CPF do consumidor.
func ValidateCPF(doc string) error {
	digits := OnlyDigits(doc)
	if len(digits) != 11 {
		return fmt.Errorf("br: CPF deve ter 11 dígitos, recebidos %d", len(digits))
	}
	if allSame(digits) {
		return fmt.Errorf("br: CPF com dígitos repetidos é inválido")
	}
	if digits[9] != cpfDigit(digits[:9], 10) || digits[10] != cpfDigit(digits[:10], 11) {
		return fmt.Errorf("br: dígitos verificadores do CPF inválidos")
	}
	return nil
}

func cpfDigit(base string, firstWeight int) byte {
	var sum int
	for i, c := range []byte(base) {
		sum += int(c-'0') * (firstWeight - i)
	}
	return byte('0' + sum*10%11%10)
}

func allSame(s string) bool {
	return strings.Count(s, s[:1]) == len(s)
}

// OnlyDigits descarta tudo que não for dígito 0-9.
func OnlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatCNPJ aplica a máscara 00.000.000/0000-00 (entrada já validada).
func FormatCNPJ(doc string) string {
	d := OnlyDigits(doc)
	if len(d) != 14 {
		return doc
	}
	return fmt.Sprintf("%s.%s.%s/%s-%s", d[:2], d[2:5], d[5:8], d[8:12], d[12:])
}
