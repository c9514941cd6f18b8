package br

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// asciiFold decompõe acentos (NFD), remove as marcas e recompõe (NFC).
// A Sefaz rejeita caracteres fora da faixa básica em vários campos de texto.
var asciiFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// SanitizeXMLText prepara texto livre (descrições, infCpl) para o XML fiscal:
// remove acentos, colapsa espaços consecutivos e apara as pontas.
func SanitizeXMLText(s string) string {
	out, _, err := transform.String(asciiFold, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(out), " ")
}

// Truncate corta o texto em max bytes respeitando limites de runa.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}
