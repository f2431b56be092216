package nfe

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// removeAcentos decompõe (NFD) e descarta as marcas combinantes; a SEFAZ
// rejeita vários caracteres acentuados em campos texto.
var removeAcentos = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Sanitizar normaliza um campo texto antes da serialização: remove caracteres
// de controle, colapsa espaços em branco, remove acentos e trunca no tamanho
// máximo do campo no schema. Conteúdo malformado ou injetado nunca chega ao
// documento.
func Sanitizar(s string, maxLen int) string {
	if semAcento, _, err := transform.String(removeAcentos, s); err == nil {
		s = semAcento
	}

	var b strings.Builder
	b.Grow(len(s))
	espacoPendente := false
	for _, r := range s {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			espacoPendente = b.Len() > 0
			continue
		}
		if espacoPendente {
			b.WriteByte(' ')
			espacoPendente = false
		}
		b.WriteRune(r)
	}
	out := b.String()

	if maxLen > 0 && len(out) > maxLen {
		out = strings.TrimRight(out[:maxLen], " ")
	}
	return out
}

// SoDigitos descarta tudo que não for dígito 0-9 (CNPJ, CPF, CEP, códigos).
func SoDigitos(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
