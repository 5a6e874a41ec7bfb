package application

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"contact-gateway/contact/domain"
)

// RawSubmission é o corpo JSON como chegou. Os campos são `any` porque
// "não é string" (ex.: um número) é uma falha diferente de "vazio".
type RawSubmission struct {
	Name    any `json:"name"`
	Email   any `json:"email"`
	Message any `json:"message"`
	Token   any `json:"cf-turnstile-response"`
}

// filtro barato de formato (local@dominio.tld, sem espaços), não é RFC 5322.
// \s do regexp só cobre ASCII; \pZ pega separadores Unicode (ex.: U+00A0).
var emailPattern = regexp.MustCompile(`^[^\pZ\s@]+@[^\pZ\s@]+\.[^\pZ\s@]+$`)

func validEmail(s string) bool {
	return emailPattern.MatchString(s) && strings.IndexFunc(s, unicode.IsSpace) < 0
}

type rawField struct {
	name  string
	value any
	max   int
}

// Validate aplica presença, tipo, tamanho e formato do email, nessa ordem.
// A primeira falha vence. Retorna os campos já aparados.
func Validate(raw RawSubmission, limits domain.FieldLimits) (domain.Fields, error) {
	fields := []rawField{
		{name: "name", value: raw.Name, max: limits.NameMax},
		{name: "email", value: raw.Email, max: limits.EmailMax},
		{name: "message", value: raw.Message, max: limits.MessageMax},
	}

	// presença
	for _, f := range fields {
		if f.value == nil {
			return domain.Fields{}, domain.ErrValidation(fmt.Sprintf("The %s field is required.", f.name))
		}
		if s, ok := f.value.(string); ok && strings.TrimSpace(s) == "" {
			return domain.Fields{}, domain.ErrValidation(fmt.Sprintf("The %s field is required.", f.name))
		}
	}

	// tipo
	trimmed := make([]string, len(fields))
	for i, f := range fields {
		s, ok := f.value.(string)
		if !ok {
			return domain.Fields{}, domain.ErrValidation(fmt.Sprintf("The %s field must be a string.", f.name))
		}
		trimmed[i] = strings.TrimSpace(s)
	}

	// tamanho (em caracteres, não bytes)
	for i, f := range fields {
		if f.max > 0 && utf8.RuneCountInString(trimmed[i]) > f.max {
			return domain.Fields{}, domain.ErrValidation(fmt.Sprintf("The %s field must be at most %d characters.", f.name, f.max))
		}
	}

	out := domain.Fields{Name: trimmed[0], Email: trimmed[1], Message: trimmed[2]}
	if !validEmail(out.Email) {
		return domain.Fields{}, domain.ErrValidation("Please provide a valid email address.")
	}
	return out, nil
}
