package domain

import "time"

// Fields são os campos enviados pelo formulário, já aparados (trim) e validados.
type Fields struct {
	Name    string
	Email   string
	Message string
}

// Submission é uma mensagem de contato aceita.
//
// Só existe depois de passar por verificação de bot, validação de campos e
// rate limit, nessa ordem. Uma vez gravada é imutável.
type Submission struct {
	Fields
	SubmittedAt time.Time
}
