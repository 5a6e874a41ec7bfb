package domain

import (
	"context"
	"errors"
)

// ErrVerifierUnavailable marca falhas de transporte do serviço de verificação
// (rede, timeout, resposta inválida). É diferente de uma verificação negada.
var ErrVerifierUnavailable = errors.New("verification service unavailable")

type VerifyRequest struct {
	Secret   string
	Token    string
	RemoteIP string
}

type VerifyResult struct {
	Success    bool
	ErrorCodes []string
}

// Verifier troca o token de prova do cliente por um veredito do serviço externo.
//
// Um erro não-nil significa que o serviço não respondeu de forma utilizável
// (deve envolver ErrVerifierUnavailable); uma verificação negada volta como
// VerifyResult{Success: false} com err == nil.
type Verifier interface {
	Verify(ctx context.Context, req VerifyRequest) (VerifyResult, error)
}
