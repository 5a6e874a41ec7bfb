package application

import (
	"context"
	"errors"
	"strings"

	"contact-gateway/contact/domain"

	"go.uber.org/zap"
)

// BypassFlagValue é o único valor que liga o bypass (qualquer outro = desligado).
const BypassFlagValue = "true"

var errNoSecret = errors.New("verification secret not configured")

// BotCheck concentra a regra de verificação de bot, sem saber nada sobre HTTP.
//
// Ordem fixa:
//  1. sem token -> rejeita antes de qualquer chamada de rede
//  2. sem secret -> fail closed (503), a menos que Bypass == "true"
//  3. uma única chamada ao Verifier; Success=false é falha de verificação,
//     erro de transporte é serviço indisponível (o cliente pode tentar de novo)
type BotCheck struct {
	Verifier domain.Verifier
	Secret   string
	// Bypass é o valor cru da flag de operador (só para desenvolvimento local).
	Bypass string
	Logger *zap.Logger
}

// Check valida o token. token é `any` porque vem direto do JSON.
func (b BotCheck) Check(ctx context.Context, token any, client domain.ClientID) error {
	tok, _ := token.(string)
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return domain.ErrMissingCaptchaToken()
	}

	log := b.Logger
	if log == nil {
		log = zap.NewNop()
	}

	if b.Secret == "" {
		if b.Bypass == BypassFlagValue {
			log.Warn("captcha verification bypassed: no secret configured")
			return nil
		}
		log.Error("captcha secret not configured; rejecting submission")
		return domain.ErrServerMisconfigured(errNoSecret)
	}
	if b.Verifier == nil {
		return domain.ErrServerMisconfigured(errors.New("no verifier configured"))
	}

	req := domain.VerifyRequest{Secret: b.Secret, Token: tok}
	if client != "" && client != domain.UnknownClient {
		req.RemoteIP = string(client)
	}

	res, err := b.Verifier.Verify(ctx, req)
	if err != nil {
		log.Warn("captcha verification service unavailable", zap.Error(err))
		return domain.ErrCaptchaUnavailable(err)
	}
	if !res.Success {
		// os códigos de erro ficam só no log
		log.Warn("captcha verification failed", zap.Strings("error_codes", res.ErrorCodes))
		return domain.ErrCaptchaFailed(res.ErrorCodes)
	}
	return nil
}
