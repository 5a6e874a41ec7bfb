package domain

import (
	"errors"
	"fmt"
)

// Kind classifica por que o pipeline terminou antes de gravar a mensagem.
// O mapeamento Kind -> status HTTP fica no adapter HTTP.
type Kind int

const (
	KindInternal Kind = iota
	KindMalformedRequest
	KindMissingCaptchaToken
	KindCaptchaFailed
	KindCaptchaUnavailable
	KindServerMisconfigured
	KindValidation
	KindRateLimited
	KindStorageFailure
	KindServerBusy
)

func (k Kind) String() string {
	switch k {
	case KindMalformedRequest:
		return "malformed_request"
	case KindMissingCaptchaToken:
		return "missing_captcha_token"
	case KindCaptchaFailed:
		return "captcha_failed"
	case KindCaptchaUnavailable:
		return "captcha_unavailable"
	case KindServerMisconfigured:
		return "server_misconfigured"
	case KindValidation:
		return "validation_error"
	case KindRateLimited:
		return "rate_limited"
	case KindStorageFailure:
		return "storage_failure"
	case KindServerBusy:
		return "server_busy"
	default:
		return "internal_error"
	}
}

// Error é o erro tipado do gateway.
//
// Message é seguro para devolver ao cliente. Err guarda a causa interna
// (só vai para o log, nunca para a resposta).
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extrai o Kind de err. Erros fora da taxonomia são KindInternal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// Mensagens devolvidas ao cliente.
const (
	MsgMalformedRequest    = "Invalid request body."
	MsgMissingCaptchaToken = "CAPTCHA verification required."
	MsgCaptchaFailed       = "CAPTCHA verification failed. Please try again."
	MsgCaptchaUnavailable  = "CAPTCHA service unavailable. Please try again later."
	MsgServerMisconfigured = "Server misconfigured. Please try again later."
	MsgRateLimited         = "Too many messages. Please try again later."
	MsgStorageFailure      = "Failed to save message. Please try again later."
	MsgServerBusy          = "Server busy. Please try again later."
)

func ErrMalformedRequest(cause error) *Error {
	return &Error{Kind: KindMalformedRequest, Message: MsgMalformedRequest, Err: cause}
}

func ErrMissingCaptchaToken() *Error {
	return &Error{Kind: KindMissingCaptchaToken, Message: MsgMissingCaptchaToken}
}

func ErrCaptchaFailed(codes []string) *Error {
	var cause error
	if len(codes) > 0 {
		cause = fmt.Errorf("error-codes: %v", codes)
	}
	return &Error{Kind: KindCaptchaFailed, Message: MsgCaptchaFailed, Err: cause}
}

func ErrCaptchaUnavailable(cause error) *Error {
	return &Error{Kind: KindCaptchaUnavailable, Message: MsgCaptchaUnavailable, Err: cause}
}

func ErrServerMisconfigured(cause error) *Error {
	return &Error{Kind: KindServerMisconfigured, Message: MsgServerMisconfigured, Err: cause}
}

// ErrValidation carrega a mensagem específica do campo (required / tipo / tamanho / email).
func ErrValidation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func ErrRateLimited() *Error {
	return &Error{Kind: KindRateLimited, Message: MsgRateLimited}
}

func ErrStorageFailure(cause error) *Error {
	return &Error{Kind: KindStorageFailure, Message: MsgStorageFailure, Err: cause}
}

// ErrServerBusy indica que nenhuma vaga de processamento abriu a tempo.
func ErrServerBusy(cause error) *Error {
	return &Error{Kind: KindServerBusy, Message: MsgServerBusy, Err: cause}
}
