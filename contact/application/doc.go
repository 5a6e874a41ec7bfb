// Package application contém os casos de uso do gateway de contato.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Gateway.Submit(ctx, client, raw) roda verificação de bot, validação,
// rate limit e gravação, e devolve Result ou um *domain.Error tipado.
//
// OriginPolicy, Validate e BucketKey/SubmissionKey são funções puras;
// BotCheck, RateLimiter e SubmissionStore fazem I/O pelos contratos do domain.
package application
