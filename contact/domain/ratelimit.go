package domain

// Camada de domínio do rate limit por cliente.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import "time"

// ClientID identifica o cliente para o rate limit (normalmente o IP).
type ClientID string

// UnknownClient é usado quando nenhum header/endereço identifica o cliente.
const UnknownClient ClientID = "unknown"

type Decision struct {
	Allowed bool
	// Limit é o teto do bucket (vai para X-RateLimit-Limit).
	Limit int
	// Remaining é quanto ainda resta no bucket depois desta decisão.
	Remaining int
	// RetryAfter é o valor a ser retornado em Retry-After quando bloquear.
	// Se 0, não há recomendação.
	RetryAfter time.Duration
	// Degraded indica que o store de contadores falhou e a decisão foi fail-open.
	Degraded bool
}
