package domain

import (
	"context"
	"time"
)

const (
	// OutcomeAccepted é o Outcome de um envio gravado com sucesso.
	OutcomeAccepted = "accepted"
	// OutcomeClientGone marca a requisição cujo cliente desistiu antes de ganhar vaga.
	OutcomeClientGone = "client_gone"
)

// StatsEvent representa o desfecho de uma requisição ao gateway.
//
// Outcome é o nome do Kind do erro (ex.: "rate_limited") ou OutcomeAccepted.
//
// Observação: cuidado com cardinalidade (ex.: salvar Client/Path sem controle pode
// explodir o número de séries/chaves em uma base como Redis/Prometheus).
type StatsEvent struct {
	Client  ClientID
	Outcome string

	Method string
	Path   string
	Status int

	Duration time.Duration
	At       time.Time
}

// StatsStore é a estratégia de persistência para estatísticas do gateway.
//
// Implementações podem armazenar em Redis, Prometheus, memória, etc.
// O handler trata erro como best-effort (não derruba a request).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
