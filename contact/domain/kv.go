package domain

import (
	"context"
	"time"
)

// KVStore é o armazenamento chave/valor externo usado pelo gateway.
//
// Guarda tanto os contadores do rate limit (com TTL) quanto as mensagens
// aceitas (sem TTL). Implementações podem ser Redis, Postgres, S3, memória, etc.
type KVStore interface {
	// Get retorna (valor, true, nil) quando a chave existe e não expirou,
	// ("", false, nil) quando não existe.
	Get(ctx context.Context, key string) (string, bool, error)
	// Put grava o valor. ttl == 0 significa sem expiração.
	Put(ctx context.Context, key, value string, ttl time.Duration) error
}
