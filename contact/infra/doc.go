// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - MemoryKV / RedisKV / PostgresKV / S3KV: domain.KVStore
//   - TurnstileVerifier: domain.Verifier sobre o siteverify do Cloudflare
//   - MemoryStatsStore / RedisStatsStore / PrometheusStats: domain.StatsStore
//   - ChanPool: semáforo simples para limite de concorrência
package infra
