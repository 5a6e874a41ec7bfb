package application

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"contact-gateway/contact/domain"

	"go.uber.org/zap"
)

// RateLimiter conta envios por cliente em buckets fixos (UTC) guardados no KVStore.
//
// O incremento é read-then-write e NÃO é atômico: duas requests simultâneas do
// mesmo IP no mesmo bucket podem ler o mesmo valor e ambas passarem. Limitação
// aceita; explorar isso exige passar pela verificação de bot várias vezes em paralelo.
//
// Falha do store -> fail OPEN (permite). Isso é assimétrico de propósito em relação
// ao SubmissionStore, que falha FECHADO. Não "corrigir" para ficarem iguais.
type RateLimiter struct {
	Store  domain.KVStore
	Limit  int
	Window time.Duration
	Logger *zap.Logger
}

// BucketStart arredonda now para baixo até o início do bucket, em UTC.
func BucketStart(now time.Time, window time.Duration) time.Time {
	return now.UTC().Truncate(window)
}

// BucketKey monta a chave ratelimit_{ip}_{inicio do bucket em ms unix}.
func BucketKey(client domain.ClientID, start time.Time) string {
	return fmt.Sprintf("ratelimit_%s_%d", client, start.UnixMilli())
}

func (l RateLimiter) window() time.Duration {
	if l.Window <= 0 {
		return time.Hour
	}
	return l.Window
}

func (l RateLimiter) Decide(ctx context.Context, client domain.ClientID, now time.Time) domain.Decision {
	if l.Store == nil || l.Limit <= 0 {
		return domain.Decision{Allowed: true, Limit: l.Limit, Remaining: l.Limit}
	}
	log := l.Logger
	if log == nil {
		log = zap.NewNop()
	}

	window := l.window()
	start := BucketStart(now, window)
	key := BucketKey(client, start)

	raw, found, err := l.Store.Get(ctx, key)
	if err != nil {
		log.Warn("rate limit store unavailable; allowing request", zap.String("key", key), zap.Error(err))
		return l.failOpen()
	}

	count := 0
	if found {
		n, perr := strconv.Atoi(strings.TrimSpace(raw))
		if perr != nil || n < 0 {
			log.Warn("corrupt rate limit counter; treating as zero", zap.String("key", key), zap.String("value", raw))
		} else {
			count = n
		}
	}

	if count >= l.Limit {
		return domain.Decision{
			Allowed:    false,
			Limit:      l.Limit,
			Remaining:  0,
			RetryAfter: start.Add(window).Sub(now),
		}
	}

	if err := l.Store.Put(ctx, key, strconv.Itoa(count+1), window); err != nil {
		log.Warn("rate limit counter write failed; allowing request", zap.String("key", key), zap.Error(err))
		return l.failOpen()
	}

	return domain.Decision{
		Allowed:   true,
		Limit:     l.Limit,
		Remaining: l.Limit - count - 1,
	}
}

func (l RateLimiter) failOpen() domain.Decision {
	return domain.Decision{
		Allowed:   true,
		Limit:     l.Limit,
		Remaining: l.Limit - 1,
		Degraded:  true,
	}
}
