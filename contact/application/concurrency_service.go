package application

import (
	"context"
	"errors"
	"time"

	"contact-gateway/contact/domain"
)

// ConcurrencyService limita quantos envios ficam em andamento ao mesmo tempo,
// sem saber nada sobre HTTP.
type ConcurrencyService struct {
	Pool           domain.SlotPool
	AcquireTimeout time.Duration
}

// Acquire tenta adquirir uma vaga e, quando não consegue, diz por quê.
//   - AcquireTimeout <= 0: espera até o ctx da request encerrar.
//   - AcquireTimeout > 0: espera no máximo AcquireTimeout.
//
// Se o ctx da request já encerrou, devolve ctx.Err() (o cliente desistiu).
// Caso contrário devolve domain.ErrServerBusy com a causa (deadline da espera).
// Com erro, nenhuma vaga foi adquirida e release é nil.
func (s ConcurrencyService) Acquire(ctx context.Context) (release func(), err error) {
	if s.Pool == nil {
		return func() {}, nil
	}

	acqCtx := ctx
	if s.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		acqCtx, cancel = context.WithTimeout(ctx, s.AcquireTimeout)
		defer cancel()
	}

	release, ok := s.Pool.Acquire(acqCtx)
	if ok {
		return release, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cause := acqCtx.Err()
	if cause == nil {
		cause = errors.New("slot pool refused acquire")
	}
	return nil, domain.ErrServerBusy(cause)
}
