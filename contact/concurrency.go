package contact

import (
	"context"
	"errors"
	"net/http"
	"time"

	"contact-gateway/contact/application"
	"contact-gateway/contact/domain"
	"contact-gateway/contact/infra"

	"go.uber.org/zap"
)

type ConcurrencyOptions struct {
	Max            int
	RejectStatus   int
	AcquireTimeout time.Duration

	// Opcionais: quem foi recusado e por quê vão para Stats e Logger.
	Stats  domain.StatsStore
	Logger *zap.Logger
	KeyFn  KeyFunc
}

// ConcurrencyMiddleware limita quantas requisições ficam em andamento.
// Max <= 0 desliga o limite.
//
// Sem vaga a tempo: RejectStatus (503 por padrão) com MsgServerBusy e outcome
// "server_busy". Cliente que desistiu na fila: outcome OutcomeClientGone.
func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Max <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = StatusFor(domain.KindServerBusy)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.KeyFn == nil {
		opts.KeyFn = ClientIP(DefaultClientIPHeader, true)
	}

	svc := application.ConcurrencyService{
		Pool:           infra.NewChanPool(opts.Max),
		AcquireTimeout: opts.AcquireTimeout,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			release, err := svc.Acquire(r.Context())
			if err != nil {
				reject(w, r, opts, err, start)
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}

func reject(w http.ResponseWriter, r *http.Request, opts ConcurrencyOptions, err error, start time.Time) {
	client := opts.KeyFn(r)

	outcome := OutcomeFor(err)
	msg := domain.MsgServerBusy
	var de *domain.Error
	if errors.As(err, &de) && de.Message != "" {
		msg = de.Message
	}

	opts.Logger.Warn("request rejected by concurrency limit",
		zap.String("client", string(client)),
		zap.String("outcome", outcome),
		zap.Duration("waited", time.Since(start)),
		zap.Error(err),
	)

	// cliente que já foi embora não lê o corpo, mas o status fica no log de acesso
	writeError(w, opts.RejectStatus, msg)

	if opts.Stats != nil {
		// o ctx da request pode já ter encerrado; o registro não depende dele
		_ = opts.Stats.Record(context.WithoutCancel(r.Context()), domain.StatsEvent{
			Client:   client,
			Outcome:  outcome,
			Method:   r.Method,
			Path:     r.URL.Path,
			Status:   opts.RejectStatus,
			Duration: time.Since(start),
			At:       start,
		})
	}
}

// OutcomeFor devolve o Outcome de StatsEvent para err: OutcomeAccepted quando nil,
// o nome do Kind para erros tipados e OutcomeClientGone quando só sobrou o erro
// do ctx da request.
func OutcomeFor(err error) string {
	var de *domain.Error
	switch {
	case err == nil:
		return domain.OutcomeAccepted
	case errors.As(err, &de):
		return de.Kind.String()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domain.OutcomeClientGone
	default:
		return domain.KindInternal.String()
	}
}
