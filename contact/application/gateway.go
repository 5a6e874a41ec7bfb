package application

import (
	"context"
	"time"

	"contact-gateway/contact/domain"

	"go.uber.org/zap"
)

// Deps são os colaboradores externos do gateway.
type Deps struct {
	Verifier domain.Verifier
	// Counters guarda os buckets do rate limit.
	Counters domain.KVStore
	// Submissions guarda as mensagens aceitas. Pode ser o mesmo store de Counters.
	Submissions domain.KVStore

	Secret string
	Bypass string

	Logger *zap.Logger
	Now    func() time.Time
	NewID  func() string
}

// Result é o que o adapter HTTP precisa para montar a resposta.
// Decision vem preenchida sempre que o estágio de rate limit rodou (inclusive no 429).
type Result struct {
	Decision domain.Decision
	Key      string
}

// Gateway orquestra o pipeline, estritamente sequencial:
//
//	VerifyBot -> ValidateFields -> CheckRateLimit -> Store
//
// Qualquer estágio pode encerrar com *domain.Error. Chegar em Store implica que
// todos os anteriores passaram. Não há retry dentro da request e nenhum estado
// mutável em memória: tudo que muda vive no KVStore.
type Gateway struct {
	cfg         domain.Config
	bot         BotCheck
	limiter     RateLimiter
	submissions SubmissionStore
	log         *zap.Logger
	now         func() time.Time
}

func NewGateway(cfg domain.Config, deps Deps) *Gateway {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	subStore := deps.Submissions
	if subStore == nil {
		subStore = deps.Counters
	}

	return &Gateway{
		cfg: cfg,
		bot: BotCheck{
			Verifier: deps.Verifier,
			Secret:   deps.Secret,
			Bypass:   deps.Bypass,
			Logger:   log,
		},
		limiter: RateLimiter{
			Store:  deps.Counters,
			Limit:  cfg.RateLimit,
			Window: cfg.RateWindow,
			Logger: log,
		},
		submissions: SubmissionStore{Store: subStore, NewID: deps.NewID},
		log:         log,
		now:         now,
	}
}

func (g *Gateway) Submit(ctx context.Context, client domain.ClientID, raw RawSubmission) (Result, error) {
	// 1) bot: o token ausente sai antes de qualquer I/O
	if err := g.bot.Check(ctx, raw.Token, client); err != nil {
		return Result{}, err
	}

	// 2) campos: nada de orçamento de rate limit para payload inválido
	fields, err := Validate(raw, g.cfg.Limits)
	if err != nil {
		return Result{}, err
	}

	// 3) rate limit
	now := g.now()
	dec := g.limiter.Decide(ctx, client, now)
	res := Result{Decision: dec}
	if !dec.Allowed {
		return res, domain.ErrRateLimited()
	}

	// cliente desconectou: não grava mensagem parcial
	if err := ctx.Err(); err != nil {
		return res, domain.ErrStorageFailure(err)
	}

	// 4) store
	key, err := g.submissions.Save(ctx, domain.Submission{Fields: fields, SubmittedAt: now})
	if err != nil {
		g.log.Error("failed to store submission", zap.String("client", string(client)), zap.Error(err))
		return res, err
	}
	res.Key = key
	return res, nil
}
