package contact

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"contact-gateway/contact/application"
	"contact-gateway/contact/domain"

	"go.uber.org/zap"
)

// DefaultMaxBodyBytes limita o corpo JSON (64 KiB sobra para 5000 caracteres).
const DefaultMaxBodyBytes int64 = 64 << 10

const msgMethodNotAllowed = "Method not allowed."

type Options struct {
	Gateway *application.Gateway
	Stats   domain.StatsStore
	KeyFn   KeyFunc
	Logger  *zap.Logger

	MaxBodyBytes int64
}

// Handler atende POST na rota de contato. CORS e preflight ficam no middleware CORS.
type Handler struct {
	gw       *application.Gateway
	stats    domain.StatsStore
	keyFn    KeyFunc
	log      *zap.Logger
	maxBytes int64
}

func NewHandler(opts Options) *Handler {
	if opts.KeyFn == nil {
		opts.KeyFn = ClientIP(DefaultClientIPHeader, true)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &Handler{
		gw:       opts.Gateway,
		stats:    opts.Stats,
		keyFn:    opts.KeyFn,
		log:      opts.Logger,
		maxBytes: opts.MaxBodyBytes,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST, OPTIONS")
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	start := time.Now()
	client := h.keyFn(r)

	res, err := h.submit(w, r, client)
	status := h.respond(w, res, err)

	if err != nil {
		h.log.Debug("submission rejected",
			zap.String("client", string(client)),
			zap.String("kind", domain.KindOf(err).String()),
			zap.Int("status", status),
			zap.Error(err),
		)
	}

	if h.stats != nil {
		_ = h.stats.Record(r.Context(), domain.StatsEvent{
			Client:   client,
			Outcome:  OutcomeFor(err),
			Method:   r.Method,
			Path:     r.URL.Path,
			Status:   status,
			Duration: time.Since(start),
			At:       start,
		})
	}
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request, client domain.ClientID) (application.Result, error) {
	raw, err := decodeBody(http.MaxBytesReader(w, r.Body, h.maxBytes))
	if err != nil {
		return application.Result{}, domain.ErrMalformedRequest(err)
	}
	return h.gw.Submit(r.Context(), client, raw)
}

// decodeBody exige exatamente um objeto JSON; null, array ou lixo depois do objeto
// são corpo inválido.
func decodeBody(body io.Reader) (application.RawSubmission, error) {
	var raw application.RawSubmission

	dec := json.NewDecoder(body)
	var msg json.RawMessage
	if err := dec.Decode(&msg); err != nil {
		return raw, err
	}
	if trimmed := bytes.TrimSpace(msg); len(trimmed) == 0 || trimmed[0] != '{' {
		return raw, errors.New("body is not a JSON object")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return raw, errors.New("unexpected data after JSON object")
	}
	if err := json.Unmarshal(msg, &raw); err != nil {
		return raw, err
	}
	return raw, nil
}

// respond escreve a resposta e devolve o status usado.
func (h *Handler) respond(w http.ResponseWriter, res application.Result, err error) int {
	if err == nil {
		setRateHeaders(w, res.Decision)
		writeJSON(w, http.StatusOK, successBody{Success: true, Message: msgReceived})
		return http.StatusOK
	}

	kind := domain.KindOf(err)
	status := StatusFor(kind)

	msg := domain.MsgStorageFailure
	var de *domain.Error
	if errors.As(err, &de) && de.Message != "" {
		msg = de.Message
	}

	if kind == domain.KindRateLimited {
		setRateHeaders(w, res.Decision)
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("Retry-After", retryAfterSeconds(res.Decision.RetryAfter))
	}
	if kind == domain.KindInternal {
		h.log.Error("unexpected error", zap.Error(err))
	}

	writeError(w, status, msg)
	return status
}

func setRateHeaders(w http.ResponseWriter, dec domain.Decision) {
	if dec.Limit <= 0 {
		return
	}
	w.Header().Set("X-RateLimit-Limit", formatInt(dec.Limit))
	w.Header().Set("X-RateLimit-Remaining", formatInt(dec.Remaining))
}

// StatusFor traduz o Kind do erro para status HTTP.
func StatusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindMalformedRequest,
		domain.KindMissingCaptchaToken,
		domain.KindCaptchaFailed,
		domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindCaptchaUnavailable, domain.KindServerMisconfigured:
		return http.StatusServiceUnavailable
	case domain.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
