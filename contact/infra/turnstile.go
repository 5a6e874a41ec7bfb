package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"contact-gateway/contact/domain"

	"golang.org/x/time/rate"
)

const DefaultTurnstileURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

// TurnstileVerifier chama o endpoint siteverify do Cloudflare Turnstile.
//
// Cada chamada tem timeout próprio (padrão 10s): um travamento no serviço
// vira ErrVerifierUnavailable em vez de segurar a request indefinidamente.
// Opcionalmente limita a taxa de chamadas de saída com um token bucket
// (x/time/rate); sem ficha disponível a chamada nem sai e o cliente recebe 503.
type TurnstileVerifier struct {
	client   *http.Client
	endpoint string
	timeout  time.Duration
	limiter  *rate.Limiter
}

type TurnstileOption func(*TurnstileVerifier)

func WithEndpoint(u string) TurnstileOption {
	return func(v *TurnstileVerifier) {
		if u != "" {
			v.endpoint = u
		}
	}
}

func WithTimeout(d time.Duration) TurnstileOption {
	return func(v *TurnstileVerifier) { v.timeout = d }
}

func WithHTTPClient(c *http.Client) TurnstileOption {
	return func(v *TurnstileVerifier) { v.client = c }
}

// WithCallRate limita chamadas de saída (rps <= 0 desliga).
func WithCallRate(rps float64, burst int) TurnstileOption {
	return func(v *TurnstileVerifier) {
		if rps <= 0 {
			v.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		v.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func NewTurnstileVerifier(opts ...TurnstileOption) *TurnstileVerifier {
	v := &TurnstileVerifier{
		client:   &http.Client{},
		endpoint: DefaultTurnstileURL,
		timeout:  10 * time.Second,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

var _ domain.Verifier = (*TurnstileVerifier)(nil)

type siteverifyRequest struct {
	Secret   string `json:"secret"`
	Response string `json:"response"`
	RemoteIP string `json:"remoteip,omitempty"`
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

func (v *TurnstileVerifier) Verify(ctx context.Context, req domain.VerifyRequest) (domain.VerifyResult, error) {
	if v.limiter != nil && !v.limiter.Allow() {
		return domain.VerifyResult{}, fmt.Errorf("%w: outbound call rate exceeded", domain.ErrVerifierUnavailable)
	}

	body, err := json.Marshal(siteverifyRequest{
		Secret:   req.Secret,
		Response: req.Token,
		RemoteIP: req.RemoteIP,
	})
	if err != nil {
		return domain.VerifyResult{}, fmt.Errorf("%w: marshal request: %w", domain.ErrVerifierUnavailable, err)
	}

	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.VerifyResult{}, fmt.Errorf("%w: create request: %w", domain.ErrVerifierUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(httpReq)
	if err != nil {
		return domain.VerifyResult{}, fmt.Errorf("%w: http request: %w", domain.ErrVerifierUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return domain.VerifyResult{}, fmt.Errorf("%w: unexpected status %d", domain.ErrVerifierUnavailable, resp.StatusCode)
	}

	var out siteverifyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&out); err != nil {
		return domain.VerifyResult{}, fmt.Errorf("%w: decode response: %w", domain.ErrVerifierUnavailable, err)
	}
	return domain.VerifyResult{Success: out.Success, ErrorCodes: out.ErrorCodes}, nil
}
