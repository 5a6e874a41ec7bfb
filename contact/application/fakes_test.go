package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"contact-gateway/contact/domain"
)

type fakeVerifier struct {
	mu    sync.Mutex
	calls []domain.VerifyRequest
	res   domain.VerifyResult
	err   error
}

func (f *fakeVerifier) Verify(_ context.Context, req domain.VerifyRequest) (domain.VerifyResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	return f.res, f.err
}

func (f *fakeVerifier) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type putCall struct {
	key   string
	value string
	ttl   time.Duration
}

// fakeKV guarda tudo em mapa e registra cada Put.
type fakeKV struct {
	mu     sync.Mutex
	data   map[string]string
	puts   []putCall
	getErr error
	putErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string]string)}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", false, f.getErr
	}
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeKV) Put(_ context.Context, key, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	f.puts = append(f.puts, putCall{key: key, value: value, ttl: ttl})
	f.data[key] = value
	return nil
}

func (f *fakeKV) Puts() []putCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]putCall, len(f.puts))
	copy(out, f.puts)
	return out
}

var errStoreDown = errors.New("store down")

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
