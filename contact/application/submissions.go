package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"contact-gateway/contact/domain"

	"github.com/google/uuid"
)

// ISOMillis é o formato de timestamp das chaves e do campo submittedAt (UTC, ms).
const ISOMillis = "2006-01-02T15:04:05.000Z"

// SubmissionRecord é o valor JSON gravado para cada mensagem aceita.
type SubmissionRecord struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Message     string `json:"message"`
	SubmittedAt string `json:"submittedAt"`
}

// SubmissionKey monta contact_{timestamp ISO}_{id}: ordenável e auditável.
func SubmissionKey(at time.Time, id string) string {
	return "contact_" + at.UTC().Format(ISOMillis) + "_" + id
}

// SubmissionStore grava mensagens aceitas (append puro, sem read-modify-write).
//
// Falha do store -> erro para o cliente (fail CLOSED). Ao contrário do
// RateLimiter, aqui não se pode perder silenciosamente uma mensagem aceita.
type SubmissionStore struct {
	Store domain.KVStore
	// NewID gera o sufixo aleatório da chave. Padrão: uuid v4.
	NewID func() string
}

func (s SubmissionStore) Save(ctx context.Context, sub domain.Submission) (string, error) {
	if s.Store == nil {
		return "", domain.ErrStorageFailure(fmt.Errorf("no submission store configured"))
	}
	newID := s.NewID
	if newID == nil {
		newID = func() string { return uuid.NewString() }
	}

	ts := sub.SubmittedAt.UTC()
	rec := SubmissionRecord{
		Name:        sub.Name,
		Email:       sub.Email,
		Message:     sub.Message,
		SubmittedAt: ts.Format(ISOMillis),
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return "", domain.ErrStorageFailure(fmt.Errorf("encode submission: %w", err))
	}

	key := SubmissionKey(ts, newID())
	if err := s.Store.Put(ctx, key, string(body), 0); err != nil {
		return "", domain.ErrStorageFailure(fmt.Errorf("put %s: %w", key, err))
	}
	return key, nil
}
