package contact

import (
	"net/http"

	"contact-gateway/contact/domain"

	"go.uber.org/zap"
)

// Recover converte panic em 500 com corpo JSON; o cliente nunca vê stack trace.
func Recover(log *zap.Logger) func(next http.Handler) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error("panic in handler",
					zap.Any("panic", rec),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Stack("stack"),
				)
				writeError(w, http.StatusInternalServerError, domain.MsgStorageFailure)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
