package contact

import (
	"net/http"

	"contact-gateway/contact/application"
)

// CORS aplica a política de origem em todas as respostas e responde o preflight.
//
// Access-Control-Allow-Origin nunca é "*": origem não permitida (ou ausente)
// recebe a origem de produção.
func CORS(policy application.OriginPolicy) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", policy.Resolve(r.Header.Get("Origin")))
			h.Add("Vary", "Origin")

			if r.Method == http.MethodOptions {
				h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Content-Type")
				h.Set("Access-Control-Max-Age", "86400")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
