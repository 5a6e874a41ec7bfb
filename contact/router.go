package contact

import (
	"net/http"

	"contact-gateway/contact/application"
)

// Routes monta a rota de contato com CORS na frente do handler.
// Qualquer outro caminho responde 404 sem CORS.
func Routes(path string, policy application.OriginPolicy, h http.Handler) http.Handler {
	if path == "" {
		path = "/contact"
	}
	mux := http.NewServeMux()
	mux.Handle(path, CORS(policy)(h))
	return mux
}
