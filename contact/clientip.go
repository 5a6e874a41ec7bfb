package contact

import (
	"net/http"
	"strings"

	"contact-gateway/contact/domain"
)

// KeyFunc extrai a identidade do cliente usada no rate limit.
type KeyFunc func(r *http.Request) domain.ClientID

// DefaultClientIPHeader é o header que o Cloudflare preenche com o IP do visitante.
const DefaultClientIPHeader = "CF-Connecting-IP"

// ClientIP lê o IP do header configurado, depois o primeiro item do
// X-Forwarded-For (se trustXFF) e, sem nenhum dos dois, devolve "unknown".
//
// RemoteAddr não entra: atrás do proxy ele é o IP do proxy, e todos os
// visitantes cairiam no mesmo bucket.
func ClientIP(keyHeader string, trustXFF bool) KeyFunc {
	return func(r *http.Request) domain.ClientID {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return domain.ClientID(v)
			}
		}

		if trustXFF {
			// pega o primeiro IP do X-Forwarded-For (cliente original)
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				first, _, _ := strings.Cut(xff, ",")
				if ip := strings.TrimSpace(first); ip != "" {
					return domain.ClientID(ip)
				}
			}
		}

		return domain.UnknownClient
	}
}
