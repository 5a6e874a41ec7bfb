package application

import (
	"net/url"
	"strconv"
	"strings"

	"contact-gateway/contact/domain"
)

// OriginPolicy decide qual origem ecoar em Access-Control-Allow-Origin.
//
// Aceita exatamente três formatos:
//   - http://localhost[:porta] (desenvolvimento)
//   - https://*.<ProductionDomain> (e o próprio domínio)
//   - https://*.<PreviewDomain> (deploys de preview)
//
// Qualquer outra coisa, inclusive header ausente ou malformado, cai na origem
// canônica de produção. Nunca devolve "*".
type OriginPolicy struct {
	ProductionOrigin string
	ProductionDomain string
	PreviewDomain    string
}

func NewOriginPolicy(cfg domain.Config) OriginPolicy {
	p := OriginPolicy{
		ProductionOrigin: cfg.ProductionOrigin,
		ProductionDomain: strings.ToLower(strings.TrimSpace(cfg.ProductionDomain)),
		PreviewDomain:    strings.ToLower(strings.TrimSpace(cfg.PreviewDomain)),
	}
	if p.ProductionDomain == "" {
		if u, err := url.Parse(cfg.ProductionOrigin); err == nil {
			p.ProductionDomain = strings.ToLower(u.Hostname())
		}
	}
	return p
}

// Resolve é total e sem efeitos colaterais.
func (p OriginPolicy) Resolve(origin string) string {
	if p.Allowed(origin) {
		return origin
	}
	return p.ProductionOrigin
}

func (p OriginPolicy) Allowed(origin string) bool {
	if origin == "" {
		return false
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	// Origin é só scheme://host[:porta], sem barra final nem ":" vazio;
	// como o valor é ecoado como veio, só a forma canônica passa.
	if u.User != nil || u.Opaque != "" || u.RawQuery != "" || u.Fragment != "" || u.ForceQuery {
		return false
	}
	if u.Path != "" || strings.HasSuffix(u.Host, ":") {
		return false
	}

	host := strings.ToLower(u.Hostname())
	switch u.Scheme {
	case "http":
		return host == "localhost" && validPort(u.Port())
	case "https":
		if u.Port() != "" {
			return false
		}
		if p.ProductionDomain != "" && (host == p.ProductionDomain || isSubdomain(host, p.ProductionDomain)) {
			return true
		}
		return p.PreviewDomain != "" && isSubdomain(host, p.PreviewDomain)
	default:
		return false
	}
}

func isSubdomain(host, parent string) bool {
	sub, ok := strings.CutSuffix(host, "."+parent)
	return ok && sub != "" && !strings.HasPrefix(sub, ".") && !strings.HasSuffix(sub, ".")
}

func validPort(port string) bool {
	if port == "" {
		return true
	}
	for _, c := range port {
		if c < '0' || c > '9' {
			return false
		}
	}
	n, err := strconv.Atoi(port)
	return err == nil && n >= 1 && n <= 65535 && port[0] != '0'
}
