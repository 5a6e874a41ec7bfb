package domain

import "time"

// FieldLimits são os tamanhos máximos (em caracteres) de cada campo.
type FieldLimits struct {
	NameMax    int
	EmailMax   int
	MessageMax int
}

// Config reúne os parâmetros do gateway que antes seriam constantes globais.
// É passada na construção do gateway; nada aqui é alterado em runtime.
type Config struct {
	// RateLimit é o número de envios aceitos por cliente em cada bucket.
	RateLimit int
	// RateWindow é o tamanho do bucket fixo (padrão: 1h, alinhado em UTC).
	RateWindow time.Duration

	Limits FieldLimits

	// ProductionOrigin é a origem canônica usada como fallback do CORS.
	ProductionOrigin string
	// ProductionDomain libera https://*.<domínio>. Se vazio, usa o host de ProductionOrigin.
	ProductionDomain string
	// PreviewDomain libera https://*.<domínio> de deploys de preview.
	PreviewDomain string
}

func DefaultConfig() Config {
	return Config{
		RateLimit:  5,
		RateWindow: time.Hour,
		Limits: FieldLimits{
			NameMax:    100,
			EmailMax:   254,
			MessageMax: 5000,
		},
		PreviewDomain: "pages.dev",
	}
}
