// Package domain define contratos e tipos de domínio do gateway de contato.
//
// Este pacote não depende de net/http nem de implementações concretas
// (Redis, Postgres, S3, Turnstile). A intenção é permitir testes de unidade
// puros e desacoplar as regras do gateway dos detalhes de infraestrutura.
package domain
