// Package contact fornece os adapters HTTP (net/http) do gateway de contato.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (origem, captcha, validação, rate limit, gravação)
//   - infra: implementações concretas (KV em memória/Redis/Postgres/S3, Turnstile, stats)
//   - contact (este pacote): handler HTTP, CORS, extração do IP do cliente e
//     tradução de erros para status/headers
//
// Fluxo de uma requisição:
//
//  1. CORS resolve a origem (em todas as respostas, inclusive erros)
//  2. OPTIONS responde 204; métodos diferentes de POST respondem 405
//  3. Decodifica o corpo JSON
//  4. application.Gateway: captcha -> campos -> rate limit -> gravação
//  5. Mapeia o resultado para status + JSON {success, message|error}
package contact
