// Package ratelimit é o adapter HTTP (net/http) do rate limit que fica na
// frente do backend de identidade.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: tabela de políticas, consulta fail-open ao limiter e decisão
//   - infra: limiters concretos (token bucket, Redis), bindings, stats, semáforo
//   - ratelimit (este pacote): extração de chave, resposta 429, dispatcher e middlewares
//
// Fluxo por request:
//
//  1. Procura o path na tabela de políticas (match exato); fora dela vai direto ao backend
//  2. Extrai a chave (email do body ou IP do header cf-connecting-ip)
//  3. Consulta o limiter pelo nome do binding; erro ou ausência = não limitado
//  4. Limitado: responde 429 com Retry-After: 60. Senão chama o backend com o body intacto
//
// Disparos agendados (Dispatcher.Scheduled) não passam pelo rate limit.
package ratelimit
