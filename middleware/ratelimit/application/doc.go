// Package application contém os casos de uso do rate limit: tabela de
// políticas, consulta fail-open ao limiter e a decisão por request, além do
// limite de concorrência.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Service.Decide(ctx, path, keyFn) retorna uma Decision (limitado ou não).
package application
