// Package infra contém implementações concretas para os contratos do pacote domain.
//
//   - Store: limiter token-bucket em processo (golang.org/x/time/rate)
//   - RedisLimiter: limiter de janela fixa compartilhado (go-redis)
//   - Registry: bindings nome -> limiter
//   - LoadPolicies: tabela de políticas a partir de YAML
//   - MemoryStatsStore / RedisStatsStore: estatísticas das decisões
//   - ChanPool: semáforo simples para limite de concorrência
package infra
