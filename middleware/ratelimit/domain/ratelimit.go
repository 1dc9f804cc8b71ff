package domain

// Camada de domínio do rate limit.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import (
	"context"
	"fmt"
	"strings"
)

// Key é a chave de particionamento enviada ao limiter (ex: "email:a@b.com", "ip:1.2.3.4").
type Key string

const (
	EmailPrefix = "email:"
	IPPrefix    = "ip:"

	// UnknownIP é o sentinela usado quando não há IP de cliente.
	UnknownIP = "unknown"
)

func EmailKey(email string) Key { return Key(EmailPrefix + strings.ToLower(email)) }

func IPKey(ip string) Key {
	if ip == "" {
		ip = UnknownIP
	}
	return Key(IPPrefix + ip)
}

// Strategy define como a chave é derivada para um endpoint.
type Strategy string

const (
	StrategyEmail Strategy = "EMAIL"
	StrategyIP    Strategy = "IP"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToUpper(strings.TrimSpace(s))) {
	case StrategyEmail:
		return StrategyEmail, nil
	case StrategyIP:
		return StrategyIP, nil
	}
	return "", fmt.Errorf("unknown key strategy %q", s)
}

// Policy é uma entrada da tabela de endpoints protegidos.
type Policy struct {
	Path        string   `yaml:"path"`
	LimiterName string   `yaml:"limiter"`
	Strategy    Strategy `yaml:"strategy"`
}

// Limiter é a capacidade externa de rate limit.
//
// A contagem fica toda do lado dela; aqui só perguntamos se a chave pode seguir.
// A implementação pode ser token-bucket local, Redis, um serviço remoto, etc.
type Limiter interface {
	Limit(ctx context.Context, key Key) (success bool, err error)
}

// LimiterFunc adapta uma função comum para Limiter.
type LimiterFunc func(ctx context.Context, key Key) (bool, error)

func (f LimiterFunc) Limit(ctx context.Context, key Key) (bool, error) { return f(ctx, key) }

// Bindings resolve limiters pelo nome configurado (ex: LOGIN_RATE_LIMITER).
type Bindings interface {
	Limiter(name string) (Limiter, bool)
}

// Outcome descreve como o gateway chegou no resultado.
type Outcome int

const (
	OutcomeAllowed Outcome = iota
	OutcomeLimited
	// OutcomeMissingBinding: limiter não configurado (fail-open).
	OutcomeMissingBinding
	// OutcomeFailed: erro, panic ou timeout do limiter (fail-open).
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAllowed:
		return "allowed"
	case OutcomeLimited:
		return "limited"
	case OutcomeMissingBinding:
		return "missing_binding"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// LimiterResult é o resultado normalizado de uma consulta ao limiter.
// Só OutcomeLimited bloqueia; todo o resto deixa passar.
type LimiterResult struct {
	Outcome Outcome
	Err     error
}

func (r LimiterResult) Allowed() bool { return r.Outcome != OutcomeLimited }

// Decision é criada por request e descartada em seguida.
type Decision struct {
	Limited      bool
	Key          Key
	EndpointPath string
	Outcome      Outcome
}
