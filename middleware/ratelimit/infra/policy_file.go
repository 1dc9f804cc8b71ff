package infra

import (
	"errors"
	"fmt"
	"os"

	"github.com/Cranyozen/warden-worker/middleware/ratelimit/domain"

	"gopkg.in/yaml.v3"
)

var ErrUnknownStrategy = errors.New("unknown key strategy")

// policyFile é o formato do arquivo POLICY_FILE:
//
//	policies:
//	  - path: /identity/connect/token
//	    limiter: LOGIN_RATE_LIMITER
//	    strategy: EMAIL
type policyFile struct {
	Policies []struct {
		Path     string `yaml:"path"`
		Limiter  string `yaml:"limiter"`
		Strategy string `yaml:"strategy"`
	} `yaml:"policies"`
}

func LoadPolicies(path string) ([]domain.Policy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	return ParsePolicies(raw)
}

func ParsePolicies(raw []byte) ([]domain.Policy, error) {
	var f policyFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse policy file: %w", err)
	}

	out := make([]domain.Policy, 0, len(f.Policies))
	for i, p := range f.Policies {
		if p.Path == "" {
			return nil, fmt.Errorf("policy %d: path is required", i)
		}
		if p.Limiter == "" {
			return nil, fmt.Errorf("policy %d (%s): limiter is required", i, p.Path)
		}
		s, err := domain.ParseStrategy(p.Strategy)
		if err != nil {
			return nil, fmt.Errorf("policy %d (%s): %w: %q", i, p.Path, ErrUnknownStrategy, p.Strategy)
		}
		out = append(out, domain.Policy{Path: p.Path, LimiterName: p.Limiter, Strategy: s})
	}
	return out, nil
}
