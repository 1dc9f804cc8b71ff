package ratelimit

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/Cranyozen/warden-worker/middleware/ratelimit/domain"

	"github.com/seancfoley/ipaddress-go/ipaddr"
	"go.uber.org/zap"
)

const (
	DefaultClientIPHeader = "cf-connecting-ip"
	DefaultMaxBodyBytes   = 64 << 10
)

var (
	errUnsupportedContentType = errors.New("unsupported content type")
	errNoEmailField           = errors.New("no email/username field in body")
	errBodyTooLarge           = errors.New("body larger than extraction limit")
	errNotString              = errors.New("email field is not a string")
)

// Extractor deriva a chave de rate limit de um request.
//
// Nunca falha: qualquer problema na estratégia EMAIL cai para a chave por IP.
type Extractor struct {
	// IPHeader é o header confiável com o IP original do cliente.
	IPHeader string
	// MaxBodyBytes limita quanto do body é lido para achar o email.
	MaxBodyBytes int64
	Logger       *zap.Logger
}

func (e Extractor) Extract(r *http.Request, s domain.Strategy) domain.Key {
	if s != domain.StrategyEmail {
		return e.ipKey(r)
	}

	email, err := e.emailFromBody(r)
	if err != nil {
		e.logger().Warn("could not extract email for rate limit key, falling back to IP",
			zap.String("endpoint", r.URL.Path),
			zap.Error(err))
		return e.ipKey(r)
	}
	return domain.EmailKey(email)
}

func (e Extractor) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

func (e Extractor) ipKey(r *http.Request) domain.Key {
	header := e.IPHeader
	if header == "" {
		header = DefaultClientIPHeader
	}
	return domain.IPKey(normalizeIP(strings.TrimSpace(r.Header.Get(header))))
}

// normalizeIP deixa grafias equivalentes de um IPv6 (ex: "2001:DB8::0:1" e
// "2001:db8::1") com a mesma chave. IPv4 e qualquer outro valor ficam como
// vieram: o parser aceita formas inet_aton ("127.1", "0x7f.1") que não devem
// ser reescritas.
func normalizeIP(v string) string {
	if !strings.Contains(v, ":") {
		return v
	}
	addr, err := ipaddr.NewIPAddressString(v).ToAddress()
	if err != nil || addr == nil || !addr.IsIPv6() || addr.IsPrefixed() || addr.IsMultiple() {
		return v
	}
	return addr.ToCanonicalString()
}

func (e Extractor) emailFromBody(r *http.Request) (email string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic reading body: %v", p)
		}
	}()

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("%w: %v", errUnsupportedContentType, err)
	}
	isJSON := mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
	isForm := mediaType == "application/x-www-form-urlencoded"
	if !isJSON && !isForm {
		return "", fmt.Errorf("%w: %s", errUnsupportedContentType, mediaType)
	}

	body, err := e.peekBody(r)
	if err != nil {
		return "", err
	}

	if isForm {
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return "", fmt.Errorf("parse form body: %w", err)
		}
		if v := values.Get("username"); v != "" {
			return v, nil
		}
		return "", errNoEmailField
	}

	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return "", fmt.Errorf("parse json body: %w", err)
	}
	// vale o primeiro campo "verdadeiro" (email, senão username); se ele não
	// for string a extração falha em vez de pular para o próximo campo.
	for _, field := range []string{"email", "username"} {
		v := data[field]
		if !truthy(v) {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("%w: %s is %T", errNotString, field, v)
		}
		return s, nil
	}
	return "", errNoEmailField
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	}
	return true
}

// peekBody lê até MaxBodyBytes do body e devolve ao request um reader com o
// conteúdo completo, de forma que o backend receba o body intacto.
func (e Extractor) peekBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, errNoEmailField
	}
	limit := e.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}

	orig := r.Body
	buf, err := io.ReadAll(io.LimitReader(orig, limit+1))
	r.Body = &replayBody{Reader: io.MultiReader(bytes.NewReader(buf), orig), Closer: orig}
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(buf)) > limit {
		return nil, errBodyTooLarge
	}
	return buf, nil
}

type replayBody struct {
	io.Reader
	io.Closer
}
