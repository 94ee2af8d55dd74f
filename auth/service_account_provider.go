package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/andersonfds/freitool/core"
	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultAssertionTTL    = time.Hour
	DefaultAccessTokenTTL  = time.Hour
	serviceAccountKeyClass = "service_account"
)

// AssertionExchanger trades a signed JWT assertion for a bearer token.
type AssertionExchanger interface {
	ExchangeAssertion(ctx context.Context, assertion string) (core.TokenGrant, error)
}

type ServiceAccountProviderConfig struct {
	KeyPath      string
	TokenURL     string
	Scope        string
	AssertionTTL time.Duration
	RenewBefore  time.Duration
	Now          func() time.Time
	ReadFile     func(string) ([]byte, error)
}

// ServiceAccountDescriptor is the subset of a Google service-account key file
// needed to sign assertions.
type ServiceAccountDescriptor struct {
	Type         string `json:"type"`
	ClientEmail  string `json:"client_email"`
	PrivateKey   string `json:"private_key"`
	PrivateKeyID string `json:"private_key_id"`
	TokenURI     string `json:"token_uri"`
}

// ServiceAccountProvider signs an RS256 assertion and exchanges it for a
// bearer token. The token expiry is tracked from the exchange response.
type ServiceAccountProvider struct {
	config    ServiceAccountProviderConfig
	exchanger AssertionExchanger
	mu        sync.Mutex
	cached    core.Credential
}

func NewServiceAccountProvider(cfg ServiceAccountProviderConfig, exchanger AssertionExchanger) *ServiceAccountProvider {
	assertionTTL := cfg.AssertionTTL
	if assertionTTL <= 0 {
		assertionTTL = DefaultAssertionTTL
	}
	renewBefore := cfg.RenewBefore
	if renewBefore <= 0 {
		renewBefore = core.DefaultCredentialRenewBefore
	}
	return &ServiceAccountProvider{
		config: ServiceAccountProviderConfig{
			KeyPath:      strings.TrimSpace(cfg.KeyPath),
			TokenURL:     strings.TrimSpace(cfg.TokenURL),
			Scope:        firstNonEmpty(cfg.Scope, core.GooglePlayPublisherScope),
			AssertionTTL: assertionTTL,
			RenewBefore:  renewBefore,
			Now:          defaultNow(cfg.Now),
			ReadFile:     defaultReadFile(cfg.ReadFile),
		},
		exchanger: exchanger,
	}
}

// LoadServiceAccountDescriptor reads and validates a service-account key file.
func LoadServiceAccountDescriptor(readFile func(string) ([]byte, error), keyPath string) (ServiceAccountDescriptor, error) {
	raw, err := defaultReadFile(readFile)(keyPath)
	if err != nil {
		return ServiceAccountDescriptor{}, core.AuthError(
			core.ErrorKeyUnreadable,
			fmt.Sprintf("auth: read service account key %s", keyPath),
			err,
		)
	}
	var descriptor ServiceAccountDescriptor
	if err := json.Unmarshal(raw, &descriptor); err != nil {
		return ServiceAccountDescriptor{}, core.AuthError(core.ErrorMalformedKeyFile, "auth: decode service account key", err)
	}
	if descriptor.Type != "" && descriptor.Type != serviceAccountKeyClass {
		return ServiceAccountDescriptor{}, core.AuthError(
			core.ErrorMalformedKeyFile,
			fmt.Sprintf("auth: service account key type %q is not supported", descriptor.Type),
			nil,
		)
	}
	if strings.TrimSpace(descriptor.ClientEmail) == "" || strings.TrimSpace(descriptor.PrivateKey) == "" {
		return ServiceAccountDescriptor{}, core.AuthError(
			core.ErrorMalformedKeyFile,
			"auth: service account key requires client_email and private_key",
			nil,
		)
	}
	return descriptor, nil
}

func (p *ServiceAccountProvider) Obtain(ctx context.Context) (core.Credential, error) {
	if p == nil {
		return core.Credential{}, core.InternalError("auth: service account provider is nil")
	}
	if p.exchanger == nil {
		return core.Credential{}, core.InternalError("auth: service account provider requires an assertion exchanger")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.config.Now().UTC()
	state := core.ResolveCredentialTokenState(now, p.cached, p.config.RenewBefore)
	if !core.ShouldRemint(state) {
		return p.cached, nil
	}

	assertion, err := p.signAssertion(now)
	if err != nil {
		return core.Credential{}, err
	}
	grant, err := p.exchanger.ExchangeAssertion(ctx, assertion)
	if err != nil {
		return core.Credential{}, core.AuthError(core.ErrorExchangeFailed, "auth: exchange service account assertion", err)
	}
	if strings.TrimSpace(grant.AccessToken) == "" {
		return core.Credential{}, core.AuthError(core.ErrorExchangeFailed, "auth: token exchange returned no access token", nil)
	}
	expiresIn := grant.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = DefaultAccessTokenTTL
	}

	p.cached = core.Credential{
		Token:     grant.AccessToken,
		ExpiresAt: now.Add(expiresIn),
	}
	return p.cached, nil
}

func (p *ServiceAccountProvider) Invalidate() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cached = core.Credential{}
}

func (p *ServiceAccountProvider) signAssertion(now time.Time) (string, error) {
	descriptor, err := LoadServiceAccountDescriptor(p.config.ReadFile, p.config.KeyPath)
	if err != nil {
		return "", err
	}
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(descriptor.PrivateKey))
	if err != nil {
		return "", core.AuthError(core.ErrorMalformedKeyFile, "auth: parse service account private key", err)
	}

	audience := firstNonEmpty(p.config.TokenURL, descriptor.TokenURI, core.DefaultGoogleTokenURL)
	assertion, err := signJWT(jwtAlgRS256, descriptor.PrivateKeyID, privateKey, map[string]any{
		"iss":   descriptor.ClientEmail,
		"scope": p.config.Scope,
		"aud":   audience,
		"iat":   now.Unix(),
		"exp":   now.Add(p.config.AssertionTTL).Unix(),
	})
	if err != nil {
		return "", core.AuthError(core.ErrorSigningFailed, "auth: sign service account assertion", err)
	}
	return assertion, nil
}
