package auth

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/andersonfds/freitool/core"
	"github.com/golang-jwt/jwt/v5"
)

const DefaultAppStoreTokenTTL = 5 * time.Minute

var appStoreKeyFilePattern = regexp.MustCompile(`^AuthKey_([A-Za-z0-9]+)\.p8$`)

type AppStoreKeyProviderConfig struct {
	KeyPath     string
	IssuerID    string
	Audience    string
	TokenTTL    time.Duration
	RenewBefore time.Duration
	Now         func() time.Time
	ReadFile    func(string) ([]byte, error)
}

// AppStoreKeyProvider self-signs ES256 credentials from an App Store Connect
// API key. No network call is made to mint.
type AppStoreKeyProvider struct {
	config AppStoreKeyProviderConfig
	mu     sync.Mutex
	cached core.Credential
}

func NewAppStoreKeyProvider(cfg AppStoreKeyProviderConfig) *AppStoreKeyProvider {
	tokenTTL := cfg.TokenTTL
	if tokenTTL <= 0 {
		tokenTTL = DefaultAppStoreTokenTTL
	}
	renewBefore := cfg.RenewBefore
	if renewBefore <= 0 {
		renewBefore = core.DefaultCredentialRenewBefore
	}
	return &AppStoreKeyProvider{
		config: AppStoreKeyProviderConfig{
			KeyPath:     cfg.KeyPath,
			IssuerID:    firstNonEmpty(cfg.IssuerID),
			Audience:    firstNonEmpty(cfg.Audience, core.DefaultAppStoreAudience),
			TokenTTL:    tokenTTL,
			RenewBefore: renewBefore,
			Now:         defaultNow(cfg.Now),
			ReadFile:    defaultReadFile(cfg.ReadFile),
		},
	}
}

// AppStoreKeyID extracts the key identifier from an AuthKey_<ID>.p8 path.
func AppStoreKeyID(keyPath string) (string, error) {
	name := filepath.Base(keyPath)
	match := appStoreKeyFilePattern.FindStringSubmatch(name)
	if match == nil {
		return "", core.AuthError(
			core.ErrorMalformedKeyPath,
			fmt.Sprintf("auth: key file %q must be named AuthKey_<ID>.p8", name),
			nil,
		)
	}
	return match[1], nil
}

func (p *AppStoreKeyProvider) Obtain(ctx context.Context) (core.Credential, error) {
	if p == nil {
		return core.Credential{}, core.InternalError("auth: app store key provider is nil")
	}
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return core.Credential{}, err
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.config.Now().UTC()
	state := core.ResolveCredentialTokenState(now, p.cached, p.config.RenewBefore)
	if !core.ShouldRemint(state) {
		return p.cached, nil
	}

	credential, err := p.mint(now)
	if err != nil {
		return core.Credential{}, err
	}
	p.cached = credential
	return credential, nil
}

func (p *AppStoreKeyProvider) Invalidate() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cached = core.Credential{}
}

func (p *AppStoreKeyProvider) mint(now time.Time) (core.Credential, error) {
	keyID, err := AppStoreKeyID(p.config.KeyPath)
	if err != nil {
		return core.Credential{}, err
	}
	if p.config.IssuerID == "" {
		return core.Credential{}, core.BadInputError("auth: app store issuer id is required")
	}

	pemBytes, err := p.config.ReadFile(p.config.KeyPath)
	if err != nil {
		return core.Credential{}, core.AuthError(
			core.ErrorKeyUnreadable,
			fmt.Sprintf("auth: read app store key %s", p.config.KeyPath),
			err,
		)
	}
	privateKey, err := jwt.ParseECPrivateKeyFromPEM(pemBytes)
	if err != nil {
		return core.Credential{}, core.AuthError(core.ErrorSigningFailed, "auth: parse app store private key", err)
	}

	expiresAt := now.Add(p.config.TokenTTL)
	token, err := signJWT(jwtAlgES256, keyID, privateKey, map[string]any{
		"iss": p.config.IssuerID,
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
		"aud": p.config.Audience,
	})
	if err != nil {
		return core.Credential{}, core.AuthError(core.ErrorSigningFailed, "auth: sign app store token", err)
	}
	return core.Credential{Token: token, ExpiresAt: expiresAt}, nil
}
