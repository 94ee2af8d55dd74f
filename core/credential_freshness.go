package core

import (
	"strings"
	"time"
)

const DefaultCredentialRenewBefore = 30 * time.Second

// CredentialTokenState captures the lifecycle state of a cached credential.
type CredentialTokenState struct {
	HasToken       bool
	IsExpired      bool
	IsExpiringSoon bool
}

// ResolveCredentialTokenState evaluates expiry flags for credential at now.
func ResolveCredentialTokenState(now time.Time, credential Credential, renewBefore time.Duration) CredentialTokenState {
	if now.IsZero() {
		now = time.Now().UTC()
	} else {
		now = now.UTC()
	}
	if renewBefore < 0 {
		renewBefore = 0
	}
	state := CredentialTokenState{
		HasToken: strings.TrimSpace(credential.Token) != "",
	}
	if credential.ExpiresAt.IsZero() || !credential.ExpiresAt.After(now) {
		state.IsExpired = true
		return state
	}
	state.IsExpiringSoon = !credential.ExpiresAt.After(now.Add(renewBefore))
	return state
}

// ShouldRemint reports whether a cached credential must be replaced before use.
func ShouldRemint(state CredentialTokenState) bool {
	return !state.HasToken || state.IsExpired || state.IsExpiringSoon
}
