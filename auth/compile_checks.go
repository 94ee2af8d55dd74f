package auth

import "github.com/andersonfds/freitool/core"

var (
	_ core.CredentialProvider = (*AppStoreKeyProvider)(nil)
	_ core.CredentialProvider = (*ServiceAccountProvider)(nil)
)
