package auth

import (
	"crypto"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const (
	jwtAlgES256 = "ES256"
	jwtAlgRS256 = "RS256"
)

// signJWT signs claims with key using alg. The header carries typ=JWT and,
// when keyID is set, kid.
func signJWT(alg string, keyID string, key crypto.Signer, claims map[string]any) (string, error) {
	method := jwt.GetSigningMethod(strings.ToUpper(strings.TrimSpace(alg)))
	if method == nil {
		return "", fmt.Errorf("auth: unsupported jwt signing algorithm %q", alg)
	}
	token := jwt.NewWithClaims(method, jwt.MapClaims(claims))
	token.Header["typ"] = "JWT"
	if kid := strings.TrimSpace(keyID); kid != "" {
		token.Header["kid"] = kid
	}
	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("auth: sign %s jwt: %w", method.Alg(), err)
	}
	return signed, nil
}
