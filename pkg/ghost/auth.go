package ghost

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ghost-mcp/ghost-mcp/pkg/errors"
)

// tokenTTL is the lifetime of a minted Admin API token. Ghost rejects
// tokens valid for longer than 5 minutes.
const tokenTTL = 5 * time.Minute

// adminKey is a parsed Ghost Admin API key.
type adminKey struct {
	id     string
	secret []byte
}

// parseAdminKey splits an "id:secret" Admin API key and decodes the hex
// secret.
func parseAdminKey(raw string) (adminKey, error) {
	id, secret, ok := strings.Cut(raw, ":")
	if !ok || id == "" || secret == "" {
		return adminKey{}, errors.NewConfigurationError(
			"GHOST_ADMIN_API_KEY must be in id:secret form", nil)
	}

	decoded, err := hex.DecodeString(secret)
	if err != nil {
		return adminKey{}, errors.NewConfigurationError(
			"GHOST_ADMIN_API_KEY secret is not valid hex", nil)
	}

	return adminKey{id: id, secret: decoded}, nil
}

// token mints a short-lived JWT for the Admin API: HS256 over the decoded
// secret, key id in the header, audience fixed to /admin/.
func (k adminKey) token(now time.Time) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": now.Unix(),
		"exp": now.Add(tokenTTL).Unix(),
		"aud": "/admin/",
	})
	t.Header["kid"] = k.id
	return t.SignedString(k.secret)
}
