package ghost

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghost-mcp/ghost-mcp/pkg/errors"
)

const testAdminKey = "6463616e646964:5468697349734e6f74415265616c536563726574"

func TestParseAdminKey(t *testing.T) {
	t.Parallel()

	key, err := parseAdminKey(testAdminKey)
	require.NoError(t, err)
	assert.Equal(t, "6463616e646964", key.id)
	assert.Equal(t, []byte("ThisIsNotARealSecret"), key.secret)
}

func TestParseAdminKeyRejectsMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{"no separator", "justonepart"},
		{"empty id", ":abcdef"},
		{"empty secret", "abc:"},
		{"non-hex secret", "abc:not-hex!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := parseAdminKey(tt.raw)
			require.Error(t, err)
			assert.True(t, errors.IsConfiguration(err))
		})
	}
}

func TestAdminTokenClaims(t *testing.T) {
	t.Parallel()

	key, err := parseAdminKey(testAdminKey)
	require.NoError(t, err)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	signed, err := key.token(now)
	require.NoError(t, err)

	secret, err := hex.DecodeString("5468697349734e6f74415265616c536563726574")
	require.NoError(t, err)

	parsed, err := jwt.Parse(signed, func(_ *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(func() time.Time { return now }))
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	assert.Equal(t, "6463616e646964", parsed.Header["kid"])

	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "/admin/", claims["aud"])
	assert.Equal(t, float64(now.Unix()), claims["iat"])
	assert.Equal(t, float64(now.Add(5*time.Minute).Unix()), claims["exp"])
}
