package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	secret := []byte("s")
	tok, err := GenerateToken(secret, "admin", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(secret, tok)
	require.NoError(t, err)
	require.Equal(t, "admin", claims.Username)
	require.Equal(t, "admin", claims.Subject)
	require.NotEmpty(t, claims.ID)
	require.NotNil(t, claims.ExpiresAt)

	_, err = ParseToken([]byte("other"), tok)
	require.Error(t, err)
}

func TestGenerateTokenWithoutExpiry(t *testing.T) {
	secret := []byte("s")
	tok, err := GenerateToken(secret, "admin", 0)
	require.NoError(t, err)

	claims, err := ParseToken(secret, tok)
	require.NoError(t, err)
	require.Nil(t, claims.ExpiresAt)
}

func TestCheckPassword(t *testing.T) {
	require.True(t, CheckPassword("plain", "plain"))
	require.False(t, CheckPassword("plain", "Plain"))

	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	require.True(t, CheckPassword(hash, "s3cret"))
	require.False(t, CheckPassword(hash, "wrong"))
	require.False(t, CheckPassword(hash, hash))
}

func TestBlacklistMemoryFallback(t *testing.T) {
	ctx := context.Background()
	bl := NewBlacklist(nil)

	require.False(t, bl.IsRevoked(ctx, "a"))
	bl.Revoke(ctx, "a", time.Now().Add(time.Hour))
	require.True(t, bl.IsRevoked(ctx, "a"))

	bl.Revoke(ctx, "b", time.Time{})
	require.True(t, bl.IsRevoked(ctx, "b"))

	// already expired sessions need no entry
	bl.Revoke(ctx, "c", time.Now().Add(-time.Minute))
	require.False(t, bl.IsRevoked(ctx, "c"))
}

func TestSanitizeLabel(t *testing.T) {
	tests := map[string]string{
		"alice":                       "alice",
		"  bob  ":                     "bob",
		"<b>Tom & Jerry</b>":          "Tom & Jerry",
		"<script>alert(1)</script>":   "",
		`<a href="x">张三</a>的账号`: "张三的账号",
	}
	for in, want := range tests {
		require.Equal(t, want, SanitizeLabel(in), "input %q", in)
	}
}

func TestNewRedisCacheNil(t *testing.T) {
	require.Nil(t, NewRedisCache(nil))
}
