package tokenx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/bookstack/pkg/tokenx"
	"github.com/stretchr/testify/require"
)

func newCodec() *tokenx.Codec {
	return &tokenx.Codec{
		Secret: []byte("test-secret-at-least-32-bytes-long!"),
		Issuer: "bookstack-test",
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	codec := newCodec()

	token, err := codec.Encode("user-1", "session-1", tokenx.UseAccess, 15*time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := codec.Decode(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "session-1", claims.SessionID)
	require.Equal(t, tokenx.UseAccess, claims.Use)
	require.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt, 5*time.Second)
}

func TestEncode_GeneratesSessionIDWhenEmpty(t *testing.T) {
	codec := newCodec()

	token, err := codec.Encode("user-1", "", tokenx.UseRefresh, time.Hour)
	require.NoError(t, err)

	claims, err := codec.Decode(token)
	require.NoError(t, err)
	require.NotEmpty(t, claims.SessionID, "jti must always be present")
}

func TestDecode_Expired(t *testing.T) {
	codec := newCodec()

	token, err := codec.Encode("user-1", "session-1", tokenx.UseAccess, -time.Minute)
	require.NoError(t, err)

	_, err = codec.Decode(token)
	require.ErrorIs(t, err, tokenx.ErrExpiredToken)
}

func TestDecode_WrongSecret(t *testing.T) {
	codec := newCodec()
	token, err := codec.Encode("user-1", "session-1", tokenx.UseAccess, time.Minute)
	require.NoError(t, err)

	other := &tokenx.Codec{Secret: []byte("a-completely-different-secret-value"), Issuer: "bookstack-test"}
	_, err = other.Decode(token)
	require.ErrorIs(t, err, tokenx.ErrInvalidToken)
}

func TestDecode_WrongIssuer(t *testing.T) {
	codec := newCodec()
	token, err := codec.Encode("user-1", "session-1", tokenx.UseAccess, time.Minute)
	require.NoError(t, err)

	other := &tokenx.Codec{Secret: codec.Secret, Issuer: "someone-else"}
	_, err = other.Decode(token)
	require.ErrorIs(t, err, tokenx.ErrInvalidToken)
}

func TestDecode_Garbage(t *testing.T) {
	codec := newCodec()

	for _, tok := range []string{"", "not.a.jwt", "aaaa.bbbb.cccc"} {
		_, err := codec.Decode(tok)
		require.ErrorIs(t, err, tokenx.ErrInvalidToken, "token %q", tok)
	}
}

func TestEncode_RequiresSecret(t *testing.T) {
	codec := &tokenx.Codec{Issuer: "bookstack-test"}
	_, err := codec.Encode("user-1", "session-1", tokenx.UseAccess, time.Minute)
	require.Error(t, err)
}
