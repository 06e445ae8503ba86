package crypt

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// segment encodes one JWT part the way the compact serialization does.
func segment(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

const testSecret = "test-secret-32-bytes-should-be-long"

func TestCodec_RoundTrip(t *testing.T) {
	c := NewCodec(testSecret)
	payload := map[string]interface{}{
		"userid":  "42",
		"cmid":    "act-1",
		"groupid": float64(3),
	}
	tok, err := c.EncodeAndSign(payload)
	require.NoError(t, err)
	require.Equal(t, 3, len(strings.Split(tok, ".")), "expected compact JWT form")

	got, err := c.Decode(tok)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestCodec_WrongSecretFails(t *testing.T) {
	c1 := NewCodec(testSecret)
	c2 := NewCodec("a-different-secret-32-bytes-xxxxxxx")

	tok, err := c1.EncodeAndSign(map[string]interface{}{"userid": "1"})
	require.NoError(t, err)

	_, err = c2.Decode(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestCodec_Malformed(t *testing.T) {
	c := NewCodec(testSecret)
	_, err := c.Decode("not.a.jwt")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestCodec_AlgNoneRejected(t *testing.T) {
	c := NewCodec(testSecret)
	headerEnc := segment([]byte(`{"alg":"none"}`))
	payloadEnc := segment([]byte(`{"userid":"1"}`))
	_, err := c.Decode(headerEnc + "." + payloadEnc + ".")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestCodec_TamperedPayload(t *testing.T) {
	c := NewCodec(testSecret)
	tok, err := c.EncodeAndSign(map[string]interface{}{"userid": "user-a"})
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	parts[1] = segment([]byte(strings.Replace(string(payload), "user-a", "user-b", 1)))

	_, err = c.Decode(strings.Join(parts, "."))
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestCodec_NoSecret(t *testing.T) {
	c := NewCodec("")
	_, err := c.EncodeAndSign(map[string]interface{}{"userid": "1"})
	require.True(t, errors.Is(err, ErrNoSecret))
	_, err = c.Decode("whatever")
	require.True(t, errors.Is(err, ErrNoSecret))
}
