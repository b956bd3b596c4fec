package session

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKeys_DecodeRoundTrip(t *testing.T) {
	auth, enc, err := GenerateKeys()
	require.NoError(t, err)

	keys, err := DecodeKeys(auth, enc)
	require.NoError(t, err)
	assert.Len(t, keys.AuthKey, 64)
	assert.Len(t, keys.EncKey, 32)
}

func TestDecodeKeys_Errors(t *testing.T) {
	valid := base64.URLEncoding.EncodeToString(make([]byte, 32))
	short := base64.URLEncoding.EncodeToString(make([]byte, 10))

	cases := []struct {
		name    string
		auth    string
		enc     string
		wantErr string
	}{
		{"missing auth", "", valid, "auth key not set"},
		{"missing enc", valid, "", "encryption key not set"},
		{"bad auth base64", "%%%", valid, "failed to decode auth key"},
		{"bad enc base64", valid, "%%%", "failed to decode encryption key"},
		{"bad enc length", valid, short, "invalid length 10"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeKeys(tc.auth, tc.enc)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestEphemeralKeys_AreRandom(t *testing.T) {
	a, err := EphemeralKeys()
	require.NoError(t, err)
	b, err := EphemeralKeys()
	require.NoError(t, err)

	assert.NotEqual(t, a.AuthKey, b.AuthKey)
	assert.NotEqual(t, a.EncKey, b.EncKey)
}
