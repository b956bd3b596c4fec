package session

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/gorilla/securecookie"
)

const (
	authKeyLength = 64
	encKeyLength  = 32
)

// Keys sign and encrypt the session cookie.
type Keys struct {
	AuthKey []byte
	EncKey  []byte
}

// DecodeKeys parses base64url-encoded keys as produced by GenerateKeys.
func DecodeKeys(authKeyBase64, encKeyBase64 string) (Keys, error) {
	if authKeyBase64 == "" {
		return Keys{}, errors.New("auth key not set")
	}
	if encKeyBase64 == "" {
		return Keys{}, errors.New("encryption key not set")
	}

	authKey, err := base64.URLEncoding.DecodeString(authKeyBase64)
	if err != nil {
		return Keys{}, fmt.Errorf("failed to decode auth key from base64: %w", err)
	}
	encKey, err := base64.URLEncoding.DecodeString(encKeyBase64)
	if err != nil {
		return Keys{}, fmt.Errorf("failed to decode encryption key from base64: %w", err)
	}

	if len(encKey) != 16 && len(encKey) != 24 && len(encKey) != 32 {
		return Keys{}, fmt.Errorf("encryption key has invalid length %d, must be 16, 24, or 32 bytes", len(encKey))
	}

	return Keys{AuthKey: authKey, EncKey: encKey}, nil
}

// GenerateKeys returns fresh random keys, base64url-encoded.
func GenerateKeys() (authKeyBase64, encKeyBase64 string, err error) {
	authKey := securecookie.GenerateRandomKey(authKeyLength)
	if authKey == nil {
		return "", "", errors.New("could not generate authentication key")
	}
	encKey := securecookie.GenerateRandomKey(encKeyLength)
	if encKey == nil {
		return "", "", errors.New("could not generate encryption key")
	}
	return base64.URLEncoding.EncodeToString(authKey), base64.URLEncoding.EncodeToString(encKey), nil
}

// EphemeralKeys are random keys that live as long as the process. Sessions
// signed with them do not survive a restart.
func EphemeralKeys() (Keys, error) {
	auth, enc, err := GenerateKeys()
	if err != nil {
		return Keys{}, err
	}
	return DecodeKeys(auth, enc)
}
