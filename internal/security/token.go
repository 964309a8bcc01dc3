package security

import (
	"crypto/sha256"
	"encoding/base64"
)

// ShareTokenBytes is the entropy of a share token: 256 bits.
const ShareTokenBytes = 32

var shareTokenLen = base64.RawURLEncoding.EncodedLen(ShareTokenBytes)

// NewShareToken returns a fresh URL-safe bearer value.
func NewShareToken() (string, error) {
	b, err := randomBytes(ShareTokenBytes)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ValidShareToken reports whether s has the shape of a value produced by NewShareToken.
func ValidShareToken(s string) bool {
	if len(s) != shareTokenLen {
		return false
	}
	b, err := base64.RawURLEncoding.DecodeString(s)
	return err == nil && len(b) == ShareTokenBytes
}

// HashShareToken is the lookup key stored in place of the token.
func HashShareToken(s string) []byte {
	sum := sha256.Sum256([]byte(s))
	return sum[:]
}
