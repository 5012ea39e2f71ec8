package keys

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
)

const (
	// KeyPrefix is the fixed literal every issued secret starts with. It must
	// match what the food API expects in the X-API-Key header.
	KeyPrefix = "kkm_"

	keyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	keyLength   = 32
)

// GenerateKey produces a new secret: the fixed prefix followed by 32
// characters drawn uniformly from the alphanumeric alphabet using crypto/rand.
func GenerateKey() (string, error) {
	buf := make([]byte, 0, len(KeyPrefix)+keyLength)
	buf = append(buf, KeyPrefix...)
	max := big.NewInt(int64(len(keyAlphabet)))
	for i := 0; i < keyLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate key: %w", err)
		}
		buf = append(buf, keyAlphabet[n.Int64()])
	}
	return string(buf), nil
}

// HashKey returns the SHA-256 hex digest of the secret's UTF-8 bytes. The
// same scheme is used for password digests in the auth package.
func HashKey(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// VerifyKey compares a candidate secret against a stored digest in constant
// time.
func VerifyKey(secret, digest string) bool {
	return subtle.ConstantTimeCompare([]byte(HashKey(secret)), []byte(digest)) == 1
}

// Preview returns the display-safe form of a secret: the first 8 and last 4
// characters separated by an ellipsis.
func Preview(secret string) string {
	if len(secret) <= 12 {
		return secret
	}
	return secret[:8] + "..." + secret[len(secret)-4:]
}
