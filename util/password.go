package util

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const argon2Prefix = "argon2id$"

// argon2id parameters
const (
	argonTime    uint32 = 1
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 4
	argonKeyLen  uint32 = 32
	saltLen             = 16
)

var ErrMalformedHash = errors.New("malformed password hash")

// GenerateSalt returns a random base64 salt.
func GenerateSalt() (string, error) {
	b := make([]byte, saltLen)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return base64.RawStdEncoding.EncodeToString(b), nil
}

// HashPasswordArgon2 derives an argon2id hash of password with salt. The
// result is prefixed with "argon2id$" so stored hashes are self-describing.
func HashPasswordArgon2(password, salt string) (string, error) {
	if salt == "" {
		return "", errors.New("empty salt")
	}
	key := argon2.IDKey([]byte(password), []byte(salt), argonTime, argonMemory, argonThreads, argonKeyLen)
	return argon2Prefix + base64.RawStdEncoding.EncodeToString(key), nil
}

// VerifyPassword reports whether password matches the stored hash and salt.
func VerifyPassword(password, stored, salt string) (bool, error) {
	if !strings.HasPrefix(stored, argon2Prefix) {
		return false, ErrMalformedHash
	}
	want, err := base64.RawStdEncoding.DecodeString(strings.TrimPrefix(stored, argon2Prefix))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
	got := argon2.IDKey([]byte(password), []byte(salt), argonTime, argonMemory, argonThreads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
