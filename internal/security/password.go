package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/scrypt"
)

type ScryptParams struct {
	N       int
	R       int
	P       int
	KeyLen  int
	SaltLen int
}

// defaultParams match the hashes already stored by the storefront, so
// accounts created before the Go service keep verifying.
var defaultParams = ScryptParams{
	N:       16384,
	R:       8,
	P:       1,
	KeyLen:  64,
	SaltLen: 16,
}

// dummySalt feeds DummyVerify. Any fixed value works.
const dummySalt = "00000000000000000000000000000000"

// HashPassword derives a hex hash under a fresh random hex salt.
func HashPassword(password string) (hash string, salt string, err error) {
	return HashPasswordWithParams(password, defaultParams)
}

func HashPasswordWithParams(password string, params ScryptParams) (string, string, error) {
	raw := make([]byte, params.SaltLen)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("generate salt: %w", err)
	}
	salt := hex.EncodeToString(raw)

	key, err := derive(password, salt, params, params.KeyLen)
	if err != nil {
		return "", "", err
	}
	return hex.EncodeToString(key), salt, nil
}

// VerifyPassword reports whether password hashes to hash under salt. The
// salt is used in its hex text form, as it is stored. Malformed input
// yields false.
func VerifyPassword(password string, hash string, salt string) bool {
	expected, err := hex.DecodeString(hash)
	if err != nil || len(expected) == 0 || salt == "" {
		return false
	}

	computed, err := derive(password, salt, defaultParams, len(expected))
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(expected, computed) == 1
}

// DummyVerify spends the same work as VerifyPassword and always fails.
func DummyVerify(password string) bool {
	_, _ = derive(password, dummySalt, defaultParams, defaultParams.KeyLen)
	return false
}

func derive(password string, salt string, params ScryptParams, keyLen int) ([]byte, error) {
	key, err := scrypt.Key([]byte(password), []byte(salt), params.N, params.R, params.P, keyLen)
	if err != nil {
		return nil, fmt.Errorf("scrypt: %w", err)
	}
	return key, nil
}
