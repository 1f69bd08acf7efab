package models

import (
	"crypto/rand"
	"math/big"
)

const (
	// CredentialCharset is the alphabet temporary passwords are drawn from
	CredentialCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*()_+"

	DefaultCredentialLength = 16
)

// GenerateTemporaryPassword picks length characters uniformly from CredentialCharset.
// A length <= 0 falls back to DefaultCredentialLength.
func GenerateTemporaryPassword(length int) (string, error) {
	if length <= 0 {
		length = DefaultCredentialLength
	}
	max := big.NewInt(int64(len(CredentialCharset)))
	password := make([]byte, length)
	for i := range password {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		password[i] = CredentialCharset[n.Int64()]
	}
	return string(password), nil
}
