package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MinPassphraseLength is the shortest accepted admin passphrase.
const MinPassphraseLength = 8

// ErrWeakPassphrase is returned for passphrases shorter than MinPassphraseLength.
var ErrWeakPassphrase = fmt.Errorf("passphrase must be at least %d characters", MinPassphraseLength)

// HashPassphrase hashes the admin passphrase for storage.
func HashPassphrase(passphrase string) (string, error) {
	if len(passphrase) < MinPassphraseLength {
		return "", ErrWeakPassphrase
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(passphrase), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing passphrase: %w", err)
	}
	return string(hash), nil
}

// CheckPassphrase reports whether passphrase matches the stored hash.
func CheckPassphrase(hash, passphrase string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(passphrase))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking passphrase: %w", err)
	}
	return true, nil
}
