package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"

	"github.com/erazemk/montaza/internal/auth"
	"github.com/erazemk/montaza/internal/store"
)

const generatedPassphraseLength = 16

// ensurePassphrase sets a generated admin passphrase when none is stored yet.
// It returns the new passphrase, or "" if one was already set.
func ensurePassphrase(ctx context.Context, database *sql.DB) (string, error) {
	_, set, err := store.GetSetting(ctx, database, store.SettingAdminPassphrase)
	if err != nil {
		return "", err
	}
	if set {
		return "", nil
	}

	passphrase, err := generatePassphrase(generatedPassphraseLength)
	if err != nil {
		return "", fmt.Errorf("generating passphrase: %w", err)
	}
	if err := setPassphrase(ctx, database, passphrase); err != nil {
		return "", err
	}
	return passphrase, nil
}

func setPassphrase(ctx context.Context, database *sql.DB, passphrase string) error {
	hash, err := auth.HashPassphrase(passphrase)
	if err != nil {
		return err
	}
	if err := store.SetSetting(ctx, database, store.SettingAdminPassphrase, hash); err != nil {
		return fmt.Errorf("storing passphrase: %w", err)
	}
	return nil
}

// printPassphrase prints a newly set admin passphrase to stdout.
func printPassphrase(dbPath, passphrase string) {
	fmt.Printf("Database: %s\n", dbPath)
	fmt.Println()
	fmt.Println("Admin passphrase set:")
	fmt.Printf("  %s\n", passphrase)
	fmt.Println()
	fmt.Println("Save this passphrase, it cannot be recovered.")
	fmt.Println("Run `montaza passphrase` to replace it.")
}

// generatePassphrase creates a random passphrase of the given length.
func generatePassphrase(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
