package auth

import (
	"errors"
	"testing"
)

func TestHashAndCheckPassphrase(t *testing.T) {
	hash, err := HashPassphrase("montagem-2026")
	if err != nil {
		t.Fatalf("HashPassphrase: %v", err)
	}
	if hash == "montagem-2026" {
		t.Fatal("expected passphrase to be hashed")
	}

	ok, err := CheckPassphrase(hash, "montagem-2026")
	if err != nil {
		t.Fatalf("CheckPassphrase: %v", err)
	}
	if !ok {
		t.Error("expected passphrase to match")
	}

	ok, err = CheckPassphrase(hash, "wrong-passphrase")
	if err != nil {
		t.Fatalf("CheckPassphrase: %v", err)
	}
	if ok {
		t.Error("expected wrong passphrase to be rejected")
	}
}

func TestHashPassphraseTooShort(t *testing.T) {
	if _, err := HashPassphrase("short"); !errors.Is(err, ErrWeakPassphrase) {
		t.Errorf("expected ErrWeakPassphrase, got %v", err)
	}
}

func TestCheckPassphraseCorruptHash(t *testing.T) {
	if _, err := CheckPassphrase("not-a-bcrypt-hash", "whatever"); err == nil {
		t.Error("expected error for corrupt hash")
	}
}
