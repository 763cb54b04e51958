package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPlainReadWrite(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	if store.IsEncrypted() {
		t.Fatal("Expected a fresh directory to be unencrypted")
	}
	if !store.IsUnlocked() {
		t.Fatal("Expected an unencrypted directory to be unlocked")
	}

	path := filepath.Join(dir, "tapfi.json")
	content := []byte(`{"accounts":[]}`)
	if err := store.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	// On disk it must be plain text.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read raw file: %v", err)
	}
	if string(raw) != string(content) {
		t.Errorf("Expected plaintext on disk, got %q", raw)
	}

	got, err := store.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("Expected %q, got %q", content, got)
	}
}

func TestEncryptDecryptRoundtrip(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	if err := store.EnableEncryption("correct horse battery staple"); err != nil {
		t.Fatalf("EnableEncryption failed: %v", err)
	}
	if !store.IsEncrypted() || !store.IsUnlocked() {
		t.Fatal("Expected encrypted and unlocked after enabling")
	}

	path := filepath.Join(dir, "tapfi.json")
	content := []byte(`{"accounts":[{"id":"a1"}]}`)
	if err := store.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	// On disk it must carry the age header, not the plaintext.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read raw file: %v", err)
	}
	if !strings.HasPrefix(string(raw), ageHeader) {
		t.Errorf("Expected age-encrypted file on disk, got %q", raw[:min(len(raw), 40)])
	}
	if strings.Contains(string(raw), "accounts") {
		t.Error("Expected no plaintext leakage in encrypted file")
	}

	got, err := store.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("Expected decrypted roundtrip %q, got %q", content, got)
	}

	// A fresh Storage over the same directory sees the marker and unlocks
	// with the same passphrase.
	reopened, err := New(dir)
	if err != nil {
		t.Fatalf("Failed to reopen storage: %v", err)
	}
	if !reopened.IsEncrypted() {
		t.Fatal("Expected marker file to flag the directory encrypted")
	}
	if reopened.IsUnlocked() {
		t.Fatal("Expected a reopened encrypted directory to start locked")
	}
	if err := reopened.Unlock("correct horse battery staple"); err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}
	got, err = reopened.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile after reopen failed: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("Expected %q after reopen, got %q", content, got)
	}
}

func TestWrongPassword(t *testing.T) {
	dir := t.TempDir()
	store, _ := New(dir)
	if err := store.EnableEncryption("right password"); err != nil {
		t.Fatalf("EnableEncryption failed: %v", err)
	}

	reopened, _ := New(dir)
	if err := reopened.Unlock("wrong password"); err == nil {
		t.Fatal("Expected unlock to fail with the wrong password")
	}
	if reopened.IsUnlocked() {
		t.Fatal("Expected storage to stay locked after a failed unlock")
	}
}

func TestLockedReadFails(t *testing.T) {
	dir := t.TempDir()
	store, _ := New(dir)
	if err := store.EnableEncryption("some password"); err != nil {
		t.Fatalf("EnableEncryption failed: %v", err)
	}
	path := filepath.Join(dir, "tapfi.json")
	if err := store.WriteFile(path, []byte("{}"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	store.Lock()
	if _, err := store.ReadFile(path); err == nil {
		t.Fatal("Expected reading an encrypted file while locked to fail")
	}
}

func TestEnableEncryptionTwice(t *testing.T) {
	dir := t.TempDir()
	store, _ := New(dir)
	if err := store.EnableEncryption("pw"); err != nil {
		t.Fatalf("EnableEncryption failed: %v", err)
	}
	if err := store.EnableEncryption("pw"); err == nil {
		t.Fatal("Expected enabling encryption twice to fail")
	}
}

func TestAtomicWriteLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	store, _ := New(dir)

	path := filepath.Join(dir, "tapfi.json")
	if err := store.WriteFile(path, []byte("{}"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("Expected temp file to be renamed away")
	}
}
