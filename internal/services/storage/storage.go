// Package storage provides transparent encrypted-or-plain file access for
// the data directory. Encryption is opt-in: a marker file in the directory
// turns it on, and a passphrase-derived age identity unlocks it.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"filippo.io/age"
)

const (
	// ageHeader is the prefix of age-encrypted files.
	ageHeader = "age-encryption.org"

	// markerFile indicates encryption is enabled for the directory.
	markerFile = ".encrypted"

	// verifyFile is used to validate the passphrase.
	verifyFile = ".encryption-verify"

	// verifyMagic is the expected plaintext of the verify file.
	verifyMagic = `{"magic":"tapfi-encryption-verify","version":1}`
)

// Storage reads and writes files under a base directory, encrypting and
// decrypting transparently when the directory is marked encrypted.
type Storage struct {
	baseDir   string
	encrypted bool
	identity  *age.ScryptIdentity
	recipient *age.ScryptRecipient
	mu        sync.RWMutex
}

// New creates a Storage for the given base directory.
func New(baseDir string) (*Storage, error) {
	s := &Storage{baseDir: baseDir}
	if _, err := os.Stat(filepath.Join(baseDir, markerFile)); err == nil {
		s.encrypted = true
	}
	return s, nil
}

// BaseDir returns the base directory.
func (s *Storage) BaseDir() string {
	return s.baseDir
}

// IsEncrypted reports whether the data directory is encrypted.
func (s *Storage) IsEncrypted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.encrypted
}

// IsUnlocked reports whether reads and writes can proceed.
func (s *Storage) IsUnlocked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.encrypted || s.identity != nil
}

// Unlock derives the encryption identity from the passphrase and verifies
// it against the verify file.
func (s *Storage) Unlock(password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.encrypted {
		return nil
	}

	identity, err := age.NewScryptIdentity(password)
	if err != nil {
		return fmt.Errorf("failed to create identity: %w", err)
	}

	encrypted, err := os.ReadFile(filepath.Join(s.baseDir, verifyFile))
	if err != nil {
		return fmt.Errorf("failed to read verification file: %w", err)
	}

	decrypted, err := decryptData(encrypted, identity)
	if err != nil {
		return fmt.Errorf("incorrect password")
	}
	if string(decrypted) != verifyMagic {
		return fmt.Errorf("incorrect password (verification failed)")
	}

	s.identity = identity
	s.recipient, _ = age.NewScryptRecipient(password)
	return nil
}

// Lock clears the encryption key from memory.
func (s *Storage) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = nil
	s.recipient = nil
}

// EnableEncryption turns on encryption for the directory and unlocks it.
// Existing files are not re-encrypted; they are rewritten encrypted the
// next time they are saved.
func (s *Storage) EnableEncryption(password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.encrypted {
		return fmt.Errorf("encryption already enabled")
	}

	recipient, err := age.NewScryptRecipient(password)
	if err != nil {
		return fmt.Errorf("failed to create recipient: %w", err)
	}
	identity, err := age.NewScryptIdentity(password)
	if err != nil {
		return fmt.Errorf("failed to create identity: %w", err)
	}

	verify, err := encryptData([]byte(verifyMagic), recipient)
	if err != nil {
		return fmt.Errorf("failed to encrypt verification file: %w", err)
	}
	if err := s.atomicWrite(filepath.Join(s.baseDir, verifyFile), verify, 0600); err != nil {
		return err
	}
	if err := s.atomicWrite(filepath.Join(s.baseDir, markerFile), []byte{}, 0600); err != nil {
		return err
	}

	s.encrypted = true
	s.identity = identity
	s.recipient = recipient
	return nil
}

// ReadFile reads and, when necessary, decrypts a file.
func (s *Storage) ReadFile(path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if isAgeEncrypted(data) {
		if s.identity == nil {
			return nil, fmt.Errorf("file is encrypted but storage is locked")
		}
		return decryptData(data, s.identity)
	}
	return data, nil
}

// WriteFile writes, and when enabled encrypts, a file atomically.
func (s *Storage) WriteFile(path string, data []byte, perm os.FileMode) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	base := filepath.Base(path)
	if base != markerFile && base != verifyFile && s.encrypted && s.recipient != nil {
		encrypted, err := encryptData(data, s.recipient)
		if err != nil {
			return fmt.Errorf("failed to encrypt: %w", err)
		}
		data = encrypted
	}

	return s.atomicWrite(path, data, perm)
}

// atomicWrite writes through a temp file and renames it into place.
func (s *Storage) atomicWrite(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, perm); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// Stat returns file info, useful for checking existence.
func (s *Storage) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

// Remove removes a file.
func (s *Storage) Remove(path string) error {
	return os.Remove(path)
}

// isAgeEncrypted checks for the age encryption header.
func isAgeEncrypted(data []byte) bool {
	return len(data) > len(ageHeader) && string(data[:len(ageHeader)]) == ageHeader
}
