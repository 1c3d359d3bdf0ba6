package config

import (
	"encoding/json"
	"os"

	"github.com/tarkdev/tarkcore/internal/securestore"
)

// SecretStore abstracts encrypted credential storage. EncryptedFileStore is
// the production implementation (internal/securestore: Argon2id +
// ChaCha20-Poly1305); PlaintextStore exists for tests and for secret files
// that predate encryption.
type SecretStore interface {
	// Get retrieves a secret by key.
	Get(key string) (string, error)
	// Set stores a secret for the given key.
	Set(key string, value string) error
	// Delete removes a secret by key.
	Delete(key string) error
	// Available returns whether this store backend is usable.
	Available() bool
}

// PlaintextStore implements SecretStore as a flat JSON object written to
// configPath, unencrypted.
type PlaintextStore struct {
	configPath string
}

// NewPlaintextStore creates a plaintext secret store backed by configPath.
func NewPlaintextStore(configPath string) *PlaintextStore {
	return &PlaintextStore{configPath: configPath}
}

func (p *PlaintextStore) load() (map[string]string, error) {
	data, err := os.ReadFile(p.configPath)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	secrets := map[string]string{}
	if err := json.Unmarshal(data, &secrets); err != nil {
		return nil, err
	}
	return secrets, nil
}

func (p *PlaintextStore) save(secrets map[string]string) error {
	data, err := json.MarshalIndent(secrets, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p.configPath, data, 0o600)
}

// Get returns the secret stored under key, or "" if absent.
func (p *PlaintextStore) Get(key string) (string, error) {
	secrets, err := p.load()
	if err != nil {
		return "", err
	}
	return secrets[key], nil
}

// Set stores value under key.
func (p *PlaintextStore) Set(key, value string) error {
	secrets, err := p.load()
	if err != nil {
		return err
	}
	secrets[key] = value
	return p.save(secrets)
}

// Delete removes key, if present.
func (p *PlaintextStore) Delete(key string) error {
	secrets, err := p.load()
	if err != nil {
		return err
	}
	delete(secrets, key)
	return p.save(secrets)
}

// Available always returns true — a plain file is always writable barring
// filesystem errors surfaced on the individual calls.
func (p *PlaintextStore) Available() bool {
	return true
}

// EncryptedFileStore implements SecretStore over a securestore-encrypted
// JSON object. The passphrase is resolved once per process per
// securestore's own TARK_PLUGIN_PASSPHRASE → cache → prompt order.
type EncryptedFileStore struct {
	configPath string
	read       securestore.PassphraseReader
}

// NewEncryptedFileStore creates an encrypted secret store backed by
// configPath. A nil read uses the default terminal prompt.
func NewEncryptedFileStore(configPath string, read securestore.PassphraseReader) *EncryptedFileStore {
	return &EncryptedFileStore{configPath: configPath, read: read}
}

func (e *EncryptedFileStore) load() (map[string]string, error) {
	if _, err := os.Stat(e.configPath); os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	content, err := securestore.ReadMaybeEncrypted(e.configPath, e.read)
	if err != nil {
		return nil, err
	}
	secrets := map[string]string{}
	if content == "" {
		return secrets, nil
	}
	if err := json.Unmarshal([]byte(content), &secrets); err != nil {
		return nil, err
	}
	return secrets, nil
}

func (e *EncryptedFileStore) save(secrets map[string]string) error {
	data, err := json.Marshal(secrets)
	if err != nil {
		return err
	}

	passphrase, err := securestore.PassphraseForRead(e.read)
	if err != nil {
		return err
	}
	encrypted, err := securestore.EncryptString(string(data), passphrase)
	if err != nil {
		return err
	}
	return os.WriteFile(e.configPath, []byte(encrypted), 0o600)
}

// Get decrypts the store and returns the secret under key, or "" if absent.
func (e *EncryptedFileStore) Get(key string) (string, error) {
	secrets, err := e.load()
	if err != nil {
		return "", err
	}
	return secrets[key], nil
}

// Set decrypts the store, updates key, and re-encrypts it.
func (e *EncryptedFileStore) Set(key, value string) error {
	secrets, err := e.load()
	if err != nil {
		return err
	}
	secrets[key] = value
	return e.save(secrets)
}

// Delete decrypts the store, removes key if present, and re-encrypts it.
func (e *EncryptedFileStore) Delete(key string) error {
	secrets, err := e.load()
	if err != nil {
		return err
	}
	delete(secrets, key)
	return e.save(secrets)
}

// Available always returns true — decryption failures surface on the
// individual Get/Set/Delete calls instead.
func (e *EncryptedFileStore) Available() bool {
	return true
}
