package securestore

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	payloadVersion = 1
	kdfName        = "argon2id"

	argonMemoryKiB  = 19456
	argonIterations = 2
	argonThreads    = 1
	argonKeyLen     = 32

	saltSize = 16
)

// b64 is base64 standard encoding with no padding, matching the original's
// STANDARD_NO_PAD.
var b64 = base64.StdEncoding.WithPadding(base64.NoPadding)

// encryptedPayload is the on-disk wrapper format, pretty-printed JSON.
type encryptedPayload struct {
	Version    int    `json:"version"`
	Kdf        string `json:"kdf"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}

func deriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, argonIterations, argonMemoryKiB, argonThreads, argonKeyLen)
}

// EncryptString wraps plaintext as the encrypted payload format, using a
// fresh random salt and nonce.
func EncryptString(plaintext, passphrase string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("securestore: generate salt: %w", err)
	}

	key := deriveKey(passphrase, salt)
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return "", fmt.Errorf("securestore: init cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("securestore: generate nonce: %w", err)
	}

	ciphertext := aead.Seal(nil, nonce, []byte(plaintext), nil)

	payload := encryptedPayload{
		Version:    payloadVersion,
		Kdf:        kdfName,
		Salt:       b64.EncodeToString(salt),
		Nonce:      b64.EncodeToString(nonce),
		Ciphertext: b64.EncodeToString(ciphertext),
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("securestore: marshal payload: %w", err)
	}
	return string(data), nil
}

// DecryptString reverses EncryptString given the same passphrase.
func DecryptString(payload, passphrase string) (string, error) {
	var enc encryptedPayload
	if err := json.Unmarshal([]byte(payload), &enc); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorruptPayload, err)
	}
	if enc.Version != payloadVersion || enc.Kdf != kdfName {
		return "", fmt.Errorf("%w: version=%d kdf=%q", ErrBadKdfParams, enc.Version, enc.Kdf)
	}

	salt, err := b64.DecodeString(enc.Salt)
	if err != nil {
		return "", fmt.Errorf("%w: invalid salt encoding: %v", ErrCorruptPayload, err)
	}
	nonce, err := b64.DecodeString(enc.Nonce)
	if err != nil {
		return "", fmt.Errorf("%w: invalid nonce encoding: %v", ErrCorruptPayload, err)
	}
	ciphertext, err := b64.DecodeString(enc.Ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: invalid ciphertext encoding: %v", ErrCorruptPayload, err)
	}

	key := deriveKey(passphrase, salt)
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return "", fmt.Errorf("securestore: init cipher: %w", err)
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrBadPassphrase
	}
	return string(plaintext), nil
}

// looksEncrypted reports whether payload parses as the wrapper format with
// the expected version and KDF, without attempting decryption.
func looksEncrypted(payload string) bool {
	var enc encryptedPayload
	if err := json.Unmarshal([]byte(payload), &enc); err != nil {
		return false
	}
	return enc.Version == payloadVersion && enc.Kdf == kdfName
}
