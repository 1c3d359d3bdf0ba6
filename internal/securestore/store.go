package securestore

import (
	"fmt"
	"os"
	"sync"
	"syscall"

	"golang.org/x/term"
)

// envPassphrase is the environment variable checked first when a
// passphrase is needed, ahead of the process-local cache and the
// interactive prompt.
const envPassphrase = "TARK_PLUGIN_PASSPHRASE"

// passphraseCache holds a passphrase typed once during this process's
// lifetime, so a multi-secret session doesn't re-prompt for every file.
var passphraseCache struct {
	mu    sync.Mutex
	value string
	set   bool
}

func cachedPassphrase() (string, bool) {
	passphraseCache.mu.Lock()
	defer passphraseCache.mu.Unlock()
	return passphraseCache.value, passphraseCache.set
}

func setCachedPassphrase(p string) {
	passphraseCache.mu.Lock()
	defer passphraseCache.mu.Unlock()
	passphraseCache.value = p
	passphraseCache.set = true
}

// PassphraseReader prompts for a passphrase interactively. Tests inject a
// fake; production code uses promptTerminalPassphrase, which reads from
// the real terminal with input echo disabled.
type PassphraseReader func(prompt string) (string, error)

// promptTerminalPassphrase reads one line from the controlling terminal
// with echo disabled, via golang.org/x/term.
func promptTerminalPassphrase(prompt string) (string, error) {
	fmt.Print(prompt)
	defer fmt.Println()
	bytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", fmt.Errorf("securestore: read passphrase: %w", err)
	}
	return string(bytes), nil
}

// PassphraseForRead resolves the passphrase used to decrypt an existing
// file: TARK_PLUGIN_PASSPHRASE env var, then the process cache, then an
// interactive prompt via read.
func PassphraseForRead(read PassphraseReader) (string, error) {
	if pass, ok := os.LookupEnv(envPassphrase); ok {
		return pass, nil
	}
	if pass, ok := cachedPassphrase(); ok {
		return pass, nil
	}
	if read == nil {
		read = promptTerminalPassphrase
	}
	pass, err := read("Passphrase: ")
	if err != nil {
		return "", err
	}
	setCachedPassphrase(pass)
	return pass, nil
}

// PromptNewPassphrase resolves the passphrase used to encrypt a new file:
// the env var takes precedence and skips confirmation entirely; otherwise
// the caller is prompted twice and the two entries must match.
func PromptNewPassphrase(read PassphraseReader) (string, error) {
	if pass, ok := os.LookupEnv(envPassphrase); ok {
		return pass, nil
	}
	if read == nil {
		read = promptTerminalPassphrase
	}

	first, err := read("New passphrase: ")
	if err != nil {
		return "", err
	}
	second, err := read("Confirm passphrase: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", ErrPassphraseMismatch
	}
	setCachedPassphrase(first)
	return first, nil
}

// EncryptFileInPlace reads path as plaintext and overwrites it with its
// encrypted form.
func EncryptFileInPlace(path, passphrase string) error {
	plaintext, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("securestore: read %s: %w", path, err)
	}
	encrypted, err := EncryptString(string(plaintext), passphrase)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(encrypted), 0o600); err != nil {
		return fmt.Errorf("securestore: write %s: %w", path, err)
	}
	return nil
}

// ReadMaybeEncrypted reads path and, if it parses as the encrypted
// wrapper, decrypts it using a passphrase resolved via read. A file that
// doesn't parse as the wrapper is returned unchanged, preserving backward
// compatibility with plaintext configs written before encryption existed.
func ReadMaybeEncrypted(path string, read PassphraseReader) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("securestore: read %s: %w", path, err)
	}
	payload := string(data)

	if !looksEncrypted(payload) {
		return payload, nil
	}

	passphrase, err := PassphraseForRead(read)
	if err != nil {
		return "", err
	}
	return DecryptString(payload, passphrase)
}
