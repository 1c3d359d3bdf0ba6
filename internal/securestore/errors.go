// Package securestore encrypts small local secret files with a
// passphrase-derived key: Argon2id for key derivation, ChaCha20-Poly1305
// for AEAD. A file that isn't the encrypted wrapper is treated as
// plaintext, preserving backward compatibility with unencrypted configs.
package securestore

import "errors"

// Sentinel errors identify why an encrypt/decrypt call failed.
var (
	// ErrBadPassphrase means decryption failed, almost always because the
	// wrong passphrase was supplied.
	ErrBadPassphrase = errors.New("securestore: decryption failed (bad passphrase?)")
	// ErrPassphraseMismatch means two interactively-typed passphrases
	// didn't match during a new-passphrase prompt.
	ErrPassphraseMismatch = errors.New("securestore: passphrases do not match")
	// ErrCorruptPayload means the payload isn't valid wrapper JSON or one
	// of its base64 fields didn't decode.
	ErrCorruptPayload = errors.New("securestore: corrupt payload")
	// ErrBadKdfParams means the wrapper's version or kdf field doesn't
	// match what this package knows how to derive a key for.
	ErrBadKdfParams = errors.New("securestore: unsupported kdf parameters")
)
