package securestore

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptString_RoundTrips(t *testing.T) {
	encrypted, err := EncryptString("top secret value", "correct horse battery staple")
	require.NoError(t, err)
	assert.NotContains(t, encrypted, "top secret value")

	decrypted, err := DecryptString(encrypted, "correct horse battery staple")
	require.NoError(t, err)
	assert.Equal(t, "top secret value", decrypted)
}

func TestDecryptString_WrongPassphraseFails(t *testing.T) {
	encrypted, err := EncryptString("top secret value", "right-pass")
	require.NoError(t, err)

	_, err = DecryptString(encrypted, "wrong-pass")
	assert.ErrorIs(t, err, ErrBadPassphrase)
}

func TestDecryptString_CorruptPayloadFails(t *testing.T) {
	_, err := DecryptString(`{"version":1,"kdf":"argon2id","salt":"!!!","nonce":"x","ciphertext":"y"}`, "pass")
	assert.ErrorIs(t, err, ErrCorruptPayload)
}

func TestLooksEncrypted(t *testing.T) {
	encrypted, err := EncryptString("x", "pass")
	require.NoError(t, err)
	assert.True(t, looksEncrypted(encrypted))
	assert.False(t, looksEncrypted(`plain old text`))
	assert.False(t, looksEncrypted(`{"hello":"world"}`))
}

func TestDecryptString_UnsupportedKdfFails(t *testing.T) {
	encrypted, err := EncryptString("x", "pass")
	require.NoError(t, err)

	tampered := strings.Replace(encrypted, `"kdf": "argon2id"`, `"kdf": "scrypt"`, 1)
	require.NotEqual(t, encrypted, tampered, "expected kdf field to be replaced")

	_, err = DecryptString(tampered, "pass")
	assert.ErrorIs(t, err, ErrBadKdfParams)
}

func TestEncryptString_UsesFreshSaltAndNonceEachCall(t *testing.T) {
	first, err := EncryptString("same plaintext", "pass")
	require.NoError(t, err)
	second, err := EncryptString("same plaintext", "pass")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}
