package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey(t *testing.T) {
	key := DeriveKey("passphrase")
	assert.Len(t, key, 32)

	// Deterministic: the same passphrase must always unlock stored data.
	assert.Equal(t, key, DeriveKey("passphrase"))
	assert.NotEqual(t, key, DeriveKey("other-passphrase"))
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := DeriveKey("passphrase")
	plaintext := []byte(`{"api_key":"rahasia"}`)

	encrypted, err := Encrypt(plaintext, key)
	require.NoError(t, err)
	assert.NotContains(t, encrypted, "rahasia")

	decrypted, err := Decrypt(encrypted, key)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestEncryptProducesFreshNonce(t *testing.T) {
	key := DeriveKey("passphrase")

	first, err := Encrypt([]byte("data"), key)
	require.NoError(t, err)
	second, err := Encrypt([]byte("data"), key)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestDecryptWrongKey(t *testing.T) {
	encrypted, err := Encrypt([]byte("data"), DeriveKey("passphrase"))
	require.NoError(t, err)

	_, err = Decrypt(encrypted, DeriveKey("wrong"))
	assert.Error(t, err)
}

func TestDecryptGarbage(t *testing.T) {
	key := DeriveKey("passphrase")

	_, err := Decrypt("not base64 at all!!!", key)
	assert.Error(t, err)

	_, err = Decrypt("YWJj", key) // valid base64, too short for a nonce
	assert.Error(t, err)
}
