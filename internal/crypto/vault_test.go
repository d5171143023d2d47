package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	blastpipe_errors "github.com/sendgrove/blastpipe/internal/errors"
)

func TestVaultRoundTrip(t *testing.T) {
	vault, err := NewVault("master-secret")
	require.NoError(t, err)

	plaintext := `{"api_key":"SG.abc123","domain":"mg.example.com"}`

	token, err := vault.Encrypt(plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, token)

	decrypted, err := vault.Decrypt(token)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestVaultEncryptIsNonDeterministic(t *testing.T) {
	vault, err := NewVault("master-secret")
	require.NoError(t, err)

	first, err := vault.Encrypt("payload")
	require.NoError(t, err)
	second, err := vault.Encrypt("payload")
	require.NoError(t, err)

	// Fresh nonce per token
	assert.NotEqual(t, first, second)
}

func TestVaultWrongKeyFailsAuthentication(t *testing.T) {
	vault, err := NewVault("master-secret")
	require.NoError(t, err)
	other, err := NewVault("different-secret")
	require.NoError(t, err)

	token, err := vault.Encrypt(`{"host":"smtp.example.com"}`)
	require.NoError(t, err)

	decrypted, err := other.Decrypt(token)
	assert.ErrorIs(t, err, blastpipe_errors.ErrDecryptionFailed)
	assert.Empty(t, decrypted)
}

func TestVaultCorruptedToken(t *testing.T) {
	vault, err := NewVault("master-secret")
	require.NoError(t, err)

	token, err := vault.Encrypt("credentials")
	require.NoError(t, err)

	corrupted := []byte(token)
	if corrupted[4] == 'A' {
		corrupted[4] = 'B'
	} else {
		corrupted[4] = 'A'
	}

	_, err = vault.Decrypt(string(corrupted))
	assert.Error(t, err)
}

func TestVaultRejectsGarbageTokens(t *testing.T) {
	vault, err := NewVault("master-secret")
	require.NoError(t, err)

	_, err = vault.Decrypt("not-base64!!!")
	assert.ErrorIs(t, err, blastpipe_errors.ErrMalformedToken)

	_, err = vault.Decrypt("c2hvcnQ=")
	assert.ErrorIs(t, err, blastpipe_errors.ErrMalformedToken)
}

func TestNewVaultEmptySecret(t *testing.T) {
	_, err := NewVault("")
	assert.Error(t, err)
}
