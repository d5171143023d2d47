package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"

	"github.com/pkg/errors"

	blastpipe_errors "github.com/sendgrove/blastpipe/internal/errors"
)

// Vault encrypts provider credential blobs at rest. The key is derived from a
// single configured master secret via SHA-256; the token is
// base64url(nonce || AES-256-GCM ciphertext). A wrong key or a corrupted
// token fails authentication, it never yields garbage plaintext.
type Vault struct {
	aead cipher.AEAD
}

func NewVault(masterSecret string) (*Vault, error) {
	if masterSecret == "" {
		return nil, errors.New("vault master secret is empty")
	}

	key := sha256.Sum256([]byte(masterSecret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, errors.Wrap(err, "vault cipher init")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "vault aead init")
	}

	return &Vault{aead: aead}, nil
}

func (v *Vault) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, v.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.Wrap(err, "vault nonce")
	}

	sealed := v.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

func (v *Vault) Decrypt(token string) (string, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return "", blastpipe_errors.ErrMalformedToken
	}
	if len(raw) < v.aead.NonceSize() {
		return "", blastpipe_errors.ErrMalformedToken
	}

	nonce, ciphertext := raw[:v.aead.NonceSize()], raw[v.aead.NonceSize():]
	plaintext, err := v.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", blastpipe_errors.ErrDecryptionFailed
	}

	return string(plaintext), nil
}
