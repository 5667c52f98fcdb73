// Package aesgcm is cloudraid's default cipher: AES-256-GCM, an AEAD mode
// that has no padding and therefore no analogue of aesv1's trailing-zero
// corruption risk (design notes Open Question resolution (a)). The key is
// derived from the passphrase with SHA-256, the same way aesv1 derives its
// key, so both ciphers accept the same kind of catalog key string.
package aesgcm

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	cipherpkg "github.com/marmos91/cloudraid/pkg/cipher"
)

// Cipher implements cipherpkg.Cipher with AES-256-GCM.
type Cipher struct {
	key       string
	hashedKey [32]byte
}

// New derives a 256-bit AES key from key via SHA-256. key is the catalog's
// Key.Key material verbatim — Key() returns it unchanged.
func New(key string) *Cipher {
	return &Cipher{
		key:       key,
		hashedKey: sha256.Sum256([]byte(key)),
	}
}

var _ cipherpkg.Cipher = (*Cipher)(nil)

func (c *Cipher) Key() string { return c.key }

func (c *Cipher) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.hashedKey[:])
	if err != nil {
		return nil, fmt.Errorf("aesgcm: new cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// Encrypt returns nonce || ciphertext || tag.
func (c *Cipher) Encrypt(data []byte) ([]byte, error) {
	gcm, err := c.gcm()
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("aesgcm: generate nonce: %w", err)
	}

	return gcm.Seal(nonce, nonce, data, nil), nil
}

// Decrypt splits the leading nonce from data and authenticates+decrypts the
// remainder, failing closed (returning an error, never truncated garbage)
// if the ciphertext has been tampered with or truncated.
func (c *Cipher) Decrypt(data []byte) ([]byte, error) {
	gcm, err := c.gcm()
	if err != nil {
		return nil, err
	}

	if len(data) < gcm.NonceSize() {
		return nil, fmt.Errorf("aesgcm: ciphertext shorter than nonce")
	}
	nonce, body := data[:gcm.NonceSize()], data[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, body, nil)
	if err != nil {
		return nil, fmt.Errorf("aesgcm: decrypt: %w", err)
	}
	return plaintext, nil
}
