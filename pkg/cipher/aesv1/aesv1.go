// Package aesv1 is the legacy AES-256-CBC cipher: a SHA-256-derived key, a
// random IV prepended to the ciphertext, and zero-byte padding to the
// block size.
//
// Corruption risk: Decrypt strips trailing 0x00 bytes unconditionally, so a
// plaintext block that itself ends in 0x00 bytes loses them on round-trip.
// This is preserved for interoperability with the legacy wire format;
// pkg/cipher/aesgcm is the default cipher and does not have this defect
// (see DESIGN.md's Open Question decisions).
package aesv1

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	cipherpkg "github.com/marmos91/cloudraid/pkg/cipher"
)

// Cipher implements cipherpkg.Cipher with AES-256-CBC and zero padding.
type Cipher struct {
	key       string
	hashedKey [32]byte
}

// New derives a 256-bit AES key from key via SHA-256.
// key is the catalog's Key.Key material verbatim — Key() returns it
// unchanged so the catalog can record exactly which key enciphered a block.
func New(key string) *Cipher {
	return &Cipher{
		key:       key,
		hashedKey: sha256.Sum256([]byte(key)),
	}
}

var _ cipherpkg.Cipher = (*Cipher)(nil)

func (c *Cipher) Key() string { return c.key }

func pad(data []byte) []byte {
	n := aes.BlockSize - len(data)%aes.BlockSize
	if n == 0 {
		n = aes.BlockSize
	}
	return append(data, bytes.Repeat([]byte{0}, n)...)
}

// Encrypt pads data to a block-size multiple, generates a random IV, and
// returns iv || ciphertext.
func (c *Cipher) Encrypt(data []byte) ([]byte, error) {
	block, err := aes.NewCipher(c.hashedKey[:])
	if err != nil {
		return nil, fmt.Errorf("aesv1: new cipher: %w", err)
	}

	padded := pad(append([]byte(nil), data...))

	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("aesv1: generate iv: %w", err)
	}

	ciphertext := make([]byte, len(padded))
	mode := cipher.NewCBCEncrypter(block, iv)
	mode.CryptBlocks(ciphertext, padded)

	return append(iv, ciphertext...), nil
}

// Decrypt splits the leading IV from data, decrypts the remainder, and
// strips trailing zero padding — including any trailing zero bytes that
// happened to belong to the original plaintext (see package doc).
func (c *Cipher) Decrypt(data []byte) ([]byte, error) {
	if len(data) < aes.BlockSize {
		return nil, fmt.Errorf("aesv1: ciphertext shorter than IV")
	}

	block, err := aes.NewCipher(c.hashedKey[:])
	if err != nil {
		return nil, fmt.Errorf("aesv1: new cipher: %w", err)
	}

	iv := data[:aes.BlockSize]
	body := data[aes.BlockSize:]
	if len(body)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("aesv1: ciphertext not a block-size multiple")
	}

	plaintext := make([]byte, len(body))
	mode := cipher.NewCBCDecrypter(block, iv)
	mode.CryptBlocks(plaintext, body)

	return bytes.TrimRight(plaintext, "\x00"), nil
}
