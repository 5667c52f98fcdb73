// Package cipher defines the capability contract a block encryption scheme
// must satisfy: a key identity plus symmetric Encrypt/Decrypt over whole
// blocks.
package cipher

// Cipher encrypts and decrypts block payloads. Encrypt must produce output
// that Decrypt can invert exactly except where a concrete implementation's
// doc comment says otherwise (the legacy aesv1 cipher is lossy for trailing
// zero bytes — see its package doc).
type Cipher interface {
	// Key returns the exact key material this cipher derives its AES key
	// from, matching the catalog's Key.Key column so a block's KeyID can be
	// resolved back to the cipher that must decrypt it.
	Key() string

	// Encrypt returns the ciphertext for plaintext data.
	Encrypt(data []byte) ([]byte, error)

	// Decrypt returns the plaintext for ciphertext produced by Encrypt using
	// the same key.
	Decrypt(data []byte) ([]byte, error)
}
