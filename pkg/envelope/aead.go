package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
)

const (
	// NonceSize is the AES-GCM nonce length. A nonce must never repeat for
	// the same key, so one is generated fresh per sealed payload.
	NonceSize = 12
	// TagOverhead is the AES-GCM authentication tag length appended to
	// every ciphertext.
	TagOverhead = 16
)

// ErrAuthentication reports that the ciphertext failed tag verification.
// A wrong passphrase and tampered data are deliberately indistinguishable:
// confirming "the passphrase was right but the data was altered" would leak
// information an attacker shouldn't have.
var ErrAuthentication = errors.New("authentication failed: wrong passphrase or corrupted data")

// Nonce is the per-payload AES-GCM nonce stored in the container header.
type Nonce []byte

func newAEAD(key Key) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// GenerateNonce returns a fresh nonce from the OS entropy pool.
func GenerateNonce() (Nonce, error) {
	nonce := make(Nonce, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return nonce, nil
}

// Seal encrypts plaintext under (key, nonce) and returns ciphertext with
// the authentication tag appended. The (key, nonce) pair must be used for
// at most one plaintext, ever.
func Seal(key Key, nonce Nonce, data Plaintext) ([]byte, error) {
	gcm, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, errors.New("nonce size mismatch")
	}
	return gcm.Seal(nil, nonce, data, nil), nil
}

// Open decrypts and verifies a payload produced by Seal. Any verification
// failure surfaces as ErrAuthentication; this is the sole integrity check
// in the system.
func Open(key Key, nonce Nonce, data []byte) (Plaintext, error) {
	gcm, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, ErrAuthentication
	}
	plain, err := gcm.Open(nil, nonce, data, nil)
	if err != nil {
		return nil, ErrAuthentication
	}
	return plain, nil
}
