package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testGenerator keeps derivation cheap so the suite stays fast.
func testGenerator(t *testing.T) *KeyGenerator {
	t.Helper()
	gen, err := NewKeyGenerator(SetInteractiveCost())
	require.NoError(t, err)
	return gen
}

func TestEncryptDecrypt(t *testing.T) {
	const pass = "correct horse"
	data := []byte("This is demoFile that should be encrypted.")
	gen := testGenerator(t)

	encrypted, err := EncryptWith(gen, Passphrase(pass), data)
	assert.NoError(t, err)
	assert.NotEqual(t, data, encrypted)

	decrypted, err := DecryptWith(gen, Passphrase(pass), encrypted)
	assert.NoError(t, err)
	assert.Equal(t, data, []byte(decrypted))
}

func TestDecrypt_WrongPassphrase(t *testing.T) {
	gen := testGenerator(t)
	encrypted, err := EncryptWith(gen, Passphrase("correct horse"), Plaintext("secret"))
	require.NoError(t, err)

	plain, err := DecryptWith(gen, Passphrase("wrong horse"), encrypted)
	assert.ErrorIs(t, err, ErrAuthentication)
	assert.Nil(t, plain)
}

func TestDecrypt_TamperedCiphertext(t *testing.T) {
	gen := testGenerator(t)
	encrypted, err := EncryptWith(gen, Passphrase("correct horse"), Plaintext("tamper target payload"))
	require.NoError(t, err)

	// Flip one bit in every byte of the ciphertext+tag region; each flip
	// must fail closed, never return altered plaintext.
	for i := headerSize; i < len(encrypted); i++ {
		mangled := make(Encrypted, len(encrypted))
		copy(mangled, encrypted)
		mangled[i] ^= 0x01

		plain, err := DecryptWith(gen, Passphrase("correct horse"), mangled)
		assert.ErrorIs(t, err, ErrAuthentication, "byte %d", i)
		assert.Nil(t, plain)
	}
}

func TestEncrypt_Freshness(t *testing.T) {
	gen := testGenerator(t)
	pass := Passphrase("same passphrase")
	data := Plaintext("same plaintext")

	first, err := EncryptWith(gen, pass, data)
	require.NoError(t, err)
	second, err := EncryptWith(gen, pass, data)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	c1, err := Decode(first)
	require.NoError(t, err)
	c2, err := Decode(second)
	require.NoError(t, err)
	assert.NotEqual(t, c1.Salt, c2.Salt)
	assert.NotEqual(t, c1.Nonce, c2.Nonce)
	assert.NotEqual(t, c1.Ciphertext, c2.Ciphertext)
}

func TestEncryptDecrypt_EmptyPlaintext(t *testing.T) {
	gen := testGenerator(t)
	encrypted, err := EncryptWith(gen, Passphrase("pass"), nil)
	assert.NoError(t, err)
	assert.Len(t, encrypted, MinContainerSize)

	decrypted, err := DecryptWith(gen, Passphrase("pass"), encrypted)
	assert.NoError(t, err)
	assert.Empty(t, decrypted)
}

func TestDecrypt_FormatBeforeAuth(t *testing.T) {
	gen := testGenerator(t)
	_, err := DecryptWith(gen, Passphrase("pass"), Encrypted("not a container at all"))
	assert.ErrorIs(t, err, ErrFormat)
	assert.NotErrorIs(t, err, ErrAuthentication)
}

func TestSealOpen_SharedKey(t *testing.T) {
	gen := testGenerator(t)
	salt, err := gen.GenerateSalt()
	require.NoError(t, err)
	key, err := gen.DeriveKey(Passphrase("tree passphrase"), salt)
	require.NoError(t, err)
	defer key.Wipe()

	// The tree pipeline seals many payloads under one key with fresh
	// nonces. Verify independence of the payloads.
	nonce1, err := GenerateNonce()
	require.NoError(t, err)
	nonce2, err := GenerateNonce()
	require.NoError(t, err)
	assert.NotEqual(t, nonce1, nonce2)

	ct1, err := Seal(key, nonce1, Plaintext("first"))
	require.NoError(t, err)
	ct2, err := Seal(key, nonce2, Plaintext("second"))
	require.NoError(t, err)

	p1, err := Open(key, nonce1, ct1)
	assert.NoError(t, err)
	assert.Equal(t, Plaintext("first"), p1)
	p2, err := Open(key, nonce2, ct2)
	assert.NoError(t, err)
	assert.Equal(t, Plaintext("second"), p2)

	// Crossed nonces must not verify.
	_, err = Open(key, nonce2, ct1)
	assert.ErrorIs(t, err, ErrAuthentication)
}
