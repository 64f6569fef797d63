package envelope

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testContainerParts() (Salt, Nonce, []byte) {
	salt := bytes.Repeat([]byte{0xaa}, SaltSize)
	nonce := bytes.Repeat([]byte{0xbb}, NonceSize)
	ciphertext := bytes.Repeat([]byte{0xcc}, TagOverhead+5)
	return salt, nonce, ciphertext
}

func TestEncodeDecode(t *testing.T) {
	salt, nonce, ciphertext := testContainerParts()
	data, err := Encode(salt, nonce, ciphertext)
	assert.NoError(t, err)
	assert.Len(t, data, headerSize+len(ciphertext))
	assert.Equal(t, []byte("ENCR"), data[:4])
	assert.Equal(t, FormatVersion, data[4])

	c, err := Decode(data)
	assert.NoError(t, err)
	assert.Equal(t, []byte(salt), []byte(c.Salt))
	assert.Equal(t, []byte(nonce), []byte(c.Nonce))
	assert.Equal(t, ciphertext, c.Ciphertext)
}

func TestEncode_BadLengths(t *testing.T) {
	salt, nonce, ciphertext := testContainerParts()

	_, err := Encode(salt[:10], nonce, ciphertext)
	assert.ErrorIs(t, err, ErrBadParams)

	_, err = Encode(salt, nonce[:4], ciphertext)
	assert.ErrorIs(t, err, ErrBadParams)
}

func TestDecode_BadMagic(t *testing.T) {
	salt, nonce, ciphertext := testContainerParts()
	data, err := Encode(salt, nonce, ciphertext)
	assert.NoError(t, err)
	data[0] = 'X'

	_, err = Decode(data)
	assert.ErrorIs(t, err, ErrBadMagic)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestDecode_UnsupportedVersion(t *testing.T) {
	salt, nonce, ciphertext := testContainerParts()
	data, err := Encode(salt, nonce, ciphertext)
	assert.NoError(t, err)
	data[4] = 2

	_, err = Decode(data)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestDecode_Truncated(t *testing.T) {
	_, err := Decode(nil)
	assert.ErrorIs(t, err, ErrTruncated)

	_, err = Decode(Encrypted("ENC"))
	assert.ErrorIs(t, err, ErrTruncated)

	// Valid magic and version, but too short to hold salt, nonce, and tag.
	salt, nonce, ciphertext := testContainerParts()
	data, err := Encode(salt, nonce, ciphertext)
	assert.NoError(t, err)
	_, err = Decode(data[:MinContainerSize-1])
	assert.ErrorIs(t, err, ErrTruncated)
}
