package envelope

import (
	"bytes"
	"errors"
	"fmt"
)

// Container layout, all offsets fixed:
//
//	0   4   magic "ENCR"
//	4   1   version, currently 1
//	5   32  salt
//	37  12  nonce
//	49  ..  ciphertext + tag
const (
	FormatVersion = uint8(1)

	headerSize = 4 + 1 + SaltSize + NonceSize
	// MinContainerSize is a header plus the tag of an empty plaintext.
	MinContainerSize = headerSize + TagOverhead
)

var magicBytes = [4]byte{'E', 'N', 'C', 'R'}

var (
	// ErrFormat is the parent of every container parsing failure, detected
	// before any cryptographic work. Callers can use it to distinguish
	// "not one of our files" from an authentication failure.
	ErrFormat             = errors.New("invalid container")
	ErrBadMagic           = fmt.Errorf("%w: bad magic bytes", ErrFormat)
	ErrUnsupportedVersion = fmt.Errorf("%w: unsupported format version", ErrFormat)
	ErrTruncated          = fmt.Errorf("%w: truncated", ErrFormat)
)

// Container is the decoded on-disk representation. It is fully
// self-describing: nothing beyond the passphrase is needed to decrypt it.
type Container struct {
	Salt       Salt
	Nonce      Nonce
	Ciphertext []byte
}

// Encode lays out a container in the fixed v1 format.
func Encode(salt Salt, nonce Nonce, ciphertext []byte) ([]byte, error) {
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: salt must be %d bytes", ErrBadParams, SaltSize)
	}
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("%w: nonce must be %d bytes", ErrBadParams, NonceSize)
	}
	buf := bytes.NewBuffer(make([]byte, 0, headerSize+len(ciphertext)))
	buf.Write(magicBytes[:])
	buf.WriteByte(FormatVersion)
	buf.Write(salt)
	buf.Write(nonce)
	buf.Write(ciphertext)
	return buf.Bytes(), nil
}

// Decode validates and splits a container. Magic and version are checked
// before anything else so format errors never depend on key material.
func Decode(data Encrypted) (*Container, error) {
	if len(data) < len(magicBytes)+1 {
		return nil, ErrTruncated
	}
	if !bytes.Equal(data[:4], magicBytes[:]) {
		return nil, ErrBadMagic
	}
	if data[4] != FormatVersion {
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedVersion, data[4])
	}
	if len(data) < MinContainerSize {
		return nil, ErrTruncated
	}
	c := &Container{
		Salt:       Salt(data[5 : 5+SaltSize]),
		Nonce:      Nonce(data[5+SaltSize : headerSize]),
		Ciphertext: data[headerSize:],
	}
	return c, nil
}
