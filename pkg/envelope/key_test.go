package envelope

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewKeyGenerator(t *testing.T) {
	gen, err := NewKeyGenerator()
	assert.NoError(t, err)
	assert.NotNil(t, gen)
	assert.Equal(t, DefaultTimeCost, gen.timeCost)
	assert.Equal(t, DefaultMemoryKiB, gen.memoryKiB)
	assert.Equal(t, DefaultParallelism, gen.parallelism)
	assert.Equal(t, uint8(KeySize), gen.keyLen)
}

func TestNewKeyGenerator_Custom(t *testing.T) {
	gen, err := NewKeyGenerator(
		SetTimeCost(2),
		SetMemoryCost(32*1024),
		SetParallelism(2),
	)
	assert.NoError(t, err)
	assert.Equal(t, uint32(2), gen.timeCost)
	assert.Equal(t, uint32(32*1024), gen.memoryKiB)
	assert.Equal(t, uint8(2), gen.parallelism)
}

func TestNewKeyGenerator_BadParams(t *testing.T) {
	_, err := NewKeyGenerator(SetTimeCost(0))
	assert.ErrorIs(t, err, ErrBadParams)

	_, err = NewKeyGenerator(SetParallelism(0))
	assert.ErrorIs(t, err, ErrBadParams)

	_, err = NewKeyGenerator(SetMemoryCost(4))
	assert.ErrorIs(t, err, ErrBadParams)

	// 8 KiB total is below the 8 KiB per lane Argon2id requires at p=4.
	_, err = NewKeyGenerator(SetMemoryCost(8))
	assert.ErrorIs(t, err, ErrBadParams)
}

func TestKeyGenerator_DeriveKey(t *testing.T) {
	gen, err := NewKeyGenerator(SetInteractiveCost())
	assert.NoError(t, err)

	salt, err := gen.GenerateSalt()
	assert.NoError(t, err)
	assert.Len(t, salt, SaltSize)

	key1, err := gen.DeriveKey(Passphrase("a test passphrase"), salt)
	assert.NoError(t, err)
	assert.Len(t, key1, KeySize)

	// Same (passphrase, salt, params) must always yield the same key.
	key2, err := gen.DeriveKey(Passphrase("a test passphrase"), salt)
	assert.NoError(t, err)
	assert.Equal(t, key1, key2)

	other, err := gen.DeriveKey(Passphrase("another passphrase"), salt)
	assert.NoError(t, err)
	assert.NotEqual(t, key1, other)
}

func TestKeyGenerator_DeriveKey_BadSalt(t *testing.T) {
	gen, err := NewKeyGenerator(SetInteractiveCost())
	assert.NoError(t, err)
	_, err = gen.DeriveKey(Passphrase("pass"), Salt("short"))
	assert.ErrorIs(t, err, ErrBadParams)
}

func TestKeyGenerator_GenerateSalt_Fresh(t *testing.T) {
	gen, err := NewKeyGenerator()
	assert.NoError(t, err)
	s1, err := gen.GenerateSalt()
	assert.NoError(t, err)
	s2, err := gen.GenerateSalt()
	assert.NoError(t, err)
	assert.NotEqual(t, s1, s2)
}

func TestKey_Wipe(t *testing.T) {
	key := Key{1, 2, 3, 4}
	key.Wipe()
	assert.Equal(t, Key{0, 0, 0, 0}, key)
}

func TestProfileRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	gen, err := NewKeyGenerator(
		SetTimeCost(5),
		SetMemoryCost(128*1024),
		SetParallelism(2),
	)
	assert.NoError(t, err)
	assert.NoError(t, gen.WriteProfile(&buf))

	read, err := ReadProfile(&buf)
	assert.NoError(t, err)
	assert.Equal(t, gen.timeCost, read.timeCost)
	assert.Equal(t, gen.memoryKiB, read.memoryKiB)
	assert.Equal(t, gen.parallelism, read.parallelism)
	assert.Equal(t, gen.keyLen, read.keyLen)
}

func TestReadProfile_Invalid(t *testing.T) {
	// A zeroed profile has timeCost 0 and must be rejected.
	_, err := ReadProfile(bytes.NewReader(make([]byte, 10)))
	assert.ErrorIs(t, err, ErrBadParams)
}
