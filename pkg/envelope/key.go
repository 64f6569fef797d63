package envelope

import (
	"crypto/rand"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/crypto/argon2"
)

const (
	// DefaultTimeCost is the default number of Argon2id passes.
	DefaultTimeCost uint32 = 3
	// DefaultMemoryKiB is the default Argon2id memory cost, 64 MiB.
	DefaultMemoryKiB uint32 = 64 * 1024
	// DefaultParallelism is the default Argon2id lane count.
	DefaultParallelism uint8 = 4
	// KeySize is the AES-256 key length produced by derivation.
	KeySize = 32
	// SaltSize is the length of the random salt stored in every container.
	SaltSize = 32
)

var (
	ErrBadParams = errors.New("invalid key derivation parameters")
)

// Key is an AES-256 key derived from a passphrase. It must be wiped with
// Wipe once the operation that derived it completes.
type Key []byte

// Salt is a slice of secure random bytes mixed into key derivation so the
// same passphrase yields unrelated keys across containers.
type Salt []byte

// Passphrase is the human-supplied secret used to derive a Key. The caller
// owns the buffer; it is never retained or written to disk.
type Passphrase []byte

// Plaintext is an unencrypted payload.
type Plaintext []byte

// Encrypted is a full container payload as written to disk.
type Encrypted []byte

// Wipe zeroes the key material. The KeepAlive prevents the compiler from
// eliding the stores as dead writes.
func (k Key) Wipe() {
	for i := range k {
		k[i] = 0
	}
	runtime.KeepAlive(k)
}

// KeyGenerator derives AES-256 keys from passphrases using Argon2id.
type KeyGenerator struct {
	timeCost    uint32
	memoryKiB   uint32
	parallelism uint8
	keyLen      uint8
}

type GeneratorOpt = func(*KeyGenerator) error

// SetTimeCost sets the number of Argon2id passes over memory.
// Only use this option if you know what you're doing.
func SetTimeCost(passes uint32) GeneratorOpt {
	return func(gen *KeyGenerator) error {
		if passes == 0 {
			return fmt.Errorf("%w: time cost must be at least 1", ErrBadParams)
		}
		gen.timeCost = passes
		return nil
	}
}

// SetMemoryCost sets the Argon2id memory cost in KiB.
// Only use this option if you know what you're doing.
func SetMemoryCost(kib uint32) GeneratorOpt {
	return func(gen *KeyGenerator) error {
		if kib < 8 {
			return fmt.Errorf("%w: memory cost must be at least 8 KiB", ErrBadParams)
		}
		gen.memoryKiB = kib
		return nil
	}
}

// SetParallelism sets the Argon2id lane count.
// Only use this option if you know what you're doing.
func SetParallelism(lanes uint8) GeneratorOpt {
	return func(gen *KeyGenerator) error {
		if lanes == 0 {
			return fmt.Errorf("%w: parallelism must be at least 1", ErrBadParams)
		}
		gen.parallelism = lanes
		return nil
	}
}

// SetInteractiveCost lowers the memory cost for frequent derivations, for
// example one derivation per file instead of one per directory tree.
// This trades some brute-force resistance for latency; prefer longer
// passphrases when using it.
func SetInteractiveCost() GeneratorOpt {
	return func(gen *KeyGenerator) error {
		gen.timeCost = 1
		gen.memoryKiB = 16 * 1024
		return nil
	}
}

// NewKeyGenerator creates a KeyGenerator using the options provided as zero
// or more GeneratorOpt. The defaults resist offline brute-force while
// keeping single-file latency acceptable.
func NewKeyGenerator(opts ...GeneratorOpt) (*KeyGenerator, error) {
	gen := &KeyGenerator{
		timeCost:    DefaultTimeCost,
		memoryKiB:   DefaultMemoryKiB,
		parallelism: DefaultParallelism,
		keyLen:      KeySize,
	}
	for _, opt := range opts {
		if err := opt(gen); err != nil {
			return nil, err
		}
	}
	if err := gen.validate(); err != nil {
		return nil, err
	}
	return gen, nil
}

func (g *KeyGenerator) validate() error {
	switch {
	case g.timeCost == 0:
		return fmt.Errorf("%w: time cost must be at least 1", ErrBadParams)
	case g.parallelism == 0:
		return fmt.Errorf("%w: parallelism must be at least 1", ErrBadParams)
	case g.memoryKiB < 8*uint32(g.parallelism):
		return fmt.Errorf("%w: memory cost must be at least 8 KiB per lane", ErrBadParams)
	case g.keyLen != KeySize:
		return fmt.Errorf("%w: key length must be %d bytes", ErrBadParams, KeySize)
	}
	return nil
}

// GenerateSalt returns a fresh salt from the OS entropy pool.
func (g *KeyGenerator) GenerateSalt() (Salt, error) {
	salt := make(Salt, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// DeriveKey derives the key for (pass, salt) under this generator's
// parameters. The result is deterministic: the same inputs always produce
// the same key, which is what makes decryption possible. Passphrase content
// never causes a derivation failure.
func (g *KeyGenerator) DeriveKey(pass Passphrase, salt Salt) (Key, error) {
	if err := g.validate(); err != nil {
		return nil, err
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: salt must be %d bytes, got %d", ErrBadParams, SaltSize, len(salt))
	}
	key := argon2.IDKey(pass, salt, g.timeCost, g.memoryKiB, g.parallelism, uint32(g.keyLen))
	return Key(key), nil
}
