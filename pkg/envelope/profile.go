package envelope

import (
	"encoding/binary"
	"io"

	bin "github.com/saylorsolutions/binmap"
)

// The container format never records derivation parameters; both sides of a
// round-trip must agree on them out of band. A profile is a small binary
// blob a surrounding layer can persist and hand back to ReadProfile so
// non-default parameters survive across runs.

func (g *KeyGenerator) mapper() bin.Mapper {
	return bin.MapSequence(
		bin.Int(&g.timeCost),
		bin.Int(&g.memoryKiB),
		bin.Byte(&g.parallelism),
		bin.Byte(&g.keyLen),
	)
}

// WriteProfile serializes the generator's parameters to w.
func (g *KeyGenerator) WriteProfile(w io.Writer) error {
	return g.mapper().Write(w, binary.BigEndian)
}

// ReadProfile reads parameters previously written by WriteProfile and
// returns a validated generator. Invalid parameter combinations fail with
// ErrBadParams.
func ReadProfile(r io.Reader) (*KeyGenerator, error) {
	gen := new(KeyGenerator)
	if err := gen.mapper().Read(r, binary.BigEndian); err != nil {
		return nil, err
	}
	if err := gen.validate(); err != nil {
		return nil, err
	}
	return gen, nil
}
