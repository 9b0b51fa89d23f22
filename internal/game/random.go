package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// RandSource yields the generator used for one round. Tests swap it for
// a seeded one.
type RandSource func() (*rand.Rand, error)

// NewRoundRand returns a PCG generator seeded from crypto/rand. It is
// called once per round so no permutation carries over between rounds.
func NewRoundRand() (*rand.Rand, error) {
	var b [16]byte
	if _, err := crand.Read(b[:]); err != nil {
		return nil, fmt.Errorf("read random seed: %w", err)
	}
	seed1 := binary.LittleEndian.Uint64(b[:8])
	seed2 := binary.LittleEndian.Uint64(b[8:])
	return rand.New(rand.NewPCG(seed1, seed2)), nil
}

// SeededSource returns a RandSource producing a deterministic generator
// per call, advancing the seed each round.
func SeededSource(seed uint64) RandSource {
	round := uint64(0)
	return func() (*rand.Rand, error) {
		round++
		return rand.New(rand.NewPCG(seed, round)), nil
	}
}
