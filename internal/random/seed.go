// Package random provides seed generation for the simulation RNG.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// NewRand returns a generator seeded with seed, or with a fresh seed when
// seed is nil. The seed actually used is returned so a run can be replayed.
func NewRand(seed *int64) (*rand.Rand, int64, error) {
	var s int64
	if seed != nil {
		s = *seed
	} else {
		var err error
		if s, err = NewSeed(); err != nil {
			return nil, 0, err
		}
	}
	return rand.New(rand.NewSource(s)), s, nil
}
