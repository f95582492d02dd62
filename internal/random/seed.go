// Package random provides seed generation and shareable random sources.
//
// Seeds come from crypto/rand so production rolls are unpredictable, while a
// fixed seed can still be supplied to replay a session exactly.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/louisbranch/dungeonkit/internal/dice"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// NewSource returns a source safe for concurrent use. A nil seed draws one
// from crypto/rand.
func NewSource(seed *int64) (*LockedSource, error) {
	value := int64(0)
	if seed != nil {
		value = *seed
	} else {
		generated, err := NewSeed()
		if err != nil {
			return nil, err
		}
		value = generated
	}
	return Lock(dice.NewSource(value)), nil
}

// LockedSource serializes access to an underlying source.
type LockedSource struct {
	mu     sync.Mutex
	source dice.Source
}

// Lock wraps source so it can be shared between goroutines.
func Lock(source dice.Source) *LockedSource {
	return &LockedSource{source: source}
}

// Intn implements dice.Source.
func (s *LockedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source.Intn(n)
}
