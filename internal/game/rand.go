package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"
)

// lockedSource делает math/rand источник безопасным для конкурентного
// использования из разных матчей
type lockedSource struct {
	mu  sync.Mutex
	src rand.Source64
}

func (s *lockedSource) Int63() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Int63()
}

func (s *lockedSource) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Uint64()
}

func (s *lockedSource) Seed(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.src.Seed(seed)
}

// NewLockedRand возвращает потокобезопасный rng с заданным зерном
// (для воспроизводимых тестов)
func NewLockedRand(seed int64) *rand.Rand {
	return rand.New(&lockedSource{src: rand.NewSource(seed).(rand.Source64)})
}

// NewSecureRand возвращает потокобезопасный rng, засеянный из crypto/rand
func NewSecureRand() *rand.Rand {
	var b [8]byte
	_, _ = crand.Read(b[:])
	return NewLockedRand(int64(binary.LittleEndian.Uint64(b[:])))
}
