package memory

import (
	"context"
	"sync"
)

// Sequence counts references per scope in process.
type Sequence struct {
	mu   sync.Mutex
	next map[string]int64
}

func NewSequence() *Sequence {
	return &Sequence{next: make(map[string]int64)}
}

func (s *Sequence) Next(_ context.Context, scope string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next[scope]++
	return s.next[scope], nil
}
