package memory

import (
	"context"
	"fmt"
	"sync"

	"finsight/internal/core"
)

// Store is an in-memory snapshot sink used by tests and the memory backend.
type Store struct {
	mu    sync.Mutex
	items []core.AnalysisSnapshot
}

func New() *Store {
	return &Store{}
}

// AppendSnapshot records the snapshot and returns a synthetic row reference.
func (s *Store) AppendSnapshot(_ context.Context, snap core.AnalysisSnapshot) (string, error) {
	if err := snap.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, snap)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// Exported returns a copy of everything appended so far.
func (s *Store) Exported() []core.AnalysisSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.AnalysisSnapshot, len(s.items))
	copy(out, s.items)
	return out
}
