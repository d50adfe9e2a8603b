package memory

import (
	"context"
	"sync"

	"github.com/symptom-checker/backend/internal/storage"
)

// Slots is the in-process backend. Payloads are copied on the way in and out.
type Slots struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewSlots() *Slots {
	return &Slots{data: make(map[string][]byte)}
}

func (s *Slots) Name() string { return "memory" }

func (s *Slots) Get(ctx context.Context, slot string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	payload, ok := s.data[slot]
	if !ok {
		return nil, storage.ErrSlotNotFound
	}
	return append([]byte(nil), payload...), nil
}

func (s *Slots) Put(ctx context.Context, slot string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[slot] = append([]byte(nil), payload...)
	return nil
}

func (s *Slots) Delete(ctx context.Context, slot string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, slot)
	return nil
}
