package alerts

import (
	"context"
	"sync"
)

// Store is the persistence abstraction for the per-port alert log. The log
// is append-mostly; implementations must serialize appends to the same port
// so the dedup scan-then-append cycle never loses updates.
type Store interface {
	// Append records a new alert at the end of the port's log
	Append(ctx context.Context, alert Alert) error

	// History returns a port's alerts, newest first. limit <= 0 means all
	// retained entries.
	History(ctx context.Context, portCode string, limit int) ([]Alert, error)

	// Acknowledge marks the matching alert acknowledged. It is idempotent
	// and reports whether a matching alert existed at all.
	Acknowledge(ctx context.Context, portCode, alertID string) (bool, error)
}

// MemoryStore is the default in-process Store
type MemoryStore struct {
	mutex      sync.Mutex
	byPort     map[string][]Alert
	maxPerPort int
}

// NewMemoryStore creates an in-memory alert store. maxPerPort caps retained
// history per port; 0 means unbounded.
func NewMemoryStore(maxPerPort int) *MemoryStore {
	return &MemoryStore{
		byPort:     make(map[string][]Alert),
		maxPerPort: maxPerPort,
	}
}

// Append records a new alert at the end of the port's log
func (s *MemoryStore) Append(ctx context.Context, alert Alert) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	log := append(s.byPort[alert.PortCode], alert)
	if s.maxPerPort > 0 && len(log) > s.maxPerPort {
		log = log[len(log)-s.maxPerPort:]
	}
	s.byPort[alert.PortCode] = log
	return nil
}

// History returns a port's alerts, newest first
func (s *MemoryStore) History(ctx context.Context, portCode string, limit int) ([]Alert, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	log := s.byPort[portCode]
	result := make([]Alert, 0, len(log))
	for i := len(log) - 1; i >= 0; i-- {
		result = append(result, log[i])
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

// Acknowledge marks the matching alert acknowledged
func (s *MemoryStore) Acknowledge(ctx context.Context, portCode, alertID string) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	log := s.byPort[portCode]
	for i := range log {
		if log[i].ID == alertID {
			log[i].Acknowledged = true
			return true, nil
		}
	}
	return false, nil
}
