package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ndewijer/portfolio-analytics/internal/apperrors"
)

// ErrStoreUnavailable is returned by a MemoryStore that has been told to fail.
var ErrStoreUnavailable = errors.New("store unavailable")

// MemoryStore is an in-memory cache.Store that ignores TTLs.
// FailGet and FailSet simulate a broken backend.
type MemoryStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	FailGet bool
	FailSet bool
	Sets    int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailGet {
		return nil, ErrStoreUnavailable
	}
	value, ok := s.data[key]
	if !ok {
		return nil, apperrors.ErrCacheMiss
	}
	return value, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSet {
		return ErrStoreUnavailable
	}
	s.data[key] = value
	s.Sets++
	return nil
}

// Put stores a raw value, e.g. a corrupt payload.
func (s *MemoryStore) Put(key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// Len returns the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// Message is a notification captured by RecordingNotifier.
type Message struct {
	UserID string
	Text   string
}

// RecordingNotifier captures notifications, or fails every one when Err is set.
type RecordingNotifier struct {
	mu       sync.Mutex
	Err      error
	messages []Message
}

func (n *RecordingNotifier) Notify(_ context.Context, userID, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.messages = append(n.messages, Message{UserID: userID, Text: message})
	return nil
}

// Messages returns the notifications received so far.
func (n *RecordingNotifier) Messages() []Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Message(nil), n.messages...)
}
