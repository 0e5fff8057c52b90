// Package memory is an in-process state store used by tests.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/nurpe/pointage/internal/model"
)

var ErrUnavailable = errors.New("store unavailable")

type Store struct {
	mu      sync.RWMutex
	data    map[string]map[string]string
	failing bool
}

func New() *Store {
	return &Store{data: make(map[string]map[string]string)}
}

// SetFailing makes every call fail with ErrUnavailable until reset.
func (s *Store) SetFailing(failing bool) {
	s.mu.Lock()
	s.failing = failing
	s.mu.Unlock()
}

// PutRaw stores a value under a key verbatim, as an older client wrote it.
func (s *Store) PutRaw(owner, key, value string) error {
	return s.put(owner, key, value)
}

func (s *Store) LoadEntries(_ context.Context, owner string, period model.Period) ([]model.TimeEntry, bool, error) {
	raw, ok, err := s.get(owner, period.StorageKey())
	if err != nil || !ok {
		return nil, ok, err
	}
	var entries []model.TimeEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, false, err
	}
	return entries, true, nil
}

// Entries are stored serialized so callers never share slices with the store.
func (s *Store) SaveEntries(_ context.Context, owner string, period model.Period, entries []model.TimeEntry) error {
	if entries == nil {
		entries = []model.TimeEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return s.put(owner, period.StorageKey(), string(data))
}

func (s *Store) LoadDailyRate(_ context.Context, owner string) (string, bool, error) {
	return s.get(owner, model.DailyRateKey)
}

func (s *Store) SaveDailyRate(_ context.Context, owner, rate string) error {
	return s.put(owner, model.DailyRateKey, rate)
}

func (s *Store) get(owner, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failing {
		return "", false, ErrUnavailable
	}
	value, ok := s.data[owner][key]
	return value, ok, nil
}

func (s *Store) put(owner, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return ErrUnavailable
	}
	if s.data[owner] == nil {
		s.data[owner] = make(map[string]string)
	}
	s.data[owner][key] = value
	return nil
}
