package repository

import (
	"context"
	"sync"

	"github.com/lawaid/soulsystem-backend/models"
)

// MemoryStore holds the encoded registry in memory. Used by tests and local runs.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte

	// FailLoad / FailSave inject storage faults.
	FailLoad error
	FailSave error
	saves    int
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) (*models.Registry, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailLoad != nil {
		return nil, "", s.FailLoad
	}
	doc, err := models.DecodeRegistry(s.data)
	if err != nil {
		return nil, "", err
	}
	return doc, contentVersion(s.data), nil
}

func (s *MemoryStore) Save(_ context.Context, doc *models.Registry, expected string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailSave != nil {
		return "", s.FailSave
	}
	if contentVersion(s.data) != expected {
		return "", ErrVersionConflict
	}
	data, err := doc.Encode()
	if err != nil {
		return "", err
	}
	s.data = data
	s.saves++
	return contentVersion(data), nil
}

// Saves reports how many successful saves happened.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
