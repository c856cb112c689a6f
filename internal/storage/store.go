package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/example/commute-matching/internal/models"
)

var ErrNotFound = errors.New("assignment not found")

// AssignmentStore defines persistence operations for driver assignments.
type AssignmentStore interface {
	SaveAssignment(ctx context.Context, a *models.Assignment) error
	UpdateAssignment(ctx context.Context, a *models.Assignment) error
	GetAssignment(ctx context.Context, id string) (*models.Assignment, error)
}

type MemoryStore struct {
	mu          sync.RWMutex
	assignments map[string]models.Assignment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{assignments: make(map[string]models.Assignment)}
}

func (m *MemoryStore) SaveAssignment(_ context.Context, a *models.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignments[a.ID] = *a
	return nil
}

func (m *MemoryStore) UpdateAssignment(_ context.Context, a *models.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assignments[a.ID]; !ok {
		return ErrNotFound
	}
	m.assignments[a.ID] = *a
	return nil
}

func (m *MemoryStore) GetAssignment(_ context.Context, id string) (*models.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.assignments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}
