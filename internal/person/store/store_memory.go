package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"cadastro/internal/person/models"
	"cadastro/pkg/platform/sentinel"
)

// InMemory is a person store guarded by a single mutex. Document uniqueness
// is enforced through a digits index.
type InMemory struct {
	mu         sync.RWMutex
	persons    map[uuid.UUID]*models.Person
	byDocument map[string]uuid.UUID
}

func NewInMemory() *InMemory {
	return &InMemory{
		persons:    make(map[uuid.UUID]*models.Person),
		byDocument: make(map[string]uuid.UUID),
	}
}

func (s *InMemory) Create(_ context.Context, person *models.Person) error {
	if person == nil {
		return fmt.Errorf("person is required: %w", sentinel.ErrInvalidState)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	digits := person.DocumentDigits()
	if _, taken := s.byDocument[digits]; taken {
		return sentinel.ErrAlreadyUsed
	}
	if _, exists := s.persons[person.ID]; exists {
		return sentinel.ErrConflict
	}
	s.persons[person.ID] = person.Clone()
	s.byDocument[digits] = person.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.persons[id]; ok {
		return p.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByDocument(_ context.Context, digits string) (*models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byDocument[digits]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.persons[id].Clone(), nil
}

// List returns persons ordered by creation time, then ID.
func (s *InMemory) List(_ context.Context, offset, limit int) ([]*models.Person, error) {
	if offset < 0 || limit < 0 {
		return nil, fmt.Errorf("negative offset or limit: %w", sentinel.ErrInvalidState)
	}
	s.mu.RLock()
	all := make([]*models.Person, 0, len(s.persons))
	for _, p := range s.persons {
		all = append(all, p)
	}
	s.mu.RUnlock()

	slices.SortFunc(all, func(a, b *models.Person) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return slices.Compare(a.ID[:], b.ID[:])
	})

	if offset >= len(all) {
		return []*models.Person{}, nil
	}
	end := offset + min(limit, len(all)-offset)
	out := make([]*models.Person, 0, end-offset)
	for _, p := range all[offset:end] {
		out = append(out, p.Clone())
	}
	return out, nil
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.persons), nil
}

// Update replaces the stored person. The document cannot change.
func (s *InMemory) Update(_ context.Context, person *models.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.persons[person.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if existing.DocumentDigits() != person.DocumentDigits() {
		return fmt.Errorf("document is immutable: %w", sentinel.ErrInvalidState)
	}
	s.persons[person.ID] = person.Clone()
	return nil
}

func (s *InMemory) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.persons[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byDocument, p.DocumentDigits())
	delete(s.persons, id)
	return nil
}
