package specie

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Service exposes business-level specie operations. Species are created by any
// authenticated center and never updated or deleted.
type Service struct {
	repo        Repository
	idGenerator func() string
}

// NewService builds a Service using the provided repository.
func NewService(repo Repository) *Service {
	return &Service{
		repo:        repo,
		idGenerator: func() string { return uuid.NewString() },
	}
}

// WithIDGenerator overrides id generation, intended for tests.
func (s *Service) WithIDGenerator(gen func() string) *Service {
	s.idGenerator = gen
	return s
}

// Create adds a new specie.
func (s *Service) Create(ctx context.Context, params CreateParams) (Specie, error) {
	if strings.TrimSpace(params.Name) == "" {
		return Specie{}, fmt.Errorf("specie: name required")
	}
	if strings.TrimSpace(params.Description) == "" {
		return Specie{}, fmt.Errorf("specie: description required")
	}
	if params.Price < 0 {
		return Specie{}, fmt.Errorf("specie: price must not be negative")
	}

	return s.repo.Insert(ctx, Specie{
		ID:          s.idGenerator(),
		Name:        strings.TrimSpace(params.Name),
		Description: strings.TrimSpace(params.Description),
		Price:       params.Price,
	})
}

// List returns all species with their read-time animal counts.
func (s *Service) List(ctx context.Context) ([]Summary, error) {
	return s.repo.ListSummaries(ctx)
}

// Get returns one specie with the redacted projections of its animals.
func (s *Service) Get(ctx context.Context, specieID string) (Detail, error) {
	sp, err := s.repo.GetByID(ctx, specieID)
	if err != nil {
		return Detail{}, err
	}

	refs, err := s.repo.ListAnimalRefs(ctx, specieID)
	if err != nil {
		return Detail{}, err
	}

	return Detail{Specie: sp, Animals: refs}, nil
}
