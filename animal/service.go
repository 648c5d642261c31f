package animal

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Service exposes business-level animal operations. Every mutation takes the
// authenticated center id; the repository enforces ownership atomically.
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

// Create adds a new animal owned by the calling center.
func (s *Service) Create(ctx context.Context, centerID string, params CreateParams) (Animal, error) {
	if centerID == "" {
		return Animal{}, fmt.Errorf("animal: missing center id")
	}
	if strings.TrimSpace(params.Name) == "" {
		return Animal{}, fmt.Errorf("animal: name required")
	}
	if params.Age < 0 {
		return Animal{}, fmt.Errorf("animal: age must not be negative")
	}
	if params.Specie == "" {
		return Animal{}, fmt.Errorf("animal: specie required")
	}

	return s.repo.Insert(ctx, Animal{
		ID:          s.idGenerator(),
		CenterID:    centerID,
		Name:        strings.TrimSpace(params.Name),
		Description: params.Description,
		Age:         params.Age,
		Specie:      params.Specie,
		Price:       params.Price,
	})
}

// Update applies a sparse patch to an animal owned by the calling center.
func (s *Service) Update(ctx context.Context, centerID, animalID string, patch UpdatePatch) error {
	if animalID == "" {
		return fmt.Errorf("animal: missing animal id")
	}
	if patch.IsEmpty() {
		return fmt.Errorf("animal: empty update")
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return fmt.Errorf("animal: name must not be empty")
	}
	if patch.Age != nil && *patch.Age < 0 {
		return fmt.Errorf("animal: age must not be negative")
	}
	if patch.Specie != nil && *patch.Specie == "" {
		return fmt.Errorf("animal: specie must not be empty")
	}

	return s.repo.Update(ctx, animalID, centerID, patch)
}

// Delete removes an animal owned by the calling center.
func (s *Service) Delete(ctx context.Context, centerID, animalID string) error {
	if animalID == "" {
		return fmt.Errorf("animal: missing animal id")
	}
	return s.repo.Delete(ctx, animalID, centerID)
}

// Get returns one animal with the price fallback applied.
func (s *Service) Get(ctx context.Context, animalID string) (View, error) {
	return s.repo.GetViewByID(ctx, animalID)
}

// GetRaw returns one animal as stored, without the price fallback.
func (s *Service) GetRaw(ctx context.Context, animalID string) (Animal, error) {
	return s.repo.GetRawByID(ctx, animalID)
}

// List returns all animals with the price fallback applied.
func (s *Service) List(ctx context.Context) ([]View, error) {
	return s.repo.ListViews(ctx)
}

// ListBySpecie returns all animals of one specie.
func (s *Service) ListBySpecie(ctx context.Context, specieID string) ([]View, error) {
	if specieID == "" {
		return nil, fmt.Errorf("animal: missing specie id")
	}
	return s.repo.ListViewsBySpecie(ctx, specieID)
}

// CountBySpecie returns how many animals reference the specie.
func (s *Service) CountBySpecie(ctx context.Context, specieID string) (int, error) {
	if specieID == "" {
		return 0, fmt.Errorf("animal: missing specie id")
	}
	return s.repo.CountBySpecie(ctx, specieID)
}
