package center

import "context"

// Service exposes business-level center read operations. Centers are created
// through registration only; there is no mutation surface here.
type Service struct {
	repo ProfileReader
}

// NewService builds a Service using the provided repository.
func NewService(repo ProfileReader) *Service {
	return &Service{repo: repo}
}

// GetByID returns the redacted center detail with its owned animals.
func (s *Service) GetByID(ctx context.Context, id string) (Detail, error) {
	profile, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Detail{}, err
	}

	animals, err := s.repo.ListOwnedAnimals(ctx, id)
	if err != nil {
		return Detail{}, err
	}

	return Detail{Profile: profile, Animals: animals}, nil
}

// List returns up to limit redacted center profiles.
func (s *Service) List(ctx context.Context, limit int) ([]Profile, error) {
	return s.repo.List(ctx, limit)
}
