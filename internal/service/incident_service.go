package service

import (
	"context"

	"photodoctor/internal/model"
	"photodoctor/internal/repository"
)

// IncidentService serves the operator view of past sessions
type IncidentService struct {
	repo repository.IncidentRepo
}

// NewIncidentService creates a new incident service
func NewIncidentService(repo repository.IncidentRepo) *IncidentService {
	return &IncidentService{repo: repo}
}

// List returns recent incidents, newest first
func (s *IncidentService) List(ctx context.Context, limit int) ([]*model.Incident, error) {
	return s.repo.List(ctx, limit)
}

// Get returns nil, nil when the incident does not exist
func (s *IncidentService) Get(ctx context.Context, id string) (*model.Incident, error) {
	return s.repo.GetByID(ctx, id)
}
