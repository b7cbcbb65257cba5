package service

import (
	"context"
	"fmt"

	"photodoctor/internal/repository"
)

// PhotoService stores uploads and hands out their public URLs
type PhotoService struct {
	repo    repository.PhotoRepo
	baseURL string
}

// NewPhotoService creates a new photo service
func NewPhotoService(repo repository.PhotoRepo, baseURL string) *PhotoService {
	return &PhotoService{repo: repo, baseURL: baseURL}
}

// Upload validates and stores a photo
func (s *PhotoService) Upload(ctx context.Context, data []byte, declaredMIME string) (string, error) {
	mime, err := ImageMIME(declaredMIME, data)
	if err != nil {
		return "", err
	}
	return s.Store(ctx, data, mime)
}

// Store saves bytes that are already known to be a photo
func (s *PhotoService) Store(ctx context.Context, data []byte, mime string) (string, error) {
	id, err := s.repo.Save(ctx, data, mime)
	if err != nil {
		return "", fmt.Errorf("save photo: %w", err)
	}
	return s.URL(id), nil
}

// Open returns nil, nil for unknown ids
func (s *PhotoService) Open(ctx context.Context, id string) (*repository.Photo, error) {
	return s.repo.Open(ctx, id)
}

// URL is the public address of a stored photo
func (s *PhotoService) URL(id string) string {
	return s.baseURL + "/v1/photos/" + id
}
