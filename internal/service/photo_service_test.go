package service

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photodoctor/internal/model"
)

func TestPhotoServiceUpload(t *testing.T) {
	repo := &fakePhotoRepo{}
	s := NewPhotoService(repo, "http://localhost:8080")
	ctx := context.Background()

	url, err := s.Upload(ctx, pngBytes, "")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/v1/photos/p0", url)

	_, err = s.Upload(ctx, []byte("<html></html>"), "image/png")
	assert.ErrorIs(t, err, ErrImageUnreadable)

	photo, err := s.Open(ctx, "p0")
	require.NoError(t, err)
	require.NotNil(t, photo)
	body, err := io.ReadAll(photo.Body)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, body)

	missing, err := s.Open(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestIncidentServiceGet(t *testing.T) {
	repo := &fakeIncidentRepo{}
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &model.Incident{ID: "s-1", Status: model.IncidentVisionDone}))
	require.NoError(t, repo.Finalize(ctx, &model.Incident{ID: "s-1", Status: model.IncidentNeedReview}))
	s := NewIncidentService(repo)

	inc, err := s.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, model.IncidentNeedReview, inc.Status)

	inc, err = s.Get(ctx, "s-2")
	require.NoError(t, err)
	assert.Nil(t, inc)

	list, err := s.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
