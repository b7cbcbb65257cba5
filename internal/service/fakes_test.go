package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"photodoctor/internal/model"
	"photodoctor/internal/repository"
)

var (
	pngBytes  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	jpegBytes = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")
)

type fakeGenerator struct {
	mu      sync.Mutex
	outputs []string
	errs    []error
	calls   int
	users   []string
}

func (g *fakeGenerator) Generate(ctx context.Context, system, user string, image []byte, mime string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.calls
	g.calls++
	g.users = append(g.users, user)
	if i < len(g.errs) && g.errs[i] != nil {
		return "", g.errs[i]
	}
	if i < len(g.outputs) {
		return g.outputs[i], nil
	}
	if len(g.outputs) > 0 {
		return g.outputs[len(g.outputs)-1], nil
	}
	return "", errors.New("no output scripted")
}

type fakeReader struct {
	read  model.VisionRead
	err   error
	calls atomic.Int32
	gate  chan struct{}

	mu      sync.Mutex
	lastCtx context.Context
}

func (r *fakeReader) Read(ctx context.Context, in VisionInput) (*model.VisionRead, error) {
	r.calls.Add(1)
	r.mu.Lock()
	r.lastCtx = ctx
	r.mu.Unlock()
	if r.gate != nil {
		select {
		case <-r.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	read := r.read
	return &read, nil
}

func (r *fakeReader) seenCtx() context.Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastCtx
}

type fakeVisionCache struct {
	mu    sync.Mutex
	reads map[string]model.VisionRead
}

func newFakeVisionCache() *fakeVisionCache {
	return &fakeVisionCache{reads: map[string]model.VisionRead{}}
}

func (c *fakeVisionCache) GetRead(ctx context.Context, key string) (*model.VisionRead, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	read, ok := c.reads[key]
	if !ok {
		return nil, nil
	}
	return &read, nil
}

func (c *fakeVisionCache) SetRead(ctx context.Context, key string, read *model.VisionRead) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads[key] = *read
	return nil
}

func (c *fakeVisionCache) DeleteRead(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.reads, key)
	return nil
}

func (c *fakeVisionCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.reads)
}

type fakeIncidentRepo struct {
	mu        sync.Mutex
	created   []model.Incident
	finalized []model.Incident
	err       error
}

func (r *fakeIncidentRepo) EnsureIndexes(ctx context.Context) {}

func (r *fakeIncidentRepo) Create(ctx context.Context, inc *model.Incident) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.created = append(r.created, *inc)
	return nil
}

func (r *fakeIncidentRepo) Finalize(ctx context.Context, inc *model.Incident) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.finalized = append(r.finalized, *inc)
	return nil
}

func (r *fakeIncidentRepo) GetByID(ctx context.Context, id string) (*model.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.finalized) - 1; i >= 0; i-- {
		if r.finalized[i].ID == id {
			inc := r.finalized[i]
			return &inc, nil
		}
	}
	for _, inc := range r.created {
		if inc.ID == id {
			return &inc, nil
		}
	}
	return nil, nil
}

func (r *fakeIncidentRepo) List(ctx context.Context, limit int) ([]*model.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Incident{}
	for i := range r.created {
		out = append(out, &r.created[i])
	}
	return out, nil
}

type fakePhotoRepo struct {
	mu    sync.Mutex
	saved map[string][]byte
	err   error
}

func (r *fakePhotoRepo) Save(ctx context.Context, data []byte, mime string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	if r.saved == nil {
		r.saved = map[string][]byte{}
	}
	id := fmt.Sprintf("p%d", len(r.saved))
	r.saved[id] = data
	return id, nil
}

func (r *fakePhotoRepo) Open(ctx context.Context, id string) (*repository.Photo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, ok := r.saved[id]
	if !ok {
		return nil, nil
	}
	return &repository.Photo{ID: id, MIME: "image/png", Body: io.NopCloser(bytes.NewReader(data))}, nil
}

type event struct {
	Type     string
	Incident model.Incident
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []event
}

func (b *fakeBroadcaster) Broadcast(msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event{Type: msgType, Incident: payload.(model.Incident)})
}

func (b *fakeBroadcaster) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, e := range b.events {
		out = append(out, e.Type)
	}
	return out
}
