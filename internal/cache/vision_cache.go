package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"photodoctor/internal/model"
)

// VisionCache holds first photo reads so a photo is read at most once
type VisionCache interface {
	GetRead(ctx context.Context, key string) (*model.VisionRead, error)
	SetRead(ctx context.Context, key string, read *model.VisionRead) error
	DeleteRead(ctx context.Context, key string) error
}

type visionCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewVisionCache creates a new vision cache
func NewVisionCache(client redis.Cmdable, ttl time.Duration) VisionCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &visionCache{
		client: client,
		ttl:    ttl,
	}
}

// VisionKey derives the cache key for a photo and the crop the farmer named
func VisionKey(image []byte, cropHint string) string {
	h := sha256.New()
	h.Write(image)
	h.Write([]byte{0})
	h.Write([]byte(strings.TrimSpace(cropHint)))
	return hex.EncodeToString(h.Sum(nil))
}

func (c *visionCache) key(k string) string {
	return fmt.Sprintf("vision:%s", k)
}

func (c *visionCache) SetRead(ctx context.Context, key string, read *model.VisionRead) error {
	data, err := json.Marshal(read)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(key), data, c.ttl).Err()
}

func (c *visionCache) GetRead(ctx context.Context, key string) (*model.VisionRead, error) {
	data, err := c.client.Get(ctx, c.key(key)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var read model.VisionRead
	if err := json.Unmarshal([]byte(data), &read); err != nil {
		return nil, err
	}
	return &read, nil
}

func (c *visionCache) DeleteRead(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.key(key)).Err()
}
