package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photodoctor/internal/model"
)

func TestVisionKey(t *testing.T) {
	img := []byte{0xFF, 0xD8, 0x01}

	assert.Equal(t, VisionKey(img, "고추"), VisionKey(img, " 고추 "))
	assert.NotEqual(t, VisionKey(img, "고추"), VisionKey(img, "오이"))
	assert.NotEqual(t, VisionKey(img, ""), VisionKey([]byte{0xFF, 0xD8, 0x02}, ""))
	assert.Len(t, VisionKey(img, ""), 64)
}

// Runs against a live Redis when REDIS_TEST_URI is set.
func TestVisionCacheRoundTrip(t *testing.T) {
	uri := os.Getenv("REDIS_TEST_URI")
	if uri == "" {
		t.Skip("REDIS_TEST_URI not set")
	}
	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	defer client.Close()

	ctx := context.Background()
	c := NewVisionCache(client, time.Minute)
	key := VisionKey([]byte(t.Name()), "")
	defer c.DeleteRead(ctx, key)

	got, err := c.GetRead(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got, "miss is not an error")

	want := &model.VisionRead{
		SessionID:       "abc",
		CropGuess:       model.CropGuess{Name: "고추", Confidence: 70},
		PrimaryCategory: model.CategoryPest,
		Observations:    []string{"잎 뒷면에 작은 벌레"},
		DoctorNote:      "벌레 흔적이 보입니다.",
	}
	require.NoError(t, c.SetRead(ctx, key, want))

	got, err = c.GetRead(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
