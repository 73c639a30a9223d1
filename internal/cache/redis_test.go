package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SpherenexLabs/npk/internal/models"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "advice:latest:tank-01", LatestKey("tank-01"))
	assert.Equal(t, "advice:recent:tank-01", RecentKey("tank-01"))
}

// TestRedisCache_RoundTrip needs a live Redis; set REDIS_TEST_ADDR to run it.
func TestRedisCache_RoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}

	r, err := NewRedisCache(addr, "", 15)
	require.NoError(t, err)
	defer r.Close()

	ctx := context.Background()
	require.NoError(t, r.client.FlushDB(ctx).Err())

	label := "OK"
	for i := 0; i < RecentLimit+5; i++ {
		err := r.Publish(ctx, &models.IngestResult{
			ResultID:       "r",
			DeviceID:       "tank-01",
			Timestamp:      time.Unix(int64(i), 0).UTC(),
			Classification: models.ClassificationResult{Label: &label, K: 3},
			Warnings:       []models.DataQualityWarning{{Field: "ph", Reason: models.ReasonMissing}},
		})
		require.NoError(t, err)
	}

	latest, found, err := r.GetLatest(ctx, "tank-01")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, time.Unix(int64(RecentLimit+4), 0).UTC(), latest.Timestamp)

	recent, err := r.GetRecent(ctx, "tank-01", 1000)
	require.NoError(t, err)
	assert.Len(t, recent, RecentLimit)

	total, err := r.GetCounter(ctx, ReadingsTotalKey)
	require.NoError(t, err)
	assert.Equal(t, int64(RecentLimit+5), total)

	_, found, err = r.GetLatest(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, found)
}
