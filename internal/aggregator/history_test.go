package aggregator

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SpherenexLabs/npk/internal/models"
)

func point(i int) models.HistoryPoint {
	return models.HistoryPoint{
		Timestamp: time.Unix(int64(i), 0),
		Values:    map[string]float64{"ph": float64(i)},
	}
}

func TestNewHistoryBuffer_InvalidCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		buf, err := NewHistoryBuffer(capacity)
		assert.Nil(t, buf)

		var cfgErr *models.ConfigError
		require.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, "capacity", cfgErr.Field)
	}
}

func TestHistoryBuffer_BelowCapacity(t *testing.T) {
	buf, err := NewHistoryBuffer(5)
	require.NoError(t, err)
	assert.Empty(t, buf.Snapshot())

	for i := 0; i < 3; i++ {
		buf.Append(point(i))
	}
	assert.Equal(t, 3, buf.Len())
	assert.Equal(t, 5, buf.Cap())

	snap := buf.Snapshot()
	for i, p := range snap {
		assert.Equal(t, float64(i), p.Value("ph"))
	}
}

func TestHistoryBuffer_EvictsOldest(t *testing.T) {
	buf, err := NewHistoryBuffer(DefaultHistoryCapacity)
	require.NoError(t, err)

	for i := 0; i < 60; i++ {
		buf.Append(point(i))
		assert.LessOrEqual(t, buf.Len(), DefaultHistoryCapacity)
	}

	snap := buf.Snapshot()
	require.Len(t, snap, 50)
	assert.Equal(t, 10.0, snap[0].Value("ph"))
	assert.Equal(t, 59.0, snap[49].Value("ph"))
	for i := 1; i < len(snap); i++ {
		assert.True(t, snap[i-1].Timestamp.Before(snap[i].Timestamp))
	}
}

func TestHistoryBuffer_CapacityOne(t *testing.T) {
	buf, err := NewHistoryBuffer(1)
	require.NoError(t, err)

	buf.Append(point(1))
	buf.Append(point(2))

	snap := buf.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, 2.0, snap[0].Value("ph"))
}

func TestHistoryBuffer_SnapshotIsIndependent(t *testing.T) {
	buf, _ := NewHistoryBuffer(3)
	buf.Append(point(1))

	snap := buf.Snapshot()
	snap[0].Values["ph"] = 99

	buf.Append(point(2))
	assert.Len(t, snap, 1)
	assert.Equal(t, 1.0, buf.Snapshot()[0].Value("ph"))
}

func BenchmarkHistoryBuffer_Append(b *testing.B) {
	buf, _ := NewHistoryBuffer(DefaultHistoryCapacity)
	p := point(1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf.Append(p)
	}
}
