package ftp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecent(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	lookback := 24 * time.Hour

	t.Run("inside window", func(t *testing.T) {
		assert.True(t, Recent(now.Add(-23*time.Hour), now, lookback))
	})

	t.Run("outside window", func(t *testing.T) {
		assert.False(t, Recent(now.Add(-25*time.Hour), now, lookback))
	})

	t.Run("exactly at the boundary", func(t *testing.T) {
		assert.True(t, Recent(now.Add(-24*time.Hour), now, lookback))
	})

	t.Run("zero timestamp is not recent", func(t *testing.T) {
		assert.False(t, Recent(time.Time{}, now, lookback))
	})

	t.Run("different zones compare in UTC", func(t *testing.T) {
		belgrade := time.FixedZone("CET", 2*3600)
		modified := now.Add(-23 * time.Hour).In(belgrade)
		assert.True(t, Recent(modified, now, lookback))
	})
}
