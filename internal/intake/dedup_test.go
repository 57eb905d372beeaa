package intake

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDedupTable_Claim(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	table := newDedupTable(5 * time.Minute)
	table.now = func() time.Time { return now }

	t.Run("FirstClaimWins", func(t *testing.T) {
		assert.True(t, table.Claim("k1"))
		assert.False(t, table.Claim("k1"))
	})

	t.Run("ExpiredKeyCanBeReclaimed", func(t *testing.T) {
		assert.True(t, table.Claim("k2"))
		now = now.Add(5*time.Minute + time.Second)
		assert.True(t, table.Claim("k2"))
	})

	t.Run("ForgetReleasesKey", func(t *testing.T) {
		assert.True(t, table.Claim("k3"))
		table.Forget("k3")
		assert.True(t, table.Claim("k3"))
	})
}

func TestDedupTable_SweepDropsExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	table := newDedupTable(time.Minute)
	table.now = func() time.Time { return now }

	for i := 0; i < 1025; i++ {
		assert.True(t, table.Claim(fmt.Sprintf("competing-registration-comp-%d", i)))
	}
	now = now.Add(2 * time.Minute)
	assert.True(t, table.Claim("fresh"))

	// Everything before the window moved is expired; the sweep on the next
	// overflow claim keeps the table from growing without bound.
	table.mu.Lock()
	size := len(table.entries)
	table.mu.Unlock()
	assert.LessOrEqual(t, size, 2)
}
