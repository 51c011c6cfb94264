package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The SQLiteCloud store itself needs a live server; these cover the row encoding and
// freshness rules its Get and Put are built on.

func TestSnapshotRow(t *testing.T) {
	fetchedAt := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

	row, err := snapshotRow(testChannelID, testSnapshot(fetchedAt))
	require.NoError(t, err)
	require.Len(t, row, 5)

	assert.Equal(t, testChannelID, row[0])
	assert.Equal(t, "Ali Abdaal", row[1])
	assert.Equal(t, 2, row[2])
	assert.Equal(t, "2024-05-01T12:30:00Z", row[4])

	snap, fresh, err := snapshotFromRow(row[3].(string), 0, fetchedAt.Add(365*24*time.Hour))
	require.NoError(t, err)
	assert.True(t, fresh, "a zero ttl never expires")
	assert.True(t, fetchedAt.Equal(snap.FetchedAt))
	require.Len(t, snap.Videos, 2)
	assert.Equal(t, int64(100), *snap.Videos[0].ViewCount)
	assert.Nil(t, snap.Videos[1].ViewCount, "absent statistics stay absent")
}

func TestSnapshotFromRow(t *testing.T) {
	fetchedAt := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	row, err := snapshotRow(testChannelID, testSnapshot(fetchedAt))
	require.NoError(t, err)
	payload := row[3].(string)

	tests := []struct {
		name      string
		payload   string
		ttl       time.Duration
		now       time.Time
		wantFresh bool
		wantErr   bool
	}{
		{"within ttl", payload, time.Hour, fetchedAt.Add(59 * time.Minute), true, false},
		{"at ttl", payload, time.Hour, fetchedAt.Add(time.Hour), false, false},
		{"past ttl", payload, time.Hour, fetchedAt.Add(2 * time.Hour), false, false},
		{"no ttl", payload, 0, fetchedAt.Add(1000 * time.Hour), true, false},
		{"corrupt", "{not json", time.Hour, fetchedAt, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, fresh, err := snapshotFromRow(tt.payload, tt.ttl, tt.now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFresh, fresh)
			if tt.wantFresh {
				require.NotNil(t, snap)
				assert.Equal(t, testChannelID, snap.Channel.ID)
			} else {
				assert.Nil(t, snap)
			}
		})
	}
}
