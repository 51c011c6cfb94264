package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tubestats/tubestats/internal/models"
)

const testChannelID = "UCoOae5nYA7VqaXzerajD0lg"

func testSnapshot(fetchedAt time.Time) *models.Snapshot {
	return &models.Snapshot{
		Channel: models.ChannelIdentity{ID: testChannelID, Title: "Ali Abdaal", VideoCount: 2},
		Videos: []models.VideoRecord{
			{ID: "a0000000001", PublishedAt: "2017-01-01T00:00:00Z", Duration: "PT1M", ViewCount: models.Int64(100)},
			{ID: "a0000000002", PublishedAt: "2017-03-02T00:00:00Z", Duration: "PT2M"},
		},
		FetchedAt: fetchedAt.UTC().Truncate(time.Second),
	}
}

// storeContract runs the behaviour every backend must share.
func storeContract(t *testing.T, s Store) {
	ctx := context.Background()

	got, err := s.Get(ctx, testChannelID)
	require.NoError(t, err)
	assert.Nil(t, got, "empty store must miss")

	snap := testSnapshot(time.Now())
	require.NoError(t, s.Put(ctx, testChannelID, snap))

	got, err = s.Get(ctx, testChannelID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, snap.Channel, got.Channel)
	require.Len(t, got.Videos, 2)
	assert.Equal(t, int64(100), *got.Videos[0].ViewCount)
	assert.Nil(t, got.Videos[1].ViewCount, "absent statistics survive the round trip")
	assert.True(t, snap.FetchedAt.Equal(got.FetchedAt))

	require.NoError(t, s.Invalidate(ctx, testChannelID))
	got, err = s.Get(ctx, testChannelID)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Invalidate(ctx, "UCmissing"), "invalidating a miss is not an error")
}

func TestMemory_Contract(t *testing.T) {
	storeContract(t, NewMemory(0))
}

func TestMemory_TTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory(time.Hour)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Put(ctx, testChannelID, testSnapshot(now)))

	now = now.Add(59 * time.Minute)
	got, err := m.Get(ctx, testChannelID)
	require.NoError(t, err)
	assert.NotNil(t, got)

	now = now.Add(time.Minute)
	got, err = m.Get(ctx, testChannelID)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 0, m.Len())
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)
	snap := testSnapshot(time.Now())
	require.NoError(t, m.Put(ctx, testChannelID, snap))

	snap.Videos[0].ID = "mutated"
	got, err := m.Get(ctx, testChannelID)
	require.NoError(t, err)
	got.Videos[1].ID = "mutated too"

	again, err := m.Get(ctx, testChannelID)
	require.NoError(t, err)
	assert.Equal(t, "a0000000001", again.Videos[0].ID)
	assert.Equal(t, "a0000000002", again.Videos[1].ID)
}

func newMiniRedis(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisFromClient(rdb, ttl, zerolog.Nop()), mr
}

func TestRedis_Contract(t *testing.T) {
	r, _ := newMiniRedis(t, 0)
	defer r.Close()
	storeContract(t, r)
}

func TestRedis_TTL(t *testing.T) {
	ctx := context.Background()
	r, mr := newMiniRedis(t, 10*time.Minute)
	defer r.Close()

	require.NoError(t, r.Put(ctx, testChannelID, testSnapshot(time.Now())))
	assert.True(t, mr.Exists(snapshotKey(testChannelID)))
	assert.Equal(t, 10*time.Minute, mr.TTL(snapshotKey(testChannelID)))

	mr.FastForward(11 * time.Minute)
	got, err := r.Get(ctx, testChannelID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedis_CorruptPayload(t *testing.T) {
	r, mr := newMiniRedis(t, 0)
	defer r.Close()
	require.NoError(t, mr.Set(snapshotKey(testChannelID), "{not json"))

	_, err := r.Get(context.Background(), testChannelID)
	assert.Error(t, err)
}

func TestNewRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	r, err := NewRedis(context.Background(), "redis://"+mr.Addr()+"/0", 0, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, r.Close())

	_, err = NewRedis(context.Background(), "", 0, zerolog.Nop())
	assert.Error(t, err)

	_, err = NewRedis(context.Background(), "not a url", 0, zerolog.Nop())
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	s, err := Open(context.Background(), Options{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	mr := miniredis.RunT(t)
	s, err = Open(context.Background(), Options{Backend: BackendRedis, RedisURL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	assert.IsType(t, &Redis{}, s)
	require.NoError(t, s.Close())

	_, err = Open(context.Background(), Options{Backend: "memcached"})
	assert.Error(t, err)
}

func TestMaskConnectionString(t *testing.T) {
	assert.Equal(t,
		"sqlitecloud://host.sqlite.cloud:8860/tubestats?apikey=***",
		maskConnectionString("sqlitecloud://host.sqlite.cloud:8860/tubestats?apikey=secret"),
	)
	assert.Equal(t, "sqlitecloud://host/db", maskConnectionString("sqlitecloud://host/db"))
}

func TestExpired(t *testing.T) {
	now := time.Now()
	assert.False(t, expired(now.Add(-time.Hour), 0, now))
	assert.False(t, expired(now.Add(-time.Minute), time.Hour, now))
	assert.True(t, expired(now.Add(-time.Hour), time.Hour, now))
}
