package youtube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/tubestats/tubestats/internal/errors"
)

const testAPIKey = "test-key"

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(context.Background(), Options{
		APIKey:   testAPIKey,
		Endpoint: srv.URL + "/",
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)
	return c, srv
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), Options{})
	assert.Error(t, err)
}

func TestClient_ListVideos_KeepsAbsentStatistics(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/youtube/v3/videos", r.URL.Path)
		assert.Equal(t, testAPIKey, r.URL.Query().Get("key"))
		assert.Equal(t, "a0000000001,a0000000002", r.URL.Query().Get("id"))
		writeJSON(w, http.StatusOK, `{
			"items": [
				{
					"id": "a0000000002",
					"snippet": {"publishedAt": "2017-03-02T00:00:00Z", "title": "Hidden", "tags": ["x"]},
					"contentDetails": {"duration": "PT3M"},
					"statistics": {"likeCount": "4"}
				},
				{
					"id": "a0000000001",
					"snippet": {"publishedAt": "2017-01-01T00:00:00Z", "title": "Public"},
					"contentDetails": {"duration": "PT10M"},
					"statistics": {"viewCount": "100", "likeCount": "0", "dislikeCount": "0", "commentCount": "3"}
				}
			]
		}`)
	})

	got, err := c.ListVideos(context.Background(), []string{"a0000000001", "a0000000002"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	hidden := got[0]
	assert.Equal(t, "a0000000002", hidden.ID)
	assert.Nil(t, hidden.ViewCount)
	require.NotNil(t, hidden.LikeCount)
	assert.Equal(t, int64(4), *hidden.LikeCount)
	assert.Equal(t, []string{"x"}, hidden.Tags)

	public := got[1]
	require.NotNil(t, public.ViewCount)
	assert.Equal(t, int64(100), *public.ViewCount)
	require.NotNil(t, public.DislikeCount)
	assert.Equal(t, int64(0), *public.DislikeCount)
	assert.Nil(t, public.FavoriteCount)
	assert.Equal(t, "PT10M", public.Duration)
}

func TestClient_ListVideos_RejectsBadCount(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"items":[{"id":"a0000000001","statistics":{"viewCount":"lots"}}]}`)
	})

	_, err := c.ListVideos(context.Background(), []string{"a0000000001"})
	assert.ErrorIs(t, err, apperrors.ErrMalformedRecord)
}

func TestClient_ListVideos_BatchLimit(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := c.ListVideos(context.Background(), make([]string, MaxPageSize+1))
	assert.Error(t, err)

	got, err := c.ListVideos(context.Background(), nil)
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind apperrors.Kind
	}{
		{
			name:     "quota exceeded",
			status:   http.StatusForbidden,
			body:     `{"error":{"code":403,"message":"quota","errors":[{"reason":"quotaExceeded","message":"quota"}]}}`,
			wantKind: apperrors.KindTransient,
		},
		{
			name:     "rate limited",
			status:   http.StatusTooManyRequests,
			body:     `{"error":{"code":429,"message":"slow down"}}`,
			wantKind: apperrors.KindTransient,
		},
		{
			name:     "server error",
			status:   http.StatusServiceUnavailable,
			body:     `{"error":{"code":503,"message":"backend"}}`,
			wantKind: apperrors.KindTransient,
		},
		{
			name:     "not found",
			status:   http.StatusNotFound,
			body:     `{"error":{"code":404,"message":"playlist not found","errors":[{"reason":"playlistNotFound"}]}}`,
			wantKind: apperrors.KindNotFound,
		},
		{
			name:     "bad key",
			status:   http.StatusBadRequest,
			body:     `{"error":{"code":400,"message":"API key not valid","errors":[{"reason":"badRequest"}]}}`,
			wantKind: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			_, err := c.ListPlaylistPage(context.Background(), testPlaylistID, "")
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, apperrors.KindOf(err))

			_, err = c.ListVideos(context.Background(), []string{"a0000000001"})
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, apperrors.KindOf(err))
		})
	}
}

func TestClient_NetworkFailureIsTransient(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := c.ListVideos(context.Background(), []string{"a0000000001"})
	assert.True(t, apperrors.Retryable(err))
}

func TestClient_CancelledContext(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListPlaylistPage(ctx, testPlaylistID, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_ListPlaylistPage(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/youtube/v3/playlistItems", r.URL.Path)
		assert.Equal(t, testPlaylistID, r.URL.Query().Get("playlistId"))
		assert.Equal(t, "50", r.URL.Query().Get("maxResults"))
		assert.Equal(t, "tok", r.URL.Query().Get("pageToken"))
		writeJSON(w, http.StatusOK, `{
			"nextPageToken": "next",
			"pageInfo": {"totalResults": 999, "resultsPerPage": 50},
			"items": [
				{"contentDetails": {"videoId": "a0000000001"}},
				{"contentDetails": {}},
				{"contentDetails": {"videoId": "a0000000002"}}
			]
		}`)
	})

	page, err := c.ListPlaylistPage(context.Background(), testPlaylistID, "tok")
	require.NoError(t, err)
	assert.Equal(t, []string{"a0000000001", "a0000000002"}, page.VideoIDs)
	assert.Equal(t, "next", page.NextPageToken)
	assert.Equal(t, int64(999), page.TotalResults)
}

func TestClient_ListChannels(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/youtube/v3/channels", r.URL.Path)
		q := r.URL.Query()
		switch {
		case q.Get("forUsername") == "Sepharoth64":
			writeJSON(w, http.StatusOK, `{"items":[{"id":"`+testChannelID+`"}]}`)
		case q.Get("forHandle") == "@aliabdaal":
			writeJSON(w, http.StatusOK, `{"items":[{"id":"`+testChannelID+`"}]}`)
		case q.Get("id") == testChannelID:
			assert.True(t, strings.Contains(q.Get("part"), "contentDetails"))
			writeJSON(w, http.StatusOK, `{"items":[{"id":"`+testChannelID+`",
				"snippet":{"title":"Ali","publishedAt":"2013-08-30T11:03:22Z"},
				"statistics":{"subscriberCount":"1000","videoCount":"107"},
				"contentDetails":{"relatedPlaylists":{"uploads":"`+testPlaylistID+`"}}}]}`)
		default:
			writeJSON(w, http.StatusOK, `{"items":[]}`)
		}
	})
	ctx := context.Background()

	items, err := c.ListChannels(ctx, ChannelQuery{Username: "Sepharoth64"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, testChannelID, items[0].Id)

	items, err = c.ListChannels(ctx, ChannelQuery{Handle: "@aliabdaal"})
	require.NoError(t, err)
	require.Len(t, items, 1)

	items, err = c.ListChannels(ctx, ChannelQuery{Username: "nobody"})
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = c.ListChannels(ctx, ChannelQuery{})
	assert.Error(t, err)

	f := NewFetcher(c, zerolog.Nop())
	channel, err := f.FetchChannel(ctx, testChannelID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), channel.SubscriberCount)
	assert.Equal(t, testPlaylistID, channel.UploadsPlaylistID)
}

func TestClient_VideoChannelID(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "snippet", r.URL.Query().Get("part"))
		if r.URL.Query().Get("id") == testVideoID {
			writeJSON(w, http.StatusOK, `{"items":[{"id":"`+testVideoID+`","snippet":{"channelId":"`+testChannelID+`"}}]}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"items":[]}`)
	})

	got, err := c.VideoChannelID(context.Background(), testVideoID)
	require.NoError(t, err)
	assert.Equal(t, testChannelID, got)

	_, err = c.VideoChannelID(context.Background(), "zzzzzzzzzzz")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	resolved, err := NewFetcher(c, zerolog.Nop()).Resolve(context.Background(), "https://youtu.be/zzzzzzzzzzz")
	assert.Empty(t, resolved)
	assert.ErrorIs(t, err, apperrors.ErrResolution)
}
