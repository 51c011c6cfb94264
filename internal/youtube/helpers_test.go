package youtube

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"google.golang.org/api/youtube/v3"

	"github.com/tubestats/tubestats/internal/models"
)

// mockAPI is a mock implementation of API for testing
type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) ListChannels(ctx context.Context, q ChannelQuery) ([]*youtube.Channel, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*youtube.Channel), args.Error(1)
}

func (m *mockAPI) VideoChannelID(ctx context.Context, videoID string) (string, error) {
	args := m.Called(ctx, videoID)
	return args.String(0), args.Error(1)
}

func (m *mockAPI) ListPlaylistPage(ctx context.Context, playlistID, pageToken string) (*PlaylistPage, error) {
	args := m.Called(ctx, playlistID, pageToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PlaylistPage), args.Error(1)
}

func (m *mockAPI) ListVideos(ctx context.Context, ids []string) ([]models.VideoRecord, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.VideoRecord), args.Error(1)
}

func newTestFetcher(api API) *Fetcher {
	return NewFetcher(api, zerolog.Nop())
}

func channelItem(id string) *youtube.Channel {
	return &youtube.Channel{Id: id}
}
