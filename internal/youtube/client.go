// Package youtube talks to the YouTube Data API v3: it resolves user input to a channel,
// fetches channel metadata and walks a channel's uploads playlist.
package youtube

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/tubestats/tubestats/internal/errors"
	"github.com/tubestats/tubestats/internal/models"
)

const (
	defaultEndpoint = "https://www.googleapis.com/"
	apiPath         = "youtube/v3"

	// MaxPageSize is the largest page the playlistItems and videos endpoints accept.
	MaxPageSize = 50
)

var (
	channelParts  = []string{"snippet", "contentDetails", "statistics"}
	videoParts    = "snippet,contentDetails,statistics"
	playlistParts = []string{"contentDetails"}
)

// API is the slice of the YouTube Data API the fetchers depend on.
type API interface {
	ListChannels(ctx context.Context, q ChannelQuery) ([]*youtube.Channel, error)
	VideoChannelID(ctx context.Context, videoID string) (string, error)
	ListPlaylistPage(ctx context.Context, playlistID, pageToken string) (*PlaylistPage, error)
	ListVideos(ctx context.Context, ids []string) ([]models.VideoRecord, error)
}

// ChannelQuery selects a channel by exactly one of its fields.
type ChannelQuery struct {
	ID       string
	Username string
	Handle   string
}

func (q ChannelQuery) String() string {
	switch {
	case q.ID != "":
		return "id=" + q.ID
	case q.Username != "":
		return "forUsername=" + q.Username
	default:
		return "forHandle=" + q.Handle
	}
}

// PlaylistPage is one page of an uploads playlist.
type PlaylistPage struct {
	VideoIDs      []string
	NextPageToken string
	// TotalResults is advisory only and may disagree with the real item count.
	TotalResults int64
}

// Options configures a Client.
type Options struct {
	APIKey     string
	Endpoint   string
	RPS        float64
	Burst      int
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Client implements API. Channel and playlist lookups go through the generated service;
// videos.list is decoded by hand so an absent statistic stays distinguishable from zero.
type Client struct {
	service *youtube.Service
	http    *http.Client
	apiKey  string
	baseURL string
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewClient creates a client for the given API key.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("youtube: api key required")
	}

	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}

	svcOpts := []option.ClientOption{option.WithAPIKey(opts.APIKey)}
	if opts.Endpoint != "" {
		svcOpts = append(svcOpts, option.WithEndpoint(endpoint))
	}
	service, err := youtube.NewService(ctx, svcOpts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	limit := rate.Inf
	if opts.RPS > 0 {
		limit = rate.Limit(opts.RPS)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		service: service,
		http:    httpClient,
		apiKey:  opts.APIKey,
		baseURL: endpoint + apiPath,
		limiter: rate.NewLimiter(limit, burst),
		log:     opts.Logger.With().Str("component", "youtube").Logger(),
	}, nil
}

// ListChannels runs channels.list for the query.
func (c *Client) ListChannels(ctx context.Context, q ChannelQuery) ([]*youtube.Channel, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	call := c.service.Channels.List(channelParts).Context(ctx)
	switch {
	case q.ID != "":
		call = call.Id(q.ID)
	case q.Username != "":
		call = call.ForUsername(q.Username)
	case q.Handle != "":
		call = call.ForHandle(q.Handle)
	default:
		return nil, fmt.Errorf("youtube: empty channel query")
	}

	resp, err := call.Do()
	if err != nil {
		return nil, classify(ctx, err, "channels.list "+q.String())
	}
	return resp.Items, nil
}

// VideoChannelID returns the channel that owns videoID.
func (c *Client) VideoChannelID(ctx context.Context, videoID string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	resp, err := c.service.Videos.List([]string{"snippet"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		return "", classify(ctx, err, "videos.list id="+videoID)
	}
	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return "", errors.NotFound("video %s not found", videoID)
	}
	return resp.Items[0].Snippet.ChannelId, nil
}

// ListPlaylistPage fetches one page of up to MaxPageSize items.
func (c *Client) ListPlaylistPage(ctx context.Context, playlistID, pageToken string) (*PlaylistPage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	call := c.service.PlaylistItems.List(playlistParts).
		PlaylistId(playlistID).
		MaxResults(MaxPageSize).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, classify(ctx, err, "playlistItems.list playlistId="+playlistID)
	}

	page := &PlaylistPage{
		VideoIDs:      make([]string, 0, len(resp.Items)),
		NextPageToken: resp.NextPageToken,
	}
	if resp.PageInfo != nil {
		page.TotalResults = resp.PageInfo.TotalResults
	}
	for _, item := range resp.Items {
		if item == nil || item.ContentDetails == nil || item.ContentDetails.VideoId == "" {
			continue
		}
		page.VideoIDs = append(page.VideoIDs, item.ContentDetails.VideoId)
	}
	return page, nil
}

type videoListResponse struct {
	Items []videoResource `json:"items"`
}

type videoResource struct {
	ID      string `json:"id"`
	Snippet struct {
		PublishedAt string   `json:"publishedAt"`
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Tags        []string `json:"tags"`
	} `json:"snippet"`
	ContentDetails struct {
		Duration string `json:"duration"`
	} `json:"contentDetails"`
	Statistics struct {
		ViewCount     *string `json:"viewCount"`
		LikeCount     *string `json:"likeCount"`
		DislikeCount  *string `json:"dislikeCount"`
		FavoriteCount *string `json:"favoriteCount"`
		CommentCount  *string `json:"commentCount"`
	} `json:"statistics"`
}

// ListVideos runs videos.list for at most MaxPageSize IDs. Records come back in the
// order the platform returns them; IDs it does not know are absent.
func (c *Client) ListVideos(ctx context.Context, ids []string) ([]models.VideoRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > MaxPageSize {
		return nil, fmt.Errorf("youtube: videos.list accepts at most %d ids, got %d", MaxPageSize, len(ids))
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("part", videoParts)
	params.Set("id", strings.Join(ids, ","))
	params.Set("maxResults", strconv.Itoa(MaxPageSize))
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/videos?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build videos request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classify(ctx, err, "videos.list")
	}
	defer resp.Body.Close()

	if err := googleapi.CheckResponse(resp); err != nil {
		return nil, classify(ctx, err, "videos.list")
	}

	var body videoListResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.Transient(err, "decode videos.list response")
	}

	records := make([]models.VideoRecord, 0, len(body.Items))
	for _, item := range body.Items {
		rec, err := item.record()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	c.log.Debug().Int("requested", len(ids)).Int("returned", len(records)).Msg("videos.list")
	return records, nil
}

func (v videoResource) record() (models.VideoRecord, error) {
	rec := models.VideoRecord{
		ID:          v.ID,
		Title:       v.Snippet.Title,
		Description: v.Snippet.Description,
		PublishedAt: v.Snippet.PublishedAt,
		Duration:    v.ContentDetails.Duration,
		Tags:        v.Snippet.Tags,
	}

	counts := []struct {
		field string
		raw   *string
		dst   **int64
	}{
		{"viewCount", v.Statistics.ViewCount, &rec.ViewCount},
		{"likeCount", v.Statistics.LikeCount, &rec.LikeCount},
		{"dislikeCount", v.Statistics.DislikeCount, &rec.DislikeCount},
		{"favoriteCount", v.Statistics.FavoriteCount, &rec.FavoriteCount},
		{"commentCount", v.Statistics.CommentCount, &rec.CommentCount},
	}
	for _, c := range counts {
		if c.raw == nil {
			continue
		}
		n, err := strconv.ParseInt(*c.raw, 10, 64)
		if err != nil {
			return models.VideoRecord{}, errors.Malformed(v.ID, c.field, "is not an integer: "+*c.raw)
		}
		*c.dst = models.Int64(n)
	}
	return rec, nil
}

var transientReasons = map[string]bool{
	"quotaExceeded":         true,
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
	"dailyLimitExceeded":    true,
	"backendError":          true,
}

// classify maps a transport or API failure onto the error taxonomy. Cancellation is
// passed through untouched so callers can tell it apart from a platform failure.
func classify(ctx context.Context, err error, op string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *googleapi.Error
	if stderrors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusNotFound:
			return errors.Wrap(err, errors.KindNotFound, op+": not found")
		case apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError:
			return errors.Transient(err, "%s: status %d", op, apiErr.Code)
		case apiErr.Code == http.StatusForbidden && hasTransientReason(apiErr):
			return errors.Transient(err, "%s: quota or rate limit", op)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return errors.Transient(err, "%s: network failure", op)
	}
	return errors.Transient(err, "%s", op)
}

func hasTransientReason(e *googleapi.Error) bool {
	for _, item := range e.Errors {
		if transientReasons[item.Reason] {
			return true
		}
	}
	return false
}
