package youtube

import (
	"context"
	stderrors "errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tubestats/tubestats/internal/errors"
)

var (
	videoIDPattern   = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	channelIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{24}$`)
	handlePattern    = regexp.MustCompile(`^[A-Za-z0-9._-]{3,30}$`)
)

// Fetcher resolves channels and collects their uploads through an API.
type Fetcher struct {
	api API
	log zerolog.Logger
}

// NewFetcher wraps api.
func NewFetcher(api API, log zerolog.Logger) *Fetcher {
	return &Fetcher{
		api: api,
		log: log.With().Str("component", "fetcher").Logger(),
	}
}

// Resolve turns user input into a canonical channel ID. Accepted forms are a bare
// channel ID, a bare video ID and the channel, user, @handle and video URL shapes.
func (f *Fetcher) Resolve(ctx context.Context, input string) (string, error) {
	input = strings.TrimSpace(input)
	switch {
	case input == "":
		return "", errors.Resolution("empty input")
	case videoIDPattern.MatchString(input):
		return f.channelOfVideo(ctx, input)
	case channelIDPattern.MatchString(input):
		return input, nil
	case strings.HasPrefix(input, "@") && handlePattern.MatchString(input[1:]):
		return f.channelOf(ctx, ChannelQuery{Handle: input})
	}

	target, err := parseURL(input)
	if err != nil {
		return "", err
	}

	switch target.kind {
	case targetChannel:
		return target.value, nil
	case targetVideo:
		return f.channelOfVideo(ctx, target.value)
	case targetUser:
		return f.channelOf(ctx, ChannelQuery{Username: target.value})
	case targetHandle:
		return f.channelOf(ctx, ChannelQuery{Handle: target.value})
	}
	return "", errors.Resolution("unrecognized input")
}

func (f *Fetcher) channelOfVideo(ctx context.Context, videoID string) (string, error) {
	channelID, err := f.api.VideoChannelID(ctx, videoID)
	if stderrors.Is(err, errors.ErrNotFound) {
		return "", errors.Resolution("video %s does not exist", videoID)
	}
	if err != nil {
		return "", err
	}
	if channelID == "" {
		return "", errors.Resolution("video %s has no owning channel", videoID)
	}
	f.log.Debug().Str("video_id", videoID).Str("channel_id", channelID).Msg("resolved video owner")
	return channelID, nil
}

func (f *Fetcher) channelOf(ctx context.Context, q ChannelQuery) (string, error) {
	items, err := f.api.ListChannels(ctx, q)
	if stderrors.Is(err, errors.ErrNotFound) {
		return "", errors.Resolution("no channel for %s", q)
	}
	if err != nil {
		return "", err
	}
	if len(items) == 0 || items[0] == nil || items[0].Id == "" {
		return "", errors.Resolution("no channel for %s", q)
	}
	f.log.Debug().Stringer("query", q).Str("channel_id", items[0].Id).Msg("resolved channel")
	return items[0].Id, nil
}

type targetKind int

const (
	targetChannel targetKind = iota + 1
	targetUser
	targetHandle
	targetVideo
)

type urlTarget struct {
	kind  targetKind
	value string
}

// parseURL recognizes youtube.com and youtu.be links. The scheme is optional.
func parseURL(input string) (urlTarget, error) {
	raw := input
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return urlTarget{}, errors.Resolution("unrecognized input")
	}

	host := strings.ToLower(u.Hostname())
	for _, prefix := range []string{"www.", "m.", "music."} {
		host = strings.TrimPrefix(host, prefix)
	}
	segments := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })

	switch host {
	case "youtu.be":
		if len(segments) > 0 && videoIDPattern.MatchString(segments[0]) {
			return urlTarget{targetVideo, segments[0]}, nil
		}
	case "youtube.com":
		if t, ok := youtubePath(u, segments); ok {
			return t, nil
		}
	}
	return urlTarget{}, errors.Resolution("unrecognized input")
}

func youtubePath(u *url.URL, segments []string) (urlTarget, bool) {
	if len(segments) == 0 {
		return urlTarget{}, false
	}

	first := segments[0]
	if strings.HasPrefix(first, "@") {
		handle := strings.TrimPrefix(first, "@")
		if handlePattern.MatchString(handle) {
			return urlTarget{targetHandle, "@" + handle}, true
		}
		return urlTarget{}, false
	}

	if first == "watch" {
		v := u.Query().Get("v")
		if videoIDPattern.MatchString(v) {
			return urlTarget{targetVideo, v}, true
		}
		return urlTarget{}, false
	}

	if len(segments) < 2 {
		return urlTarget{}, false
	}
	value := segments[1]
	switch first {
	case "channel":
		if channelIDPattern.MatchString(value) {
			return urlTarget{targetChannel, value}, true
		}
	case "user":
		if value != "" {
			return urlTarget{targetUser, value}, true
		}
	case "shorts", "embed", "live", "v":
		if videoIDPattern.MatchString(value) {
			return urlTarget{targetVideo, value}, true
		}
	}
	return urlTarget{}, false
}
