package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tubestats/tubestats/internal/analysis"
	"github.com/tubestats/tubestats/internal/errors"
	"github.com/tubestats/tubestats/internal/models"
	"github.com/tubestats/tubestats/internal/service"
)

// VideoView is one derived record as the API renders it.
type VideoView struct {
	models.DerivedVideo
	URL string `json:"url"`
}

// resolve handles GET /resolve?input=
func (s *Server) resolve(c *gin.Context) {
	input := c.Query("input")
	if input == "" {
		s.badRequest(c, "input query parameter is required")
		return
	}

	channelID, err := s.svc.Resolve(c.Request.Context(), input)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"channelId": channelID})
}

// getChannel handles GET /channel/:id
func (s *Server) getChannel(c *gin.Context) {
	channelID, ok := s.channelID(c)
	if !ok {
		return
	}

	channel, err := s.svc.GetChannel(c.Request.Context(), channelID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"channel":   channel,
		"startDate": channel.StartDate(),
	})
}

// getChannelVideos handles GET /channel/:id/videos. raw=true returns the records as
// fetched; otherwise the derived records in the requested window.
func (s *Server) getChannelVideos(c *gin.Context) {
	channelID, ok := s.channelID(c)
	if !ok {
		return
	}
	start, end, ok := s.window(c)
	if !ok {
		return
	}

	if raw, _ := strconv.ParseBool(c.Query("raw")); raw {
		snap, err := s.svc.GetVideos(c.Request.Context(), channelID)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"channelId": channelID,
			"count":     len(snap.Videos),
			"fetchedAt": snap.FetchedAt,
			"videos":    snap.Videos,
		})
		return
	}

	_, derived, err := s.svc.Derived(c.Request.Context(), channelID)
	if err != nil {
		s.fail(c, err)
		return
	}
	window := analysis.FilterByDate(derived, start, end)
	views := make([]VideoView, len(window))
	for i, v := range window {
		views[i] = VideoView{DerivedVideo: v, URL: models.WatchURL(v.ID)}
	}
	c.JSON(http.StatusOK, gin.H{
		"channelId": channelID,
		"count":     len(views),
		"videos":    views,
	})
}

// getChannelReport handles GET /channel/:id/report
func (s *Server) getChannelReport(c *gin.Context) {
	channelID, ok := s.channelID(c)
	if !ok {
		return
	}

	opts := service.DefaultReportOptions()
	var valid bool
	if opts.Start, opts.End, valid = s.window(c); !valid {
		return
	}
	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"top", &opts.TopViewed},
		{"disliked", &opts.TopDisliked},
		{"gaps", &opts.TopGaps},
	} {
		v := c.Query(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.badRequest(c, fmt.Sprintf("%s must be a non-negative integer", p.name))
			return
		}
		*p.dst = n
	}
	opts.IncludeUndefined, _ = strconv.ParseBool(c.Query("undefined"))

	report, err := s.svc.BuildReport(c.Request.Context(), channelID, opts)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// invalidateChannel handles DELETE /channel/:id/cache
func (s *Server) invalidateChannel(c *gin.Context) {
	channelID, ok := s.channelID(c)
	if !ok {
		return
	}
	if err := s.svc.Invalidate(c.Request.Context(), channelID); err != nil {
		s.log.Warn().Err(err).Str("channel_id", channelID).Msg("cache invalidation failed")
	}
	c.Status(http.StatusNoContent)
}

// channelID resolves the :id path parameter, which may be any input Resolve accepts.
func (s *Server) channelID(c *gin.Context) (string, bool) {
	id, err := s.svc.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return "", false
	}
	return id, true
}

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// window parses the optional start and end query parameters.
func (s *Server) window(c *gin.Context) (start, end time.Time, ok bool) {
	parse := func(name string) (time.Time, bool) {
		v := c.Query(name)
		if v == "" {
			return time.Time{}, true
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t.UTC(), true
			}
		}
		s.badRequest(c, fmt.Sprintf("%s must be a date (YYYY-MM-DD) or an RFC 3339 timestamp", name))
		return time.Time{}, false
	}

	if start, ok = parse("start"); !ok {
		return
	}
	if end, ok = parse("end"); !ok {
		return
	}
	if !start.IsZero() && !end.IsZero() && !start.Before(end) {
		s.badRequest(c, "start must be before end")
		return start, end, false
	}
	return start, end, true
}

var kindStatus = map[errors.Kind]int{
	errors.KindResolution:      http.StatusBadRequest,
	errors.KindNotFound:        http.StatusNotFound,
	errors.KindTransient:       http.StatusServiceUnavailable,
	errors.KindMalformedRecord: http.StatusBadGateway,
}

// failureMessage is the only text a failed analysis shows; the kind and status tell
// clients apart and the cause only goes to the log.
const failureMessage = "failed to analyze channel"

func (s *Server) fail(c *gin.Context, err error) {
	kind := errors.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	// client closed the request
	if c.Request.Context().Err() != nil {
		status = 499
	}

	s.log.Warn().
		Err(err).
		Str("request_id", c.GetString(requestIDKey)).
		Str("kind", string(kind)).
		Msg("request failed")

	c.AbortWithStatusJSON(status, gin.H{
		"error":     failureMessage,
		"kind":      kind,
		"requestId": c.GetString(requestIDKey),
	})
}

func (s *Server) badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error":     message,
		"requestId": c.GetString(requestIDKey),
	})
}
