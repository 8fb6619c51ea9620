package haven

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// QueueFetcher is the read surface the poller needs. Implemented by *Client;
// tests substitute fakes.
type QueueFetcher interface {
	FetchQueueStatus(ctx context.Context) (*QueueStatus, error)
	FetchStats(ctx context.Context) (*LibraryStats, error)
}

var _ QueueFetcher = (*Client)(nil)

// FetchLibrary retrieves a page of the video library.
func (c *Client) FetchLibrary(ctx context.Context, limit, offset int) (*LibraryPage, error) {
	values := url.Values{}
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		values.Set("offset", strconv.Itoa(offset))
	}
	var page LibraryPage
	if err := c.do(ctx, http.MethodGet, "/api/videos", values, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// FetchVideo retrieves a single video by id.
func (c *Client) FetchVideo(ctx context.Context, id int64) (*Video, error) {
	var video Video
	path := fmt.Sprintf("/api/videos/%d", id)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &video); err != nil {
		return nil, err
	}
	return &video, nil
}

// FetchQueueStatus retrieves the download/transcode queue snapshot.
func (c *Client) FetchQueueStatus(ctx context.Context) (*QueueStatus, error) {
	var status QueueStatus
	if err := c.do(ctx, http.MethodGet, "/api/queue/status", nil, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// FetchStats retrieves aggregate library statistics.
func (c *Client) FetchStats(ctx context.Context) (*LibraryStats, error) {
	var stats LibraryStats
	if err := c.do(ctx, http.MethodGet, "/api/stats", nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// CreateVideo adds a video to the library. Deduplicated by method+path.
func (c *Client) CreateVideo(ctx context.Context, req CreateVideoRequest) (*Video, error) {
	var video Video
	if err := c.doWrite(ctx, http.MethodPost, "/api/videos", nil, req, &video); err != nil {
		return nil, err
	}
	return &video, nil
}

// UpdateVideo applies a partial update to a video.
func (c *Client) UpdateVideo(ctx context.Context, id int64, req UpdateVideoRequest) (*Video, error) {
	var video Video
	path := fmt.Sprintf("/api/videos/%d", id)
	if err := c.doWrite(ctx, http.MethodPut, path, nil, req, &video); err != nil {
		return nil, err
	}
	return &video, nil
}

// DeleteVideo removes a video. purgeFiles additionally deletes media from
// disk; it travels as a query flag but modifies the same logical write, so
// the dedup key stays on the path alone.
func (c *Client) DeleteVideo(ctx context.Context, id int64, purgeFiles bool) error {
	values := url.Values{}
	if purgeFiles {
		values.Set("purge", "1")
	}
	path := fmt.Sprintf("/api/videos/%d", id)
	return c.doWrite(ctx, http.MethodDelete, path, values, nil, nil)
}

// RateVideo records a rating between 1 and 5.
func (c *Client) RateVideo(ctx context.Context, id int64, rating int) error {
	path := fmt.Sprintf("/api/videos/%d/rating", id)
	body := struct {
		Rating int `json:"rating"`
	}{Rating: rating}
	return c.doWrite(ctx, http.MethodPost, path, nil, body, nil)
}

// SaveProgress reports the current playback position. Rate limited: scrub
// bars emit these in bursts.
func (c *Client) SaveProgress(ctx context.Context, id int64, positionSeconds float64) error {
	if err := c.telemetry.Wait(ctx); err != nil {
		return apperrFromContext(err)
	}
	path := fmt.Sprintf("/api/videos/%d/progress", id)
	body := struct {
		Position float64 `json:"position"`
	}{Position: positionSeconds}
	return c.doWrite(ctx, http.MethodPost, path, nil, body, nil)
}

// IncrementView bumps the view counter once playback starts. Rate limited
// alongside progress reports.
func (c *Client) IncrementView(ctx context.Context, id int64) error {
	if err := c.telemetry.Wait(ctx); err != nil {
		return apperrFromContext(err)
	}
	path := fmt.Sprintf("/api/videos/%d/view", id)
	return c.doWrite(ctx, http.MethodPost, path, nil, nil, nil)
}
