package service

import (
	"context"
	"fmt"
	"time"

	"closer_club_backend/internal/config"

	"github.com/go-resty/resty/v2"
)

// CDNVideo is the CDN-side record of a hosted video.
type CDNVideo struct {
	GUID          string  `json:"guid"`
	Title         string  `json:"title"`
	Length        float64 `json:"length"`
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	Status        int     `json:"status"`
	StorageSize   int64   `json:"storageSize"`
	ThumbnailFile string  `json:"thumbnailFileName"`
}

// CDNClient talks to the video CDN's management API. Uploads themselves go
// through the upload package against the endpoint this client derives.
type CDNClient struct {
	http *resty.Client
	cfg  *config.VideoConfig
}

func NewCDNClient(cfg *config.VideoConfig) *CDNClient {
	client := resty.New().
		SetBaseURL(cfg.APIBaseURL).
		SetHeader("AccessKey", cfg.AccessKey).
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second)
	return &CDNClient{http: client, cfg: cfg}
}

// CreateVideo registers a video object and returns its GUID, which is the
// upload target identifier.
func (c *CDNClient) CreateVideo(ctx context.Context, title string) (*CDNVideo, error) {
	var video CDNVideo
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"title": title}).
		SetResult(&video).
		Post(fmt.Sprintf("/library/%s/videos", c.cfg.LibraryID))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("cdn create video: status %d", resp.StatusCode())
	}
	return &video, nil
}

func (c *CDNClient) GetVideo(ctx context.Context, guid string) (*CDNVideo, error) {
	var video CDNVideo
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&video).
		Get(fmt.Sprintf("/library/%s/videos/%s", c.cfg.LibraryID, guid))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("cdn get video %s: status %d", guid, resp.StatusCode())
	}
	return &video, nil
}

func (c *CDNClient) DeleteVideo(ctx context.Context, guid string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Delete(fmt.Sprintf("/library/%s/videos/%s", c.cfg.LibraryID, guid))
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("cdn delete video %s: status %d", guid, resp.StatusCode())
	}
	return nil
}

// UploadEndpoint is the partial-content target for the chunked and streaming
// uploaders.
func (c *CDNClient) UploadEndpoint(guid string) string {
	return fmt.Sprintf("%s/library/%s/videos/%s", c.cfg.APIBaseURL, c.cfg.LibraryID, guid)
}

// PlaybackURL is the pull-zone HLS playlist for a hosted video.
func (c *CDNClient) PlaybackURL(guid string) string {
	return fmt.Sprintf("https://%s/%s/playlist.m3u8", c.cfg.PullZone, guid)
}

func (c *CDNClient) ThumbnailURL(guid string) string {
	return fmt.Sprintf("https://%s/%s/thumbnail.jpg", c.cfg.PullZone, guid)
}
