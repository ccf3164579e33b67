// Package videoinfo looks up display metadata for a YouTube video through
// the public oEmbed endpoint. No API key is needed.
package videoinfo

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"video-factcheck-go/internal/apperr"
	"video-factcheck-go/internal/ports"
	"video-factcheck-go/internal/types"
	"video-factcheck-go/internal/videoid"
)

const DefaultEndpoint = "https://www.youtube.com/oembed"

const (
	defaultTitle       = "Unknown Title"
	defaultDescription = "No description available"
)

type Client struct {
	httpClient *http.Client
	endpoint   string
	log        *logrus.Entry
}

var _ ports.MetadataSource = (*Client)(nil)

func New(endpoint string, timeout time.Duration, log *logrus.Entry) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		log:        log,
	}
}

type oembed struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// Fetch returns the title, channel name and thumbnail of the video.
// The channel name is reported as the description.
func (c *Client) Fetch(ctx context.Context, videoURL string) (types.VideoInfo, error) {
	id, err := videoid.Extract(videoURL)
	if err != nil {
		return types.VideoInfo{}, err
	}

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return types.VideoInfo{}, apperr.E(apperr.Internal, "videoinfo.fetch", err)
	}
	q := u.Query()
	q.Set("url", videoid.WatchURL(id))
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return types.VideoInfo{}, apperr.E(apperr.Internal, "videoinfo.fetch", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return types.VideoInfo{}, apperr.E(apperr.MetadataUnavailable, "videoinfo.fetch", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		c.log.WithFields(logrus.Fields{
			"video_id":    id,
			"http_status": resp.StatusCode,
		}).Warn("oEmbed lookup failed")
		return types.VideoInfo{}, apperr.Errorf(apperr.MetadataUnavailable, "videoinfo.fetch", "failed to fetch video info: status=%d", resp.StatusCode)
	}

	var data oembed
	if err := json.Unmarshal(body, &data); err != nil {
		return types.VideoInfo{}, apperr.Errorf(apperr.MetadataUnavailable, "videoinfo.fetch", "decode oEmbed reply: %v", err)
	}

	info := types.VideoInfo{
		Title:       data.Title,
		Description: data.AuthorName,
		Thumbnail:   data.ThumbnailURL,
	}
	if info.Title == "" {
		info.Title = defaultTitle
	}
	if info.Description == "" {
		info.Description = defaultDescription
	}
	if info.Thumbnail == "" {
		info.Thumbnail = "https://img.youtube.com/vi/" + id + "/maxresdefault.jpg"
	}
	return info, nil
}
