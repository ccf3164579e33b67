// Package transcription fetches timed captions for a YouTube video.
package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"video-factcheck-go/internal/apperr"
	"video-factcheck-go/internal/ports"
	"video-factcheck-go/internal/types"
)

const (
	DefaultBaseURL = "https://www.youtube.com"

	// innertube client used for the player request; it returns caption
	// track URLs without a signed session.
	clientName    = "ANDROID"
	clientVersion = "20.10.38"
)

type Options struct {
	BaseURL string
	Timeout time.Duration
	// Mock returns a fixed transcript instead of calling out.
	Mock bool
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	mock       bool
	log        *logrus.Entry
}

var _ ports.TranscriptSource = (*Client)(nil)

func New(opts Options, log *logrus.Entry) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 12 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		mock:       opts.Mock,
		log:        log,
	}
}

type playerRequest struct {
	Context struct {
		Client struct {
			ClientName    string `json:"clientName"`
			ClientVersion string `json:"clientVersion"`
		} `json:"client"`
	} `json:"context"`
	VideoID string `json:"videoId"`
}

type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	Captions struct {
		Renderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

func (t captionTrack) generated() bool { return t.Kind == "asr" }

// Fetch returns the video's transcript, preferring the auto-generated
// caption track and falling back to the first manual one.
func (c *Client) Fetch(ctx context.Context, videoID string) ([]types.Segment, error) {
	if c.mock {
		c.log.WithField("video_id", videoID).Info("mock transcript mode ON")
		return mockSegments(), nil
	}

	log := c.log.WithField("video_id", videoID)

	tracks, err := c.listTracks(ctx, videoID)
	if err != nil {
		return nil, err
	}
	track, ok := pickTrack(tracks)
	if !ok {
		return nil, apperr.Errorf(apperr.TranscriptUnavailable, "transcription.fetch", "no transcripts available for video %s", videoID)
	}
	log.WithFields(logrus.Fields{
		"language":  track.LanguageCode,
		"generated": track.generated(),
	}).Info("fetching caption track")

	segs, err := c.download(ctx, track.BaseURL)
	if err != nil {
		return nil, err
	}
	if len(segs) == 0 {
		return nil, apperr.Errorf(apperr.TranscriptUnavailable, "transcription.fetch", "caption track for %s is empty", videoID)
	}
	log.WithField("segments", len(segs)).Info("transcript fetched")
	return segs, nil
}

func pickTrack(tracks []captionTrack) (captionTrack, bool) {
	for _, t := range tracks {
		if t.generated() && t.BaseURL != "" {
			return t, true
		}
	}
	for _, t := range tracks {
		if !t.generated() && t.BaseURL != "" {
			return t, true
		}
	}
	return captionTrack{}, false
}

func (c *Client) listTracks(ctx context.Context, videoID string) ([]captionTrack, error) {
	var body playerRequest
	body.Context.Client.ClientName = clientName
	body.Context.Client.ClientVersion = clientVersion
	body.VideoID = videoID
	payload, _ := json.Marshal(body)

	endpoint := c.baseURL + "/youtubei/v1/player?prettyPrint=false"
	newReq := func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	var resp playerResponse
	if err := c.doJSON(ctx, newReq, &resp); err != nil {
		return nil, err
	}
	if st := resp.PlayabilityStatus.Status; st != "" && st != "OK" {
		return nil, apperr.Errorf(apperr.TranscriptUnavailable, "transcription.player",
			"video %s is not playable: %s %s", videoID, st, resp.PlayabilityStatus.Reason)
	}
	return resp.Captions.Renderer.CaptionTracks, nil
}

func (c *Client) download(ctx context.Context, trackURL string) ([]types.Segment, error) {
	trackURL = strings.Replace(trackURL, "&fmt=srv3", "", 1)
	if strings.HasPrefix(trackURL, "/") {
		trackURL = c.baseURL + trackURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, trackURL, nil)
	if err != nil {
		return nil, apperr.E(apperr.Internal, "transcription.download", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.E(apperr.Remote, "transcription.download", err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return nil, apperr.Errorf(apperr.Remote, "transcription.download", "download failed: status=%d body=%s", resp.StatusCode, truncate(string(b), 200))
	}
	segs, err := parseTimedText(b)
	if err != nil {
		return nil, apperr.E(apperr.MalformedResponse, "transcription.download", err)
	}
	return segs, nil
}

// doJSON retries 5xx and transport errors with exponential backoff. A 4xx
// reply is final.
func (c *Client) doJSON(ctx context.Context, newReq func() (*http.Request, error), target any) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 12 * time.Second

	var lastErr error
	op := func() error {
		req, err := newReq()
		if err != nil {
			lastErr = apperr.E(apperr.Internal, "transcription.request", err)
			return backoff.Permanent(lastErr)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = apperr.E(apperr.Remote, "transcription.request", err)
			return lastErr
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			lastErr = apperr.Errorf(apperr.Remote, "transcription.request", "server error: status=%d body=%s", resp.StatusCode, truncate(string(body), 200))
			return lastErr
		}
		if resp.StatusCode >= 400 {
			lastErr = apperr.Errorf(apperr.TranscriptUnavailable, "transcription.request", "status=%d body=%s", resp.StatusCode, truncate(string(body), 200))
			return backoff.Permanent(lastErr)
		}
		if len(body) == 0 {
			lastErr = apperr.Errorf(apperr.MalformedResponse, "transcription.request", "empty body")
			return lastErr
		}
		if err := json.Unmarshal(body, target); err != nil {
			lastErr = apperr.Errorf(apperr.MalformedResponse, "transcription.request", "json decode error: %v", err)
			return backoff.Permanent(lastErr)
		}
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		if lastErr == nil {
			lastErr = apperr.E(apperr.Remote, "transcription.request", err)
		}
		return lastErr
	}
	return nil
}

func mockSegments() []types.Segment {
	return []types.Segment{
		{Text: "MOCK TRANSCRIPT: The sky is blue", Start: 0.0, Duration: 2.5},
		{Text: "Water boils at 50C", Start: 2.5, Duration: 3.0},
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...(%d bytes)", s[:n], len(s))
}
