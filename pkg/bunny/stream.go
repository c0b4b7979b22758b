package bunny

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrVideoMissing is returned by GetVideo when the library has no video with
// the given id.
var ErrVideoMissing = errors.New("video not found in stream library")

// StreamClient handles Bunny Stream API operations.
type StreamClient struct {
	libraryID  string
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewStreamClient creates a new Bunny Stream client.
func NewStreamClient(libraryID, apiKey, baseURL string) *StreamClient {
	return &StreamClient{
		libraryID: libraryID,
		apiKey:    apiKey,
		baseURL:   baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreateVideoRequest represents the payload for creating a video.
type CreateVideoRequest struct {
	Title string `json:"title"`
}

// CreateVideoResponse represents the response from creating a video.
type CreateVideoResponse struct {
	GUID string `json:"guid"`
}

// CreateVideo registers a new video entry in Bunny Stream and returns its
// identifier. Used to back-populate an external id for videos that were
// authored without one.
func (c *StreamClient) CreateVideo(ctx context.Context, title string) (string, error) {
	body, err := json.Marshal(CreateVideoRequest{Title: title})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/library/%s/videos", c.baseURL, c.libraryID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("bunny API error: status=%d, body=%s", resp.StatusCode, string(bodyBytes))
	}

	var result CreateVideoResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	return result.GUID, nil
}

// VideoMetadata is the subset of the Bunny Stream video record served to
// players.
type VideoMetadata struct {
	GUID                 string  `json:"guid"`
	Title                string  `json:"title"`
	Length               int64   `json:"length"`
	Status               int     `json:"status"`
	Width                int     `json:"width"`
	Height               int     `json:"height"`
	FrameRate            float64 `json:"framerate"`
	ThumbnailFileName    string  `json:"thumbnailFileName"`
	AvailableResolutions string  `json:"availableResolutions"`
}

// GetVideo fetches the metadata record for a video in the stream library.
func (c *StreamClient) GetVideo(ctx context.Context, videoID string) (*VideoMetadata, error) {
	url := fmt.Sprintf("%s/library/%s/videos/%s", c.baseURL, c.libraryID, videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrVideoMissing
	}
	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("bunny API error: status=%d, body=%s", resp.StatusCode, string(bodyBytes))
	}

	var result VideoMetadata
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &result, nil
}

type setCaptionRequest struct {
	SrcLang      string `json:"srclang"`
	Label        string `json:"label"`
	CaptionsFile string `json:"captionsFile"` // base64 encoded
}

// UpsertCaption creates or replaces the caption track for a language on a
// video. The content is the caption file body.
func (c *StreamClient) UpsertCaption(ctx context.Context, videoID, language, label string, content []byte) error {
	payload := setCaptionRequest{
		SrcLang:      language,
		Label:        label,
		CaptionsFile: base64.StdEncoding.EncodeToString(content),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/library/%s/videos/%s/captions/%s", c.baseURL, c.libraryID, videoID, language)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("bunny API error: status=%d, body=%s", resp.StatusCode, string(bodyBytes))
	}

	return nil
}

// DeleteCaption removes the caption track for a language. Missing captions
// are not an error.
func (c *StreamClient) DeleteCaption(ctx context.Context, videoID, language string) error {
	url := fmt.Sprintf("%s/library/%s/videos/%s/captions/%s", c.baseURL, c.libraryID, videoID, language)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("bunny API error: status=%d, body=%s", resp.StatusCode, string(bodyBytes))
	}

	return nil
}

func (c *StreamClient) setHeaders(req *http.Request) {
	req.Header.Set("AccessKey", c.apiKey)
	req.Header.Set("User-Agent", "Courseware-Server/1.0")
}
