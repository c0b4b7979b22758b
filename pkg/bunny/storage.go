package bunny

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrFileNotFound is returned when the storage zone has no object at the path.
var ErrFileNotFound = fmt.Errorf("bunny storage: file not found")

// StorageClient handles Bunny Storage (CDN) operations.
type StorageClient struct {
	zoneName   string
	password   string
	baseURL    string
	hostname   string
	httpClient *http.Client
}

// NewStorageClient creates a new Bunny Storage client.
func NewStorageClient(zoneName, password, baseURL, hostname string) *StorageClient {
	return &StorageClient{
		zoneName: zoneName,
		password: password,
		baseURL:  baseURL,
		hostname: hostname,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// UploadBuffer uploads a byte buffer to Bunny Storage.
func (c *StorageClient) UploadBuffer(ctx context.Context, buffer []byte, remotePath, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	url := fmt.Sprintf("%s/%s/%s", c.baseURL, c.zoneName, remotePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(buffer))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("AccessKey", c.password)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", "Courseware-Server/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("bunny storage error: status=%d, body=%s", resp.StatusCode, string(bodyBytes))
	}

	return nil
}

// DownloadFile fetches an object from Bunny Storage. Missing objects return
// ErrFileNotFound so callers can distinguish absence from transport failures.
func (c *StorageClient) DownloadFile(ctx context.Context, remotePath string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s/%s", c.baseURL, c.zoneName, remotePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("AccessKey", c.password)
	req.Header.Set("User-Agent", "Courseware-Server/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrFileNotFound
	}

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("bunny storage error: status=%d, body=%s", resp.StatusCode, string(bodyBytes))
	}

	return io.ReadAll(resp.Body)
}

// DeleteFile removes an object from Bunny Storage. Deleting a missing object
// is not an error.
func (c *StorageClient) DeleteFile(ctx context.Context, remotePath string) error {
	url := fmt.Sprintf("%s/%s/%s", c.baseURL, c.zoneName, remotePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("AccessKey", c.password)
	req.Header.Set("User-Agent", "Courseware-Server/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("bunny storage error: status=%d, body=%s", resp.StatusCode, string(bodyBytes))
	}

	return nil
}

// PublicURL returns the CDN URL for a stored object.
func (c *StorageClient) PublicURL(remotePath string) string {
	return fmt.Sprintf("https://%s/%s", c.hostname, remotePath)
}
