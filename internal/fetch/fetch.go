// Package fetch is the small network client behind URL pastes: HEAD probes,
// body fetches with short timeouts, and HTML-to-text conversion.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds connect and read time per request so an unreachable
// host cannot stall the paste pipeline.
const DefaultTimeout = 1 * time.Second

// maxBodyBytes caps fetched bodies; pasted URLs should not pull gigabytes
// into the workspace.
const maxBodyBytes = 8 << 20

// Client issues the HEAD/GET requests the clipboard classifier needs.
type Client struct {
	http *http.Client
	log  *zap.Logger
}

// NewClient creates a Client with the given per-request timeout; zero means
// DefaultTimeout.
func NewClient(timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	dialer := &net.Dialer{Timeout: timeout}
	return &Client{
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext:           dialer.DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
			},
		},
		log: log,
	}
}

// Head probes a URL and returns the response content type.
func (c *Client) Head(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("HEAD %s: status %d", url, resp.StatusCode)
	}
	return resp.Header.Get("Content-Type"), nil
}

// Get fetches a URL body and returns it with the response content type.
func (c *Client) Get(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, "", fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, "", err
	}
	return body, resp.Header.Get("Content-Type"), nil
}
