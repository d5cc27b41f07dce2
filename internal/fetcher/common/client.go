// SPDX-License-Identifier: AGPL-3.0-only
package common

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fluffyriot/socialpulse/internal/helpers"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxErrorBody = 2048

type Client struct {
	HTTPClient *http.Client
}

// NewClient returns a client whose every request is bounded by timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		HTTPClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Timeout is the per-request bound configured on the underlying client.
func (c *Client) Timeout() time.Duration {
	return c.HTTPClient.Timeout
}

// GetJSON issues a GET and decodes a 2xx JSON body into out.
func (c *Client) GetJSON(ctx context.Context, platform helpers.Platform, op, rawURL string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	for k, v := range header {
		req.Header[k] = v
	}
	return c.Do(req, platform, op, out)
}

// PostForm issues a form-encoded POST and decodes a 2xx JSON body into out.
func (c *Client) PostForm(ctx context.Context, platform helpers.Platform, op, rawURL string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.Do(req, platform, op, out)
}

func (c *Client) Do(req *http.Request, platform helpers.Platform, op string, out any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return &UpstreamError{Platform: platform, Operation: op, Err: ScrubURLError(err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &UpstreamError{Platform: platform, Operation: op, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &UpstreamError{
			Platform:   platform,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Body:       truncateBody(body),
		}
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w", platform, op, err)
	}
	return nil
}

func BearerHeader(token string) http.Header {
	return http.Header{"Authorization": []string{"Bearer " + token}}
}

func truncateBody(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody])
	}
	return string(body)
}
