package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/paddock/internal/adapters/http/api"
)

// ErrStatus marks a non 2xx answer from the server.
var ErrStatus = errors.New("unexpected status")

// httpClient wraps http.Client with a base URL and JSON helpers. Every
// request names the same dashboard session, so filters set by one step are
// seen by the next.
type httpClient struct {
	base    string
	session string
	client  *http.Client
}

func newHTTPClient(base string, timeout time.Duration) *httpClient {
	return &httpClient{
		base:    strings.TrimRight(base, "/"),
		session: "check-" + uuid.NewString(),
		client:  &http.Client{Timeout: timeout},
	}
}

// getJSON performs a GET and decodes a 2xx body into out.
func (c *httpClient) getJSON(ctx context.Context, path string, out any) (int, error) {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// postJSON encodes in, performs a POST and decodes a 2xx body into out.
func (c *httpClient) postJSON(ctx context.Context, path string, in, out any) (int, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return 0, fmt.Errorf("marshal request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *httpClient) do(ctx context.Context, method, path string, body []byte, out any) (int, error) {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rdr)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(api.SessionHeader, c.session)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		preview := strings.TrimSpace(string(data))
		if len(preview) > maxErrorPreview {
			preview = preview[:maxErrorPreview]
		}
		return resp.StatusCode, fmt.Errorf("%w: %s %s returned %d: %s", ErrStatus, method, path, resp.StatusCode, preview)
	}
	if out == nil {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode %s: %w", path, err)
	}
	return resp.StatusCode, nil
}

// serverRelay sends chat messages through the server's relay endpoint so a
// local chat.Transcript can drive it.
type serverRelay struct {
	client *httpClient
}

func (r serverRelay) Relay(ctx context.Context, message string) (string, error) {
	var out struct {
		Reply string `json:"reply"`
	}
	if _, err := r.client.postJSON(ctx, "/api/chat", map[string]string{"message": message}, &out); err != nil {
		return "", err
	}
	return out.Reply, nil
}
