// httpclient/client.go
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	consoleerrors "github.com/tvmsuite/console/errors"
	logger "github.com/tvmsuite/console/logging"
)

// TokenSource supplies the current bearer token; an empty string
// means no session, and the request goes out unauthenticated.
type TokenSource interface {
	Token() string
}

// Client is the single request/response pipeline every facade goes
// through. It attaches the bearer token, stamps a request ID, applies
// the fixed timeout, and classifies failures into the console's error
// taxonomy. A 401 fires the unauthorized hook exactly once per
// session, no matter how many in-flight requests observe it; the
// guard re-arms through ResetUnauthorized when a new session is
// established.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	tokens         TokenSource
	onUnauthorized func()

	unauthMu    sync.Mutex
	unauthFired bool
}

func New(baseURL string, timeout time.Duration, tokens TokenSource, onUnauthorized func()) *Client {
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		httpClient:     &http.Client{Timeout: timeout},
		tokens:         tokens,
		onUnauthorized: onUnauthorized,
	}
}

// JSON performs a request with an optional JSON body and returns the
// raw response body. Envelope decoding happens at the facade
// boundary, not here.
func (c *Client) JSON(ctx context.Context, method, path string, query url.Values, body interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	resp, err := c.do(ctx, method, path, query, reader, "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &consoleerrors.NetworkError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.statusError(resp.StatusCode, raw)
	}
	return raw, nil
}

// Stream performs an authenticated GET and returns the raw payload
// plus the server-suggested filename, for the export endpoints that
// hand back a file rather than a JSON envelope.
func (c *Client) Stream(ctx context.Context, path string, query url.Values) ([]byte, string, error) {
	resp, err := c.do(ctx, http.MethodGet, path, query, nil, "")
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &consoleerrors.NetworkError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", c.statusError(resp.StatusCode, raw)
	}

	return raw, attachmentName(resp.Header.Get("Content-Disposition")), nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*http.Response, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		netErr := &consoleerrors.NetworkError{Err: err, Timeout: isTimeout(err)}
		logger.Warn("Request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Bool("timeout", netErr.Timeout),
			zap.Error(err))
		return nil, netErr
	}

	logger.Debug("Request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	if resp.StatusCode == http.StatusUnauthorized {
		c.unauthMu.Lock()
		fired := c.unauthFired
		c.unauthFired = true
		c.unauthMu.Unlock()
		if !fired {
			logger.Warn("Received 401, invalidating session", zap.String("path", path))
			if c.onUnauthorized != nil {
				c.onUnauthorized()
			}
		}
	}
	return resp, nil
}

// ResetUnauthorized re-arms the 401 hook so a later expiry of a new
// session is observed again.
func (c *Client) ResetUnauthorized() {
	c.unauthMu.Lock()
	c.unauthFired = false
	c.unauthMu.Unlock()
}

// statusError decodes the failure envelope into an APIError. A body
// that is not the expected envelope still yields an APIError with the
// bare status so callers always get the same type for HTTP failures.
func (c *Client) statusError(status int, raw []byte) error {
	var envelope struct {
		Message string                     `json:"message"`
		Error   string                     `json:"error"`
		Details []consoleerrors.FieldError `json:"details"`
	}
	_ = json.Unmarshal(raw, &envelope)

	message := envelope.Message
	if message == "" {
		message = envelope.Error
	}
	return &consoleerrors.APIError{Status: status, Message: message, Details: envelope.Details}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func attachmentName(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}
