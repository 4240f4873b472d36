package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"reflowctl/internal/models"

	"time"
)

// restTimeout bounds the liveness probe and every request round trip.
const restTimeout = 2 * time.Second

// restTransport talks JSON over HTTP to the station's WiFi interface.
type restTransport struct {
	base   string // http://<host>
	client *http.Client
}

func openREST(cfg models.ConnConfig) (*restTransport, error) {
	t := &restTransport{
		base:   "http://" + cfg.Host,
		client: &http.Client{Timeout: restTimeout},
	}

	// Liveness probe: the station answers GET /status when it is up.
	resp, err := t.client.Get(t.base + "/status")
	if err != nil {
		return nil, fmt.Errorf("%w: probe %s: %v", ErrDeviceUnavailable, t.base, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: probe %s: HTTP %d", ErrDeviceUnavailable, t.base, resp.StatusCode)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return t, nil
}

func (t *restTransport) Request(ctx context.Context, req Request) ([]byte, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, t.base+"/"+req.Endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrMalformed, err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, classifyHTTPError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: HTTP %d from /%s", ErrMalformed, resp.StatusCode, req.Endpoint)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnreachable, err)
	}
	return data, nil
}

func (t *restTransport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

// classifyHTTPError separates deadline expiry from connection failures.
func classifyHTTPError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}
