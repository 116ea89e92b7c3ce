package transport

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

// Config holds the connection policy of the resty transport. Timeouts and
// retries live here rather than in the clients that use the transport.
type Config struct {
	Timeout          time.Duration
	RetryCount       int
	RetryWaitTime    time.Duration
	RetryMaxWaitTime time.Duration
	// Headers are added to every request
	Headers map[string]string
}

// DefaultConfig returns a 30 second timeout and no retries
func DefaultConfig() Config {
	return Config{
		Timeout: 30 * time.Second,
	}
}

type restyTransport struct {
	client *resty.Client
}

// NewRestyTransport creates a Transport backed by a resty client
func NewRestyTransport(cfg Config) Transport {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount)
	if cfg.RetryWaitTime > 0 {
		client.SetRetryWaitTime(cfg.RetryWaitTime)
	}
	if cfg.RetryMaxWaitTime > 0 {
		client.SetRetryMaxWaitTime(cfg.RetryMaxWaitTime)
	}
	if len(cfg.Headers) > 0 {
		client.SetHeaders(cfg.Headers)
	}
	return &restyTransport{client: client}
}

// NewRestyTransportWithClient wraps an existing resty client
func NewRestyTransportWithClient(client *resty.Client) Transport {
	return &restyTransport{client: client}
}

func (t *restyTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	r := t.client.R().
		SetContext(ctx).
		SetHeaders(req.Header)
	if req.Body != nil {
		r.SetBody(req.Body)
	}

	resp, err := r.Execute(req.Method, req.URL)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: resp.StatusCode(),
		Body:       resp.Body(),
	}, nil
}
