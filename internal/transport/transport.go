package transport

import (
	"context"
	"net/http"
)

// Request is a single outbound HTTP request
type Request struct {
	Method string
	URL    string
	Header map[string]string
	Body   []byte
}

// Response is what came back from the remote end. A non-2xx status is still a
// Response, not an error.
type Response struct {
	StatusCode int
	Body       []byte
}

// IsSuccess reports whether the status code is in the 2xx range
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}

// Text returns the body as a string
func (r *Response) Text() string {
	return string(r.Body)
}

// Transport performs a request and returns the status and body. Network
// failures are returned as errors.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a function to the Transport interface
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

func (f TransportFunc) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}
