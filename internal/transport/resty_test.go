package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestyTransport_Do(t *testing.T) {
	tests := []struct {
		name     string
		request  func(url string) *Request
		handler  http.HandlerFunc
		validate func(t *testing.T, resp *Response, err error)
	}{
		{
			name: "forwards method, headers and body",
			request: func(url string) *Request {
				return &Request{
					Method: http.MethodPut,
					URL:    url + "/deployments/dep1/transactions/tx1",
					Header: map[string]string{
						"Content-Type":  "application/json",
						"project-token": "tok1",
					},
					Body: []byte(`{"txHash":"0xabc"}`),
				}
			},
			handler: func(w http.ResponseWriter, r *http.Request) {
				body, _ := io.ReadAll(r.Body)
				if r.Method != http.MethodPut ||
					r.URL.Path != "/deployments/dep1/transactions/tx1" ||
					r.Header.Get("project-token") != "tok1" ||
					r.Header.Get("Content-Type") != "application/json" ||
					string(body) != `{"txHash":"0xabc"}` {
					w.WriteHeader(http.StatusTeapot)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			},
			validate: func(t *testing.T, resp *Response, err error) {
				require.NoError(t, err)
				assert.Equal(t, http.StatusNoContent, resp.StatusCode)
				assert.True(t, resp.IsSuccess())
			},
		},
		{
			name: "non-2xx is a response, not an error",
			request: func(url string) *Request {
				return &Request{Method: http.MethodPost, URL: url + "/build-configs/proj1/deployments"}
			},
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte("bad environment"))
			},
			validate: func(t *testing.T, resp *Response, err error) {
				require.NoError(t, err)
				assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
				assert.False(t, resp.IsSuccess())
				assert.Equal(t, "bad environment", resp.Text())
			},
		},
		{
			name: "returns the body on success",
			request: func(url string) *Request {
				return &Request{Method: http.MethodPost, URL: url + "/deployments/dep1/transactions", Body: []byte(`{}`)}
			},
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"id":"tx1"}`))
			},
			validate: func(t *testing.T, resp *Response, err error) {
				require.NoError(t, err)
				assert.Equal(t, http.StatusOK, resp.StatusCode)
				assert.JSONEq(t, `{"id":"tx1"}`, resp.Text())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			transport := NewRestyTransport(DefaultConfig())
			resp, err := transport.Do(context.Background(), tt.request(server.URL))
			tt.validate(t, resp, err)
		})
	}
}

func TestRestyTransport_ConfigHeaders(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.Headers = map[string]string{"User-Agent": "deployment-tracker"}
	_, err := NewRestyTransport(cfg).Do(context.Background(), &Request{Method: http.MethodGet, URL: server.URL})
	require.NoError(t, err)
	assert.Equal(t, "deployment-tracker", got)
}

func TestRestyTransport_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	resp, err := NewRestyTransport(DefaultConfig()).Do(context.Background(), &Request{Method: http.MethodGet, URL: url})
	assert.Error(t, err)
	assert.Nil(t, resp)
}

func TestRestyTransport_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewRestyTransport(DefaultConfig()).Do(ctx, &Request{Method: http.MethodGet, URL: server.URL})
	assert.Error(t, err)
}

func TestTransportFunc(t *testing.T) {
	var transport Transport = TransportFunc(func(ctx context.Context, req *Request) (*Response, error) {
		return &Response{StatusCode: http.StatusCreated, Body: []byte(req.URL)}, nil
	})

	resp, err := transport.Do(context.Background(), &Request{URL: "http://example.com"})
	require.NoError(t, err)
	assert.True(t, resp.IsSuccess())
	assert.Equal(t, "http://example.com", resp.Text())
}
