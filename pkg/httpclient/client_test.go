package httpclient

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		options  []Option
		validate func(t *testing.T, client *Client)
	}{
		{
			name: "default_configuration",
			validate: func(t *testing.T, client *Client) {
				assert.Equal(t, 0, client.maxRetries)
				assert.Equal(t, 2*time.Second, client.baseDelay)
				assert.Equal(t, 60*time.Second, client.client.Timeout)
				assert.NotNil(t, client.strategyFunc)
				assert.NotNil(t, client.headerParser)
			},
		},
		{
			name:    "custom_max_retries",
			options: []Option{WithMaxRetries(3)},
			validate: func(t *testing.T, client *Client) {
				assert.Equal(t, 3, client.maxRetries)
			},
		},
		{
			name:    "custom_timeout",
			options: []Option{WithTimeout(5 * time.Second)},
			validate: func(t *testing.T, client *Client) {
				assert.Equal(t, 5*time.Second, client.client.Timeout)
			},
		},
		{
			name: "custom_http_client_then_timeout",
			options: []Option{
				WithHTTPClient(&http.Client{Timeout: 30 * time.Second}),
				WithTimeout(10 * time.Second),
			},
			validate: func(t *testing.T, client *Client) {
				assert.Equal(t, 10*time.Second, client.client.Timeout)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validate(t, New(tt.options...))
		})
	}
}

func TestDefaultRetryStrategy(t *testing.T) {
	tests := []struct {
		statusCode int
		expected   RetryStrategy
	}{
		{http.StatusTooManyRequests, SmartRetry},
		{http.StatusServiceUnavailable, SmartRetry},
		{http.StatusRequestTimeout, ConservativeRetry},
		{http.StatusInternalServerError, ConservativeRetry},
		{http.StatusBadGateway, ConservativeRetry},
		{http.StatusGatewayTimeout, ConservativeRetry},
		{http.StatusOK, NoRetry},
		{http.StatusNotFound, NoRetry},
		{http.StatusBadRequest, NoRetry},
		{http.StatusUnauthorized, NoRetry},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.statusCode), func(t *testing.T) {
			assert.Equal(t, tt.expected, DefaultRetryStrategy(tt.statusCode))
		})
	}
}

func TestClient_Do_NoRetryByDefault(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := New(WithHTTPClient(server.Client()))
	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestClient_Do_RetriesWithRetryAfterMs(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.Header().Set("retry-after-ms", "5")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(WithHTTPClient(server.Client()), WithMaxRetries(3))
	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestClient_Do_MaxRetriesExceeded(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.Header().Set("retry-after-ms", "1")
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(WithHTTPClient(server.Client()), WithMaxRetries(2))
	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestClient_Do_NetworkError(t *testing.T) {
	client := New(WithHTTPClient(&http.Client{Timeout: time.Millisecond}))
	req, err := http.NewRequest(http.MethodGet, "http://invalid-url-that-does-not-exist:9999", nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	assert.Error(t, err)
	assert.Nil(t, resp)
}

func TestParseAzureHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "3")
	assert.Equal(t, 3*time.Second, ParseAzureHeaders(h).RetryAfter)

	h.Set("retry-after-ms", "250")
	assert.Equal(t, 250*time.Millisecond, ParseAzureHeaders(h).RetryAfter)

	h = http.Header{}
	h.Set("x-ratelimit-remaining-requests", "7")
	info := ParseAzureHeaders(h)
	assert.Equal(t, 7, info.RequestsRemaining)
	assert.Zero(t, info.RetryAfter)

	assert.Equal(t, -1, ParseAzureHeaders(http.Header{}).RequestsRemaining)
}

func TestClient_Do_RetryLogReportsRemainingRequests(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch attempts.Add(1) {
		case 1:
			w.Header().Set("retry-after-ms", "1")
			w.Header().Set("x-ratelimit-remaining-requests", "0")
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			w.Header().Set("retry-after-ms", "1")
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer server.Close()

	client := New(WithHTTPClient(server.Client()), WithMaxRetries(2))
	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), "requests_remaining=0")
	assert.NotContains(t, string(lines[1]), "requests_remaining")
}
