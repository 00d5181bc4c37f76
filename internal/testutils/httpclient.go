package testutils

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type Response struct {
	StatusCode int
	Header     http.Header
	Body       string
}

type ResponseOpt func(testing.TB, Response)

func BindJSON(v any) ResponseOpt {
	return func(tb testing.TB, resp Response) {
		tb.Helper()
		require.NoError(tb, json.Unmarshal([]byte(resp.Body), v), "response body: %s", resp.Body)
	}
}

func ExpectNoBody() ResponseOpt {
	return func(tb testing.TB, resp Response) {
		tb.Helper()
		require.Empty(tb, resp.Body)
	}
}

func ExpectJSON() ResponseOpt {
	return func(tb testing.TB, resp Response) {
		tb.Helper()
		require.Contains(tb, resp.Header.Get("Content-Type"), "application/json")
	}
}

// Get requests path from the test server without following redirects
func Get(tb testing.TB, ts *httptest.Server, path string, opts ...ResponseOpt) Response {
	tb.Helper()

	req, err := http.NewRequestWithContext(tb.Context(), http.MethodGet, ts.URL+path, nil)
	require.NoError(tb, err)

	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Do(req)
	require.NoError(tb, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(tb, err)

	result := Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       string(body),
	}
	for _, opt := range opts {
		opt(tb, result)
	}

	return result
}
