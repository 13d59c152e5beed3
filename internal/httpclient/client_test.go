package httpclient

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithAuthSetsHeaderWithoutMutatingRequest(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(Config{Name: "test", Timeout: time.Second}, WithAuth(func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer k")
	}))

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := c.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "Bearer k", got)
	assert.Empty(t, req.Header.Get("Authorization"))
	assert.Equal(t, "test", c.Name())
}

func TestTransportPassesThroughResponsesAndErrors(t *testing.T) {
	boom := errors.New("connection refused")
	c := New(Config{Name: "fake", Transport: RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		if r.URL.Path == "/down" {
			return nil, boom
		}
		return &http.Response{
			StatusCode: http.StatusTeapot,
			Body:       io.NopCloser(strings.NewReader("short and stout")),
			Request:    r,
		}, nil
	})})

	resp, err := c.Get("http://provider.test/up")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "short and stout", string(body))

	_, err = c.Get("http://provider.test/down")
	assert.ErrorIs(t, err, boom)
}
