package sse

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatMultiline(t *testing.T) {
	got := Format(EventShiftOffered, "<div>\n<p>x</p>\n</div>")
	assert.Equal(t, "event: shift_offered\ndata: <div>\ndata: <p>x</p>\ndata: </div>\n\n", got)
}

func TestSendOnlyReachesOwner(t *testing.T) {
	b := NewBroker()
	mine, err := b.Subscribe(1)
	require.NoError(t, err)
	other, err := b.Subscribe(2)
	require.NoError(t, err)

	assert.Equal(t, 1, b.SendHTML(1, EventShiftOffered, "<p>hi</p>"))
	assert.Len(t, mine.Events, 1)
	assert.Len(t, other.Events, 0)

	b.Unsubscribe(mine, 1)
	b.Unsubscribe(mine, 1)
	assert.Equal(t, 1, b.Clients())
	assert.Equal(t, 0, b.SendHTML(1, EventShiftOffered, "<p>hi</p>"))
}

func TestPerUserLimit(t *testing.T) {
	b := NewBroker()
	for i := 0; i < maxClientsPerUser; i++ {
		_, err := b.Subscribe(7)
		require.NoError(t, err)
	}
	_, err := b.Subscribe(7)
	assert.ErrorIs(t, err, ErrTooManyTabs)
}

func TestHandlerRequiresUser(t *testing.T) {
	b := NewBroker()
	rr := httptest.NewRecorder()
	b.Handler(func(context.Context) int64 { return 0 }).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/events", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestHandlerStreamsEvents(t *testing.T) {
	b := NewBroker()
	srv := httptest.NewServer(b.Handler(func(context.Context) int64 { return 42 }))
	defer srv.Close()
	defer b.Shutdown()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": ok\n", line)

	require.Eventually(t, func() bool { return b.Clients() == 1 }, time.Second, 10*time.Millisecond)
	b.SendHTML(42, EventShiftOffered, "<p>new</p>")

	var got []string
	for len(got) < 2 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.TrimSpace(line) != "" {
			got = append(got, strings.TrimSpace(line))
		}
	}
	assert.Equal(t, []string{"event: shift_offered", "data: <p>new</p>"}, got)
}
