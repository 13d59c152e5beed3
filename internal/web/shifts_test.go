package web

import (
	"bufio"
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/PauloHFS/hcportal/internal/db"
	"github.com/PauloHFS/hcportal/internal/routes"
	"github.com/PauloHFS/hcportal/internal/services"
	"github.com/PauloHFS/hcportal/internal/sse"
	"github.com/PauloHFS/hcportal/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMyShiftsTabsAndPaging(t *testing.T) {
	app := newTestApp(t)
	user := app.user("ana@example.com")
	app.login("ana@example.com")

	start := time.Now().Add(72 * time.Hour).Truncate(time.Hour)
	for i := 0; i < 7; i++ {
		testutil.CreateShift(t, app.deps.Queries, user.ID, "up-"+string(rune('a'+i)), start.Add(time.Duration(i)*24*time.Hour), 8*time.Hour)
	}
	testutil.CreateShift(t, app.deps.Queries, user.ID, "old", time.Now().Add(-72*time.Hour), 8*time.Hour)

	body := readBody(t, app.get(routes.MyShifts))
	assert.Equal(t, services.ShiftsPerPage, strings.Count(body, `<tr id="shift-`))
	assert.Contains(t, body, "Farmácia up-a")
	assert.NotContains(t, body, "Farmácia old")

	body = readBody(t, app.get(routes.MyShifts+"?tab=upcoming&page=2"))
	assert.Equal(t, 2, strings.Count(body, `<tr id="shift-`))

	body = readBody(t, app.get(routes.MyShifts+"?tab=past"))
	assert.Equal(t, 1, strings.Count(body, `<tr id="shift-`))
	assert.Contains(t, body, "Farmácia old")

	// aba desconhecida cai em upcoming
	body = readBody(t, app.get(routes.MyShifts+"?tab=bogus"))
	assert.Contains(t, body, "Farmácia up-a")
}

func TestShiftTransitionsOverHTTP(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	user := app.user("ana@example.com")
	other := testutil.CreateUser(t, app.deps.Queries, "bea@example.com", testPassword)
	app.login("ana@example.com")

	later := testutil.CreateShift(t, app.deps.Queries, user.ID, "later", time.Now().Add(72*time.Hour), 8*time.Hour)
	soon := testutil.CreateShift(t, app.deps.Queries, user.ID, "soon", time.Now().Add(2*time.Hour), 8*time.Hour)
	declined := testutil.CreateShift(t, app.deps.Queries, user.ID, "declined", time.Now().Add(96*time.Hour), 8*time.Hour)
	foreign := testutil.CreateShift(t, app.deps.Queries, other.ID, "foreign", time.Now().Add(72*time.Hour), 8*time.Hour)

	t.Run("htmx accept returns the row", func(t *testing.T) {
		resp := app.htmx(routes.ShiftAction(later.ID, services.ActionAccept))
		body := readBody(t, resp)
		require.Equal(t, http.StatusOK, resp.StatusCode, body)
		assert.True(t, strings.HasPrefix(body, `<tr id="shift-`), body)
		assert.Contains(t, body, `class="status-accepted"`)
		assert.NotContains(t, body, "<!doctype html>")
	})

	t.Run("accepting twice conflicts", func(t *testing.T) {
		resp := app.htmx(routes.ShiftAction(later.ID, services.ActionAccept))
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), services.ErrInvalidTransition.Error())
	})

	t.Run("cancel inside 24h conflicts", func(t *testing.T) {
		resp := app.htmx(routes.ShiftAction(soon.ID, services.ActionAccept))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = app.htmx(routes.ShiftAction(soon.ID, services.ActionCancel))
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), "24 hours")
	})

	t.Run("cancel outside 24h", func(t *testing.T) {
		resp := app.htmx(routes.ShiftAction(later.ID, services.ActionCancel))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), `class="status-cancelled"`)
	})

	t.Run("full page decline redirects back", func(t *testing.T) {
		resp := app.post(routes.ShiftAction(declined.ID, services.ActionDecline), nil)
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, routes.MyShifts+"?tab=upcoming", resp.Header.Get("Location"))

		sh, err := app.deps.Queries.GetShift(ctx, declined.ID)
		require.NoError(t, err)
		assert.Equal(t, db.ShiftDeclined, sh.Status)
	})

	t.Run("foreign and unknown shifts are not found", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, app.htmx(routes.ShiftAction(foreign.ID, services.ActionAccept)).StatusCode)
		assert.Equal(t, http.StatusNotFound, app.htmx(routes.ShiftAction(999999, services.ActionAccept)).StatusCode)
		assert.Equal(t, http.StatusNotFound, app.htmx(routes.MyShifts+"/abc/accept").StatusCode)

		sh, err := app.deps.Queries.GetShift(ctx, foreign.ID)
		require.NoError(t, err)
		assert.Equal(t, db.ShiftOffered, sh.Status)
	})

	t.Run("unknown action conflicts", func(t *testing.T) {
		extra := testutil.CreateShift(t, app.deps.Queries, user.ID, "extra", time.Now().Add(72*time.Hour), 8*time.Hour)
		assert.Equal(t, http.StatusConflict, app.htmx(routes.ShiftAction(extra.ID, "steal")).StatusCode)
	})
}

func TestAcceptWithNotificationsEnqueuesConfirmation(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	user := app.user("ana@example.com")
	app.login("ana@example.com")

	sh := testutil.CreateShift(t, app.deps.Queries, user.ID, "mail", time.Now().Add(72*time.Hour), 8*time.Hour)

	before, err := app.deps.Queries.CountJobsByStatus(ctx, "pending")
	require.NoError(t, err)

	resp := app.htmx(routes.ShiftAction(sh.ID, services.ActionAccept))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	after, err := app.deps.Queries.CountJobsByStatus(ctx, "pending")
	require.NoError(t, err)
	require.True(t, app.reload(user.ID).EmailNotifications)
	assert.Equal(t, before+1, after)
}

func TestEventsStreamDeliversShiftOffers(t *testing.T) {
	app := newTestApp(t)
	user := app.user("ana@example.com")
	app.login("ana@example.com")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, app.srv.URL+routes.Events, nil)
	require.NoError(t, err)
	resp, err := app.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.False(t, resp.Uncompressed, "event stream must not be gzipped")

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": ok\n", line)

	require.Eventually(t, func() bool {
		return app.deps.Broker.SendHTML(user.ID, sse.EventShiftOffered, "<div>new</div>") > 0
	}, 2*time.Second, 20*time.Millisecond)

	var got []string
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if line == "\n" && len(got) > 0 {
			break
		}
		if line != "\n" {
			got = append(got, strings.TrimSpace(line))
		}
	}
	assert.Contains(t, got, "event: "+sse.EventShiftOffered)
	assert.Contains(t, got, "data: <div>new</div>")
}

func TestEventsRequireLogin(t *testing.T) {
	app := newTestApp(t)

	resp := app.get(routes.Events)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}
