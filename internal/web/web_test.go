package web

import (
	"context"
	"html"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/PauloHFS/hcportal/internal/catalog"
	"github.com/PauloHFS/hcportal/internal/config"
	"github.com/PauloHFS/hcportal/internal/db"
	"github.com/PauloHFS/hcportal/internal/logging"
	"github.com/PauloHFS/hcportal/internal/mailer"
	"github.com/PauloHFS/hcportal/internal/middleware"
	"github.com/PauloHFS/hcportal/internal/routes"
	"github.com/PauloHFS/hcportal/internal/sse"
	"github.com/PauloHFS/hcportal/internal/storage"
	"github.com/PauloHFS/hcportal/internal/testutil"
	"github.com/PauloHFS/hcportal/internal/worker"
	"github.com/alexedwards/scs/v2"
	"github.com/stretchr/testify/require"
)

const testPassword = "correct-horse-9"

var csrfMeta = regexp.MustCompile(`<meta name="csrf-token" content="([^"]+)">`)

// testApp sobe o router completo, com todos os middlewares, atrás de um
// httptest.Server. O client guarda cookies e não segue redirects.
type testApp struct {
	t      *testing.T
	srv    *httptest.Server
	client *http.Client
	deps   HandlerDeps
	mail   *mailer.MockMailer
	token  string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	conn, _ := testutil.NewDB(t)
	cfg := &config.Config{
		Env:           "test",
		BaseURL:       "http://hcportal.test",
		EncryptionKey: strings.Repeat("ab", 32),
		Storage:       config.StorageConfig{Driver: "local", LocalDir: t.TempDir()},
	}

	store, err := storage.New(cfg.Storage)
	require.NoError(t, err)

	broker := sse.NewBroker()
	t.Cleanup(broker.Shutdown)

	mail := mailer.NewMock()
	proc := worker.New(cfg, conn, db.New(conn), logging.Get(),
		worker.WithMailer(mail),
		worker.WithNotifier(broker),
	)

	deps, err := NewDeps(cfg, conn, scs.New(), catalog.Default(), store, broker, proc)
	require.NoError(t, err)
	deps.RateLimiter = middleware.NewRateLimiter(1000, 1000)

	handler, err := NewRouter(deps, fstest.MapFS{"app.css": {Data: []byte("body{}")}})
	require.NoError(t, err)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testApp{
		t:   t,
		srv: srv,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		deps: deps,
		mail: mail,
	}
}

func (a *testApp) do(req *http.Request) *http.Response {
	a.t.Helper()
	resp, err := a.client.Do(req)
	require.NoError(a.t, err)
	a.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (a *testApp) get(path string, headers ...string) *http.Response {
	a.t.Helper()
	req, err := http.NewRequest(http.MethodGet, a.srv.URL+path, nil)
	require.NoError(a.t, err)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return a.do(req)
}

// csrf extrai o token que o layout publica. O cookie do nosurf não muda
// durante o teste, então o primeiro token serve para todos os POSTs.
func (a *testApp) csrf() string {
	a.t.Helper()
	if a.token != "" {
		return a.token
	}
	body := readBody(a.t, a.get(routes.Login))
	m := csrfMeta.FindStringSubmatch(body)
	require.Len(a.t, m, 2, "csrf meta tag not found")
	a.token = html.UnescapeString(m[1])
	return a.token
}

func (a *testApp) post(path string, form url.Values) *http.Response {
	a.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	form.Set("csrf_token", a.csrf())
	return a.postRaw(path, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
}

// htmx envia o token no cabeçalho, como o hx-headers do layout faz.
func (a *testApp) htmx(path string) *http.Response {
	a.t.Helper()
	token := a.csrf()
	req, err := http.NewRequest(http.MethodPost, a.srv.URL+path, nil)
	require.NoError(a.t, err)
	req.Header.Set("HX-Request", "true")
	req.Header.Set("X-CSRF-Token", token)
	req.Header.Set("Origin", a.srv.URL)
	return a.do(req)
}

func (a *testApp) postRaw(path, contentType string, body io.Reader) *http.Response {
	a.t.Helper()
	req, err := http.NewRequest(http.MethodPost, a.srv.URL+path, body)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Origin", a.srv.URL)
	return a.do(req)
}

func (a *testApp) user(email string) db.User {
	a.t.Helper()
	return testutil.CreateUser(a.t, a.deps.Queries, email, testPassword)
}

func (a *testApp) login(email string) {
	a.t.Helper()
	resp := a.post(routes.Login, url.Values{"email": {email}, "password": {testPassword}})
	require.Equal(a.t, http.StatusSeeOther, resp.StatusCode, readBody(a.t, resp))
}

func (a *testApp) reload(id int64) db.User {
	a.t.Helper()
	u, err := a.deps.Queries.GetUserByID(context.Background(), id)
	require.NoError(a.t, err)
	return u
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}
