package api

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	mw "github.com/meetup-planner/app/internal/api/middleware"
	"github.com/meetup-planner/app/internal/api/views"
	"github.com/meetup-planner/app/internal/repository"
	"github.com/meetup-planner/app/internal/services"
	"github.com/meetup-planner/app/internal/session"
	"github.com/meetup-planner/app/internal/testutil"
	"github.com/meetup-planner/app/pkg/metrics"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	db := testutil.NewDB(t)
	v, err := views.New()
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	notifications := services.NewNotificationService(db, m)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	srv := httptest.NewServer(NewRouter(Dependencies{
		Views:         v,
		Sessions:      session.NewManager(session.NewMemoryStore(), session.Options{Secret: []byte("test-secret"), TTL: time.Hour}),
		Auth:          services.NewAuthService(repository.NewUserRepository(db), bcrypt.MinCost),
		Proposals:     services.NewProposalService(db, services.InlineNotifier(notifications), m),
		Meetups:       services.NewMeetupService(db, m),
		Notifications: notifications,
		Metrics:       m,
		Gatherer:      reg,
		DB:            sqlDB,
		LoginLimiter:  mw.NewLimiter(100, 100),
	}))
	t.Cleanup(srv.Close)
	return srv
}

// browser keeps cookies and stops at every redirect.
type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newBrowser(t *testing.T, srv *httptest.Server) *browser {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{t: t, base: srv.URL, client: &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}}
}

func (b *browser) get(path string) (int, string) {
	b.t.Helper()
	resp, err := b.client.Get(b.base + path)
	require.NoError(b.t, err)
	return read(b.t, resp)
}

// post submits a form and returns the status and redirect target.
func (b *browser) post(path string, form url.Values) (int, string) {
	b.t.Helper()
	resp, err := b.client.PostForm(b.base+path, form)
	require.NoError(b.t, err)
	_, _ = read(b.t, resp)
	return resp.StatusCode, resp.Header.Get("Location")
}

func (b *browser) postBody(path string, form url.Values) (int, string) {
	b.t.Helper()
	resp, err := b.client.PostForm(b.base+path, form)
	require.NoError(b.t, err)
	return read(b.t, resp)
}

func read(t *testing.T, resp *http.Response) (int, string) {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func (b *browser) signUp(email, name string) {
	b.t.Helper()
	status, loc := b.post("/register", url.Values{"email": {email}, "password": {"secret-password"}, "name": {name}})
	require.Equal(b.t, http.StatusSeeOther, status)
	require.Equal(b.t, "/login", loc)

	status, loc = b.post("/login", url.Values{"email": {email}, "password": {"secret-password"}})
	require.Equal(b.t, http.StatusSeeOther, status)
	require.Equal(b.t, "/", loc)
}

func TestMeetupLifecycleOverHTTP(t *testing.T) {
	srv := newServer(t)
	alice, bob := newBrowser(t, srv), newBrowser(t, srv)
	alice.signUp("alice@example.com", "Alice")
	bob.signUp("bob@example.com", "Bob")

	when := time.Now().Add(72 * time.Hour).Format(services.DateTimeLayout)

	status, body := alice.get("/proposal/new")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `name="description"`)

	status, loc := alice.post("/proposal/new", url.Values{"description": {"Board games night"}})
	require.Equal(t, http.StatusSeeOther, status)
	require.Equal(t, "/proposal/1", loc)

	_, body = alice.get("/proposal/1")
	assert.Contains(t, body, "Meetup proposal created!")
	assert.Contains(t, body, "Alice&#39;s Proposal #1")
	assert.Contains(t, body, "No suggestions yet.")

	status, loc = bob.post("/proposal/1/suggest", url.Values{"date": {when}, "location": {"Park"}})
	require.Equal(t, http.StatusSeeOther, status)
	require.Equal(t, "/proposal/1", loc)
	_, body = bob.get("/proposal/1")
	assert.Contains(t, body, "Your suggestion has been added!")
	assert.Contains(t, body, "Park")

	status, loc = alice.post("/suggestion/1/vote", nil)
	require.Equal(t, http.StatusSeeOther, status)
	require.Equal(t, "/proposal/1", loc)
	_, body = alice.get("/proposal/1")
	assert.Contains(t, body, "Your vote has been recorded!")
	assert.Contains(t, body, "Remove vote")

	alice.post("/suggestion/1/vote", nil)
	_, body = alice.get("/proposal/1")
	assert.Contains(t, body, "Your vote has been removed.")
	assert.NotContains(t, body, "Remove vote")

	status, loc = bob.post("/proposal/1/finalize", url.Values{"suggestion_id": {"1"}})
	require.Equal(t, http.StatusSeeOther, status)
	require.Equal(t, "/proposal/1", loc)
	_, body = bob.get("/proposal/1")
	assert.Contains(t, body, "Only the proposal creator can finalize the meetup.")

	status, loc = alice.post("/proposal/1/finalize", url.Values{"suggestion_id": {"1"}})
	require.Equal(t, http.StatusSeeOther, status)
	require.Equal(t, "/", loc)
	_, body = alice.get("/")
	assert.Contains(t, body, "Meetup has been finalized!")
	assert.Contains(t, body, `href="/meetup/1"`)
	assert.NotContains(t, body, "/proposal/1\">")

	alice.post("/proposal/1/finalize", url.Values{"suggestion_id": {"1"}})
	_, body = alice.get("/proposal/1")
	assert.Contains(t, body, "This proposal has already been finalized.")

	alice.post("/proposal/1/suggest", url.Values{"date": {when}, "location": {"Cafe"}})
	_, body = alice.get("/proposal/1")
	assert.Contains(t, body, "This proposal is no longer accepting suggestions.")
	assert.NotContains(t, body, "Cafe")

	status, loc = bob.post("/meetup/1/rsvp", url.Values{"status": {"yes"}, "next": {"/meetup/1"}})
	require.Equal(t, http.StatusSeeOther, status)
	require.Equal(t, "/meetup/1", loc)
	bob.post("/meetup/1/rsvp", url.Values{"status": {"maybe"}, "next": {"/meetup/1"}})
	_, body = bob.get("/meetup/1")
	assert.Contains(t, body, "RSVP updated successfully!")
	assert.Contains(t, body, `value="maybe" checked`)
	assert.Contains(t, body, "Yes: 0 · Maybe: 1 · No: 0")

	status, loc = bob.post("/meetup/1/rsvp", url.Values{"status": {"attending"}, "next": {"https://evil.example"}})
	require.Equal(t, http.StatusSeeOther, status)
	require.Equal(t, "/", loc)
	_, body = bob.get("/")
	assert.Contains(t, body, "Invalid RSVP status")
	assert.Contains(t, body, "Updates for you")

	_, body = alice.get("/metrics")
	assert.Contains(t, body, "meetup_planner_proposals_finalized_total 1")
	assert.Contains(t, body, `route="/proposal/{id}"`)
}

func TestAnonymousAccess(t *testing.T) {
	srv := newServer(t)
	anon := newBrowser(t, srv)

	status, _ := anon.get("/")
	assert.Equal(t, http.StatusOK, status)

	resp, err := anon.client.Get(srv.URL + "/proposal/new")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login?next=%2Fproposal%2Fnew", resp.Header.Get("Location"))

	status, loc := anon.post("/suggestion/1/vote", nil)
	assert.Equal(t, http.StatusSeeOther, status)
	assert.True(t, strings.HasPrefix(loc, "/login?next="), loc)

	status, body := anon.get("/proposal/99")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body, "proposal not found")

	status, _ = anon.get("/meetup/abc")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = anon.get("/no/such/page")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = anon.get("/healthz")
	assert.Equal(t, http.StatusOK, status)
	status, _ = anon.get("/readyz")
	assert.Equal(t, http.StatusOK, status)
}

func TestLoginAndRegistrationErrors(t *testing.T) {
	srv := newServer(t)
	b := newBrowser(t, srv)
	b.signUp("carol@example.com", "Carol")

	other := newBrowser(t, srv)
	status, body := other.postBody("/register", url.Values{"email": {"CAROL@example.com"}, "password": {"another-password"}, "name": {"Carol"}})
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, body, "Email already registered")

	status, body = other.postBody("/register", url.Values{"email": {"dave@example.com"}, "password": {"short"}, "name": {"Dave"}})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, "at least 8 characters")

	status, body = other.postBody("/register", url.Values{"email": {"erin@example.com"}, "password": {strings.Repeat("é", 40)}, "name": {"Erin"}})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, "The password must be at most 72 bytes.")
	assert.Contains(t, body, "erin@example.com")

	status, body = other.postBody("/login", url.Values{"email": {"carol@example.com"}, "password": {"wrong-password"}})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, body, "Invalid email or password")
	assert.Contains(t, body, "carol@example.com")

	status, loc := other.post("/login", url.Values{"email": {"carol@example.com"}, "password": {"secret-password"}, "next": {"/proposal/new"}})
	assert.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, "/proposal/new", loc)

	status, loc = other.post("/logout", nil)
	assert.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, "/", loc)
	status, _ = other.get("/proposal/new")
	assert.Equal(t, http.StatusSeeOther, status)
}
