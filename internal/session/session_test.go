package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/meetup-planner/app/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if _, err := logger.Init("error", "json"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func cookieFrom(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie set", CookieName)
	return nil
}

func requestWith(c *http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if c != nil {
		r.AddCookie(c)
	}
	return r
}

func TestStartResolveEnd(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore(), Options{Secret: []byte("test-secret"), TTL: time.Hour})

	rr := httptest.NewRecorder()
	require.NoError(t, m.Start(ctx, rr, 42))
	c := cookieFrom(t, rr)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, 3600, c.MaxAge)

	uid, ok := m.Resolve(ctx, requestWith(c))
	require.True(t, ok)
	assert.EqualValues(t, 42, uid)

	rr = httptest.NewRecorder()
	m.End(ctx, rr, requestWith(c))
	assert.Equal(t, -1, cookieFrom(t, rr).MaxAge)

	_, ok = m.Resolve(ctx, requestWith(c))
	assert.False(t, ok, "revoked session must not resolve")
}

func TestResolveRejectsForgedAndMissing(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m := NewManager(store, Options{Secret: []byte("test-secret"), TTL: time.Hour})
	other := NewManager(store, Options{Secret: []byte("other-secret"), TTL: time.Hour})

	_, ok := m.Resolve(ctx, requestWith(nil))
	assert.False(t, ok)

	_, ok = m.Resolve(ctx, requestWith(&http.Cookie{Name: CookieName, Value: "garbage"}))
	assert.False(t, ok)

	rr := httptest.NewRecorder()
	require.NoError(t, other.Start(ctx, rr, 7))
	_, ok = m.Resolve(ctx, requestWith(cookieFrom(t, rr)))
	assert.False(t, ok, "token signed with another secret")
}

func TestResolveRejectsExpiredToken(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore(), Options{Secret: []byte("s"), TTL: time.Minute})
	m.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }

	rr := httptest.NewRecorder()
	require.NoError(t, m.Start(ctx, rr, 1))
	_, ok := m.Resolve(ctx, requestWith(cookieFrom(t, rr)))
	assert.False(t, ok)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore().(*memoryStore)
	now := time.Now()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Save(ctx, &Session{ID: "a", UserID: 1}, time.Minute))
	got, err := s.Lookup(ctx, "a")
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.UserID)

	now = now.Add(2 * time.Minute)
	_, err = s.Lookup(ctx, "a")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
