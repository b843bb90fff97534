package session_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"todoshell/internal/service"
	"todoshell/internal/session"
)

func testSession(email string) *service.Session {
	return &service.Session{
		AccessToken:  "access-" + email,
		RefreshToken: "refresh-" + email,
		Expiry:       time.Now().Add(time.Hour).Truncate(time.Second),
		User:         service.Principal{ID: "u-" + email, Email: email},
	}
}

type recorder struct {
	mu     sync.Mutex
	events []service.AuthEvent
	emails []string
}

func (r *recorder) handle(ev service.AuthEvent, sess *service.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	r.emails = append(r.emails, sess.Email())
}

func (r *recorder) snapshot() []service.AuthEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]service.AuthEvent(nil), r.events...)
}

func TestStore_RoundTrip(t *testing.T) {
	st := session.Store{Path: filepath.Join(t.TempDir(), "nested", "session.json")}

	got, err := st.Load()
	require.NoError(t, err)
	assert.Nil(t, got)

	want := testSession("a@example.com")
	require.NoError(t, st.Save(want))

	info, err := os.Stat(st.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got, err = st.Load()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.AccessToken, got.AccessToken)
	assert.Equal(t, want.RefreshToken, got.RefreshToken)
	assert.True(t, want.Expiry.Equal(got.Expiry))
	assert.Equal(t, "a@example.com", got.Email())

	require.NoError(t, st.Remove())
	require.NoError(t, st.Remove(), "removing twice is fine")
	got, err = st.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_CorruptFile(t *testing.T) {
	st := session.Store{Path: filepath.Join(t.TempDir(), "session.json")}
	require.NoError(t, os.WriteFile(st.Path, []byte("not json"), 0600))

	_, err := st.Load()
	assert.ErrorContains(t, err, "invalid session file")
}

func TestNotifier_ObserveEmitsOnlyOnIdentityChange(t *testing.T) {
	st := session.Store{Path: filepath.Join(t.TempDir(), "session.json")}
	n := session.NewNotifier(st, 0, zap.NewNop())
	rec := &recorder{}
	sub := n.Subscribe(rec.handle)
	defer sub.Unsubscribe()

	n.Observe(nil)
	n.Observe(testSession("a@example.com"))
	n.Observe(testSession("a@example.com"))
	n.Observe(nil)
	n.Observe(nil)

	assert.Equal(t, []service.AuthEvent{service.SignedIn, service.SignedOut}, rec.snapshot())
	assert.Equal(t, []string{"a@example.com", ""}, rec.emails)
}

func TestNotifier_UnsubscribeStopsDelivery(t *testing.T) {
	st := session.Store{Path: filepath.Join(t.TempDir(), "session.json")}
	n := session.NewNotifier(st, 0, nil)
	rec := &recorder{}
	sub := n.Subscribe(rec.handle)

	sub.Unsubscribe()
	sub.Unsubscribe()
	n.Observe(testSession("a@example.com"))

	assert.Empty(t, rec.snapshot())
}

func TestNotifier_DetectsOtherProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	n := session.NewNotifier(session.Store{Path: path}, 10*time.Millisecond, zap.NewNop())
	rec := &recorder{}
	sub := n.Subscribe(rec.handle)
	defer sub.Unsubscribe()

	other := session.Store{Path: path}
	require.NoError(t, other.Save(testSession("b@example.com")))
	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, other.Remove())
	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, []service.AuthEvent{service.SignedIn, service.SignedOut}, rec.snapshot())
}

func TestNotifier_BaselineFromStoredSession(t *testing.T) {
	st := session.Store{Path: filepath.Join(t.TempDir(), "session.json")}
	require.NoError(t, st.Save(testSession("a@example.com")))

	n := session.NewNotifier(st, 0, nil)
	rec := &recorder{}
	defer n.Subscribe(rec.handle).Unsubscribe()

	n.Observe(testSession("a@example.com"))
	assert.Empty(t, rec.snapshot())
}

func TestParseUnverified(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, session.Claims{
		Email: "a@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := tok.SignedString([]byte("whatever"))
	require.NoError(t, err)

	claims, err := session.ParseUnverified(signed)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, "user-1", claims.Subject)
	assert.True(t, exp.Equal(claims.ExpiresAt.Time))

	_, err = session.ParseUnverified("nope")
	assert.Error(t, err)
}
