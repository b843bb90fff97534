package local

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"todoshell/internal/config"
	"todoshell/internal/service"
)

func openTest(t *testing.T, dir string, autoConfirm bool) *Backend {
	t.Helper()
	cfg := &config.Config{
		Dir:              dir,
		Backend:          config.BackendLocal,
		Table:            "tasks",
		LocalAutoConfirm: autoConfirm,
		Log:              zap.NewNop(),
	}
	b, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func signUpAndIn(t *testing.T, b *Backend, email string) {
	t.Helper()
	ctx := context.Background()
	_, err := b.SignUp(ctx, email, "secret1")
	require.NoError(t, err)
	p, err := b.SignIn(ctx, email, "secret1")
	require.NoError(t, err)
	require.NotNil(t, p)
}

func TestOpen_ReopenKeepsDataAndSecret(t *testing.T) {
	dir := t.TempDir()
	b := openTest(t, dir, true)
	signUpAndIn(t, b, "a@example.com")
	secret := b.secret
	require.NoError(t, b.Close())

	again := openTest(t, dir, true)
	assert.Equal(t, secret, again.secret)

	sess, err := again.CurrentSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sess, "session issued before reopen is still valid")
	assert.Equal(t, "a@example.com", sess.Email())
}

func TestSignUp(t *testing.T) {
	ctx := context.Background()
	b := openTest(t, t.TempDir(), true)

	p, err := b.SignUp(ctx, "a@example.com", "secret1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "a@example.com", p.Email)
	assert.NotEmpty(t, p.ID)
	assert.NotNil(t, p.ConfirmedAt)

	sess, err := b.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, sess, "sign-up never signs in")

	_, err = b.SignUp(ctx, "A@example.com", "secret1")
	assert.EqualError(t, err, "User already registered")

	_, err = b.SignUp(ctx, "b@example.com", "short")
	assert.EqualError(t, err, "Password should be at least 6 characters.")

	_, err = b.SignUp(ctx, "nope", "secret1")
	assert.ErrorContains(t, err, "invalid format")
}

func TestSignIn(t *testing.T) {
	ctx := context.Background()
	b := openTest(t, t.TempDir(), true)
	_, err := b.SignUp(ctx, "a@example.com", "secret1")
	require.NoError(t, err)

	_, err = b.SignIn(ctx, "a@example.com", "wrong-password")
	assert.EqualError(t, err, "Invalid login credentials")
	_, err = b.SignIn(ctx, "missing@example.com", "secret1")
	assert.EqualError(t, err, "Invalid login credentials")

	var events []service.AuthEvent
	sub := b.OnSessionChange(func(ev service.AuthEvent, _ *service.Session) { events = append(events, ev) })
	defer sub.Unsubscribe()

	p, err := b.SignIn(ctx, "a@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", p.Email)
	assert.Equal(t, []service.AuthEvent{service.SignedIn}, events)

	sess, err := b.CurrentSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, sess)
	claims, err := b.verify(sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, p.ID, claims.Subject)
}

func TestSignIn_Unconfirmed(t *testing.T) {
	ctx := context.Background()
	b := openTest(t, t.TempDir(), false)

	p, err := b.SignUp(ctx, "a@example.com", "secret1")
	require.NoError(t, err)
	assert.Nil(t, p.ConfirmedAt)

	_, err = b.SignIn(ctx, "a@example.com", "secret1")
	assert.EqualError(t, err, "Email not confirmed")
}

func TestCurrentSession_RefreshesExpiredToken(t *testing.T) {
	ctx := context.Background()
	b := openTest(t, t.TempDir(), true)
	signUpAndIn(t, b, "a@example.com")

	before, err := b.CurrentSession(ctx)
	require.NoError(t, err)

	b.now = func() time.Time { return time.Now().Add(2 * accessTokenTTL) }
	after, err := b.CurrentSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, after)
	assert.NotEqual(t, before.AccessToken, after.AccessToken)
	assert.NotEqual(t, before.RefreshToken, after.RefreshToken)
	assert.Equal(t, "a@example.com", after.Email())

	_, err = b.refresh(ctx, before.RefreshToken)
	assert.ErrorIs(t, err, errInvalidRefresh, "refresh tokens are single use")
}

func TestCurrentSession_RevokedRefreshSignsOut(t *testing.T) {
	ctx := context.Background()
	b := openTest(t, t.TempDir(), true)
	signUpAndIn(t, b, "a@example.com")
	_, err := b.db.ExecContext(ctx, `UPDATE refresh_tokens SET revoked = 1`)
	require.NoError(t, err)

	b.now = func() time.Time { return time.Now().Add(2 * accessTokenTTL) }
	sess, err := b.CurrentSession(ctx)
	assert.Nil(t, sess)
	assert.ErrorIs(t, err, service.ErrSessionExpired)

	stored, err := b.store.Load()
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestSignOut(t *testing.T) {
	ctx := context.Background()
	b := openTest(t, t.TempDir(), true)
	signUpAndIn(t, b, "a@example.com")
	sess, err := b.CurrentSession(ctx)
	require.NoError(t, err)

	require.NoError(t, b.SignOut(ctx))

	got, err := b.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = b.refresh(ctx, sess.RefreshToken)
	assert.ErrorIs(t, err, errInvalidRefresh)

	require.NoError(t, b.SignOut(ctx), "signing out twice is fine")
}

func TestSessionFileFollowsSignInAndOut(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := (&config.Config{Dir: dir}).SessionPath()
	b := openTest(t, dir, true)

	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))

	signUpAndIn(t, b, "a@example.com")
	_, err = os.Stat(path)
	require.NoError(t, err)

	require.NoError(t, b.SignOut(ctx))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestTasks_RequireSession(t *testing.T) {
	ctx := context.Background()
	b := openTest(t, t.TempDir(), true)

	_, err := b.List(ctx)
	assert.ErrorIs(t, err, service.ErrNotLoggedIn)
	_, err = b.Insert(ctx, service.NewTask{Title: "t", Description: "d", Owner: "a@example.com"})
	assert.ErrorIs(t, err, service.ErrNotLoggedIn)
	assert.Error(t, b.Delete(ctx, 1))
}

func TestTasks_CRUD(t *testing.T) {
	ctx := context.Background()
	b := openTest(t, t.TempDir(), true)
	signUpAndIn(t, b, "a@example.com")

	tasks, err := b.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	created, err := b.Insert(ctx, service.NewTask{Title: "Buy milk", Description: "2 litres", Owner: "a@example.com"})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "Buy milk", created[0].Title)
	assert.Equal(t, "a@example.com", created[0].Owner)

	second, err := b.Insert(ctx, service.NewTask{Title: "Walk", Description: "dog", Owner: "a@example.com"})
	require.NoError(t, err)
	assert.Greater(t, second[0].ID, created[0].ID)

	title := "Buy oat milk"
	updated, err := b.Update(ctx, created[0].ID, service.TaskPatch{Title: &title})
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, "Buy oat milk", updated[0].Title)
	assert.Equal(t, "2 litres", updated[0].Description, "nil fields are left untouched")

	missing, err := b.Update(ctx, 9999, service.TaskPatch{Title: &title})
	require.NoError(t, err)
	assert.Empty(t, missing)

	require.NoError(t, b.Delete(ctx, created[0].ID))
	require.NoError(t, b.Delete(ctx, created[0].ID), "deleting a missing task is fine")

	tasks, err = b.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Walk", tasks[0].Title)
}

func TestTasks_ScopedToOwner(t *testing.T) {
	ctx := context.Background()
	b := openTest(t, t.TempDir(), true)

	signUpAndIn(t, b, "a@example.com")
	mine, err := b.Insert(ctx, service.NewTask{Title: "A's", Description: "x", Owner: "a@example.com"})
	require.NoError(t, err)

	_, err = b.Insert(ctx, service.NewTask{Title: "forged", Description: "x", Owner: "b@example.com"})
	assert.True(t, service.IsAuth(err))

	require.NoError(t, b.SignOut(ctx))
	signUpAndIn(t, b, "b@example.com")

	tasks, err := b.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	title := "stolen"
	updated, err := b.Update(ctx, mine[0].ID, service.TaskPatch{Title: &title})
	require.NoError(t, err)
	assert.Empty(t, updated)

	require.NoError(t, b.Delete(ctx, mine[0].ID))
	require.NoError(t, b.SignOut(ctx))
	_, err = b.SignIn(ctx, "a@example.com", "secret1")
	require.NoError(t, err)

	tasks, err = b.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "A's", tasks[0].Title)
}
