package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"todoshell/internal/service"
	"todoshell/internal/session"
)

func principal(u types.User) *service.Principal {
	if u.ID == uuid.Nil {
		return nil
	}
	confirmed := u.EmailConfirmedAt
	if confirmed == nil && !u.ConfirmedAt.IsZero() {
		at := u.ConfirmedAt
		confirmed = &at
	}
	return &service.Principal{ID: u.ID.String(), Email: u.Email, ConfirmedAt: confirmed}
}

func token(s types.Session) *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  s.AccessToken,
		TokenType:    s.TokenType,
		RefreshToken: s.RefreshToken,
	}
	switch {
	case s.ExpiresAt > 0:
		tok.Expiry = time.Unix(s.ExpiresAt, 0)
	case s.ExpiresIn > 0:
		tok.Expiry = time.Now().Add(time.Duration(s.ExpiresIn) * time.Second)
	}
	return tok
}

// CurrentSession implements service.SessionGateway. The session file is
// re-read on every call because another process may have changed it. An
// expired access token is refreshed and the result persisted.
func (c *Client) CurrentSession(ctx context.Context) (*service.Session, error) {
	sess, err := c.store.Load()
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}

	current := session.Token(sess)
	tok, err := oauth2.ReuseTokenSource(current, &refreshSource{ctx: ctx, c: c, refreshToken: sess.RefreshToken}).Token()
	if err != nil {
		if service.IsAuth(err) || isInvalidGrant(err) {
			c.log.Info("stored session rejected, signing out", zap.Error(err))
			_ = c.store.Remove()
			c.notifier.Observe(nil)
			return nil, fmt.Errorf("%w: %w", service.ErrSessionExpired, err)
		}
		return nil, err
	}
	if tok.AccessToken == sess.AccessToken {
		return fillIdentity(sess), nil
	}

	refreshed := fillIdentity(session.FromToken(tok, sess.User))
	if err := c.store.Save(refreshed); err != nil {
		return nil, err
	}
	c.notifier.Observe(refreshed)
	return refreshed, nil
}

// fillIdentity takes the email from the token claims when the stored
// principal lacks one.
func fillIdentity(sess *service.Session) *service.Session {
	if sess.User.Email != "" {
		return sess
	}
	if claims, err := session.ParseUnverified(sess.AccessToken); err == nil {
		sess.User.Email = claims.Email
		if sess.User.ID == "" {
			sess.User.ID = claims.Subject
		}
	}
	return sess
}

// refreshSource exchanges a refresh token for a new session.
type refreshSource struct {
	ctx          context.Context
	c            *Client
	refreshToken string
}

func (r *refreshSource) Token() (*oauth2.Token, error) {
	if r.refreshToken == "" {
		return nil, &service.APIError{Status: http.StatusUnauthorized, Message: "no refresh token"}
	}
	call, cancel, err := r.c.begin(r.ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	resp, err := r.c.auth(call, "").RefreshToken(r.refreshToken)
	if err != nil {
		return nil, call.authError(err)
	}
	if resp.AccessToken == "" {
		return nil, &service.APIError{Status: http.StatusUnauthorized, Message: "refresh returned no access token"}
	}
	return token(resp.Session), nil
}

func isInvalidGrant(err error) bool {
	var apiErr *service.APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest
}

// SignIn implements service.SessionGateway.
func (c *Client) SignIn(ctx context.Context, email, password string) (*service.Principal, error) {
	call, cancel, err := c.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	resp, err := c.auth(call, "").SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, call.authError(err)
	}

	p := principal(resp.User)
	if p == nil || resp.AccessToken == "" {
		return nil, nil
	}
	sess := fillIdentity(session.FromToken(token(resp.Session), *p))
	if err := c.store.Save(sess); err != nil {
		return nil, err
	}
	c.notifier.Observe(sess)
	c.log.Info("signed in", zap.String("email", sess.Email()))
	return p, nil
}

// SignUp implements service.SessionGateway. Projects with auto-confirm
// answer with a full session; it is discarded so that the first sign-in
// stays an explicit step.
func (c *Client) SignUp(ctx context.Context, email, password string) (*service.Principal, error) {
	call, cancel, err := c.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	resp, err := c.auth(call, "").Signup(types.SignupRequest{Email: email, Password: password})
	if err != nil {
		return nil, call.authError(err)
	}
	if resp.AccessToken != "" {
		c.log.Debug("discarding auto-confirmed session", zap.String("email", email))
	}
	c.log.Info("signed up", zap.String("email", email))
	return principal(resp.User), nil
}

// SignOut implements service.SessionGateway. A session the server no longer
// knows is cleared locally; any other failure keeps it.
func (c *Client) SignOut(ctx context.Context) error {
	sess, err := c.store.Load()
	if err != nil {
		return err
	}
	if sess != nil {
		call, cancel, err := c.begin(ctx)
		if err != nil {
			return err
		}
		err = c.auth(call, sess.AccessToken).Logout()
		cancel()
		if err != nil {
			err = call.authError(err)
			var apiErr *service.APIError
			if !(errors.As(err, &apiErr) && (service.IsAuth(err) || apiErr.Status == http.StatusNotFound)) {
				return err
			}
		}
	}
	if err := c.store.Remove(); err != nil {
		return err
	}
	c.notifier.Observe(nil)
	return nil
}
