package local

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"todoshell/internal/service"
	"todoshell/internal/session"
)

const minPasswordLength = 6

var (
	errInvalidCredentials = &service.APIError{Status: http.StatusBadRequest, Message: "Invalid login credentials"}
	errNotConfirmed       = &service.APIError{Status: http.StatusBadRequest, Message: "Email not confirmed"}
	errInvalidRefresh     = &service.APIError{Status: http.StatusBadRequest, Message: "Invalid Refresh Token"}
)

type userRow struct {
	id           string
	email        string
	passwordHash string
	confirmedAt  sql.NullString
}

func (u userRow) principal() *service.Principal {
	p := &service.Principal{ID: u.id, Email: u.email}
	if u.confirmedAt.Valid {
		if t, err := time.Parse(time.RFC3339, u.confirmedAt.String); err == nil {
			p.ConfirmedAt = &t
		}
	}
	return p
}

func (b *Backend) userBy(ctx context.Context, column, value string) (*userRow, error) {
	var u userRow
	err := b.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, confirmed_at FROM users WHERE `+column+` = ?`, value,
	).Scan(&u.id, &u.email, &u.passwordHash, &u.confirmedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user: %w", err)
	}
	return &u, nil
}

// SignUp implements service.SessionGateway.
func (b *Backend) SignUp(ctx context.Context, email, password string) (*service.Principal, error) {
	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") {
		return nil, &service.APIError{Status: http.StatusUnprocessableEntity, Message: "Unable to validate email address: invalid format"}
	}
	if len(password) < minPasswordLength {
		return nil, &service.APIError{
			Status:  http.StatusUnprocessableEntity,
			Message: fmt.Sprintf("Password should be at least %d characters.", minPasswordLength),
		}
	}

	existing, err := b.userBy(ctx, "email", email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &service.APIError{Status: http.StatusUnprocessableEntity, Message: "User already registered"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	now := b.now().UTC().Format(time.RFC3339)
	u := userRow{id: uuid.NewString(), email: email, passwordHash: string(hash)}
	if b.autoConfirm {
		u.confirmedAt = sql.NullString{String: now, Valid: true}
	}
	_, err = b.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, confirmed_at, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.id, u.email, u.passwordHash, u.confirmedAt, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	b.log.Info("signed up", zap.String("email", email), zap.Bool("confirmed", b.autoConfirm))
	return u.principal(), nil
}

// SignIn implements service.SessionGateway.
func (b *Backend) SignIn(ctx context.Context, email, password string) (*service.Principal, error) {
	u, err := b.userBy(ctx, "email", strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.passwordHash), []byte(password)) != nil {
		return nil, errInvalidCredentials
	}
	if !u.confirmedAt.Valid {
		return nil, errNotConfirmed
	}

	sess, err := b.issue(ctx, u)
	if err != nil {
		return nil, err
	}
	if err := b.store.Save(sess); err != nil {
		return nil, err
	}
	b.notifier.Observe(sess)
	b.log.Info("signed in", zap.String("email", u.email))
	return u.principal(), nil
}

// issue creates a fresh access and refresh token pair for u.
func (b *Backend) issue(ctx context.Context, u *userRow) (*service.Session, error) {
	now := b.now()
	expiry := now.Add(accessTokenTTL)
	claims := session.Claims{
		Email: u.email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   u.id,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refresh := uuid.NewString()
	_, err = b.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (token, user_id, created_at) VALUES (?, ?, ?)`,
		refresh, u.id, now.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &service.Session{
		AccessToken:  access,
		RefreshToken: refresh,
		Expiry:       expiry.Truncate(time.Second),
		User:         *u.principal(),
	}, nil
}

// verify checks the signature and expiry of an access token.
func (b *Backend) verify(token string) (*session.Claims, error) {
	claims := &session.Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return b.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(b.now),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// CurrentSession implements service.SessionGateway. An expired access token
// is exchanged for a new pair; a session this database cannot vouch for is
// cleared.
func (b *Backend) CurrentSession(ctx context.Context) (*service.Session, error) {
	sess, err := b.store.Load()
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}

	_, err = b.verify(sess.AccessToken)
	switch {
	case err == nil:
		return sess, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		refreshed, rerr := b.refresh(ctx, sess.RefreshToken)
		if rerr == nil {
			if err := b.store.Save(refreshed); err != nil {
				return nil, err
			}
			b.notifier.Observe(refreshed)
			return refreshed, nil
		}
		if !service.IsAuth(rerr) && !errors.Is(rerr, errInvalidRefresh) {
			return nil, rerr
		}
		err = rerr
	}

	b.log.Info("stored session rejected, signing out", zap.Error(err))
	_ = b.store.Remove()
	b.notifier.Observe(nil)
	return nil, fmt.Errorf("%w: %w", service.ErrSessionExpired, err)
}

// refresh rotates a refresh token.
func (b *Backend) refresh(ctx context.Context, token string) (*service.Session, error) {
	var userID string
	err := b.db.QueryRowContext(ctx,
		`UPDATE refresh_tokens SET revoked = 1 WHERE token = ? AND revoked = 0 RETURNING user_id`, token,
	).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errInvalidRefresh
	}
	if err != nil {
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}
	u, err := b.userBy(ctx, "id", userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errInvalidRefresh
	}
	return b.issue(ctx, u)
}

// SignOut implements service.SessionGateway. Every refresh token of the user
// is revoked.
func (b *Backend) SignOut(ctx context.Context) error {
	sess, err := b.store.Load()
	if err != nil {
		return err
	}
	if sess != nil {
		_, err := b.db.ExecContext(ctx,
			`UPDATE refresh_tokens SET revoked = 1
			 WHERE user_id = (SELECT user_id FROM refresh_tokens WHERE token = ?)`,
			sess.RefreshToken,
		)
		if err != nil {
			return fmt.Errorf("failed to revoke session: %w", err)
		}
	}
	if err := b.store.Remove(); err != nil {
		return err
	}
	b.notifier.Observe(nil)
	return nil
}

// owner returns the email of the signed-in user.
func (b *Backend) owner(ctx context.Context) (string, error) {
	sess, err := b.CurrentSession(ctx)
	if err != nil {
		return "", err
	}
	if sess == nil {
		return "", service.ErrNotLoggedIn
	}
	return sess.Email(), nil
}
