// Package session persists the signed-in session and announces changes to it.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"

	"todoshell/internal/service"
)

// Store reads and writes the session file.
type Store struct {
	Path string
}

// record is the on-disk form: the oauth2 token plus the principal.
type record struct {
	Token *oauth2.Token     `json:"token"`
	User  service.Principal `json:"user"`
}

// Load returns the stored session, or nil if there is none.
func (s Store) Load() (*service.Session, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("invalid session file: %w", err)
	}
	if rec.Token == nil || rec.Token.AccessToken == "" {
		return nil, nil
	}
	return FromToken(rec.Token, rec.User), nil
}

// Save writes the session with mode 0600, creating the directory if needed.
func (s Store) Save(sess *service.Session) error {
	if sess == nil {
		return s.Remove()
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(record{Token: Token(sess), User: sess.User}, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return os.Rename(tmp, s.Path)
}

// Remove deletes the session file. A missing file is not an error.
func (s Store) Remove() error {
	err := os.Remove(s.Path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}

// Token converts a session into an oauth2 token.
func Token(sess *service.Session) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  sess.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: sess.RefreshToken,
		Expiry:       sess.Expiry,
	}
}

// FromToken builds a session from an oauth2 token and its principal.
func FromToken(tok *oauth2.Token, user service.Principal) *service.Session {
	return &service.Session{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
		User:         user,
	}
}

// fileState identifies a version of the session file.
type fileState struct {
	exists  bool
	modTime time.Time
	size    int64
}

func (s Store) state() fileState {
	st, err := os.Stat(s.Path)
	if err != nil {
		return fileState{}
	}
	return fileState{exists: true, modTime: st.ModTime(), size: st.Size()}
}
