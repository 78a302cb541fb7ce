package client

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// SessionStore holds the current session token.  The client reads it anew
// for every request, so logging in or out takes effect immediately.
type SessionStore interface {
	Token() string
	Save(token string, expiresAt time.Time) error
	Clear() error
}

// MemorySession keeps the token in process memory.
type MemorySession struct {
	mu    sync.RWMutex
	token string
	exp   time.Time
	now   func() time.Time
}

func NewMemorySession() *MemorySession {
	return &MemorySession{now: time.Now}
}

// Token returns the token, or "" once it has expired.
func (s *MemorySession) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" || (!s.exp.IsZero() && s.now().After(s.exp)) {
		return ""
	}
	return s.token
}

func (s *MemorySession) Save(token string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.exp = token, expiresAt
	return nil
}

func (s *MemorySession) Clear() error {
	return s.Save("", time.Time{})
}

type tokenFile struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// FileSession persists the token as JSON, readable only by the owner.
type FileSession struct {
	path string
}

func NewFileSession(path string) *FileSession { return &FileSession{path: path} }

// DefaultSessionPath is <user config dir>/streaming-catalog/token.json.
func DefaultSessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "streaming-catalog", "token.json"), nil
}

// Token returns the stored token; a missing, unreadable or expired file
// yields "".
func (s *FileSession) Token() string {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return ""
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return ""
	}
	if !tf.ExpiresAt.IsZero() && time.Now().After(tf.ExpiresAt) {
		return ""
	}
	return tf.Token
}

func (s *FileSession) Save(token string, expiresAt time.Time) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(tokenFile{Token: token, ExpiresAt: expiresAt}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0o600)
}

func (s *FileSession) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
