package ftp

import (
	"crypto/tls"
	"fmt"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/jlaffaye/ftp"

	"github.com/galerija/imagepipe/internal/config"
)

// AuthError indicates the server rejected the configured credentials.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string { return fmt.Sprintf("ftp auth failed: %v", e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

// NetworkError indicates the server could not be reached.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("ftp unreachable: %v", e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// Entry describes one remote directory listing item.
type Entry struct {
	Name       string
	Dir        bool
	ModifiedAt time.Time
}

// Session is a single FTP connection. Close is idempotent so callers can
// defer it unconditionally; the connection is released exactly once no
// matter which step failed.
type Session struct {
	conn *ftp.ServerConn

	mu     sync.Mutex
	closed bool
}

// Dial opens and authenticates a session.
func Dial(cfg config.FTP) (*Session, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	opts := []ftp.DialOption{ftp.DialWithTimeout(cfg.Timeout)}
	if cfg.Secure {
		opts = append(opts, ftp.DialWithExplicitTLS(&tls.Config{ServerName: cfg.Host}))
	}

	conn, err := ftp.Dial(addr, opts...)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	if err := conn.Login(cfg.User, cfg.Password); err != nil {
		_ = conn.Quit()
		return nil, &AuthError{Err: err}
	}

	return &Session{conn: conn}, nil
}

// ChangeDir moves the session working directory.
func (s *Session) ChangeDir(dir string) error {
	if err := s.conn.ChangeDir(dir); err != nil {
		return fmt.Errorf("ftp cd %s: %w", dir, err)
	}
	return nil
}

// List returns the entries of a remote directory.
func (s *Session) List(dir string) ([]Entry, error) {
	raw, err := s.conn.List(dir)
	if err != nil {
		return nil, fmt.Errorf("ftp list %s: %w", dir, err)
	}
	entries := make([]Entry, 0, len(raw))
	for _, e := range raw {
		entries = append(entries, Entry{
			Name:       e.Name,
			Dir:        e.Type == ftp.EntryTypeFolder,
			ModifiedAt: e.Time,
		})
	}
	return entries, nil
}

// Download copies a remote file to localPath.
func (s *Session) Download(remoteName, localPath string) error {
	resp, err := s.conn.Retr(remoteName)
	if err != nil {
		return fmt.Errorf("ftp retr %s: %w", remoteName, err)
	}
	defer resp.Close()

	out, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", localPath, err)
	}
	defer out.Close()

	if _, err := out.ReadFrom(resp); err != nil {
		return fmt.Errorf("ftp download %s: %w", remoteName, err)
	}
	return nil
}

// Upload stores a local file at remotePath, creating intermediate remote
// directories first.
func (s *Session) Upload(localPath, remotePath string) error {
	remotePath = path.Clean(strings.ReplaceAll(remotePath, "\\", "/"))

	if dir := path.Dir(remotePath); dir != "." && dir != "/" {
		s.ensureDir(dir)
	}

	in, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer in.Close()

	if err := s.conn.Stor(remotePath, in); err != nil {
		return fmt.Errorf("ftp stor %s: %w", remotePath, err)
	}
	return nil
}

// Remove deletes a remote file.
func (s *Session) Remove(remoteName string) error {
	if err := s.conn.Delete(remoteName); err != nil {
		return fmt.Errorf("ftp delete %s: %w", remoteName, err)
	}
	return nil
}

// Close terminates the session. Safe to call multiple times.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	_ = s.conn.Quit()
}

// ensureDir creates every path segment, ignoring failures for segments
// that already exist. Servers differ on the error for an existing dir,
// so the upload itself is the real check.
func (s *Session) ensureDir(dir string) {
	segments := strings.Split(strings.Trim(dir, "/"), "/")
	current := ""
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		current = current + "/" + seg
		_ = s.conn.MakeDir(current)
	}
}
