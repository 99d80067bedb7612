// Package session holds all process-wide mutable state: per-user sessions,
// the known-user registry used for broadcast fan-out, and the admin relay
// map. Everything lives in memory for the process lifetime only.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Session is the fixed-shape per-user state tracked across messages.
//
// PendingStyle is a single-use token: set by /style, consumed by the next
// photo. Images is the ordered collection pending PDF export; order is page
// order. AwaitingAdmin marks that the user's next text goes to the admin.
type Session struct {
	PendingStyle  string
	Images        []string
	AwaitingAdmin bool

	// imageSeq only grows, so concurrent photo arrivals never collide on
	// file names even after the collection has been exported or cleared.
	imageSeq int
}

// Store owns every Session, keyed by Telegram user id. Sessions are created
// lazily on first access and are never visible across users.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	root     string
}

// NewStore creates a Store whose per-user directories live under root.
func NewStore(root string) *Store {
	return &Store{
		sessions: make(map[int64]*Session),
		root:     root,
	}
}

func (s *Store) get(userID int64) *Session {
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &Session{}
		s.sessions[userID] = sess
	}
	return sess
}

// UserDir returns the user's temp directory, creating it if needed.
func (s *Store) UserDir(userID int64) (string, error) {
	dir := filepath.Join(s.root, fmt.Sprintf("%d", userID))
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("creating user dir: %w", err)
	}
	return dir, nil
}

// NextImageIndex reserves the next image number for the user. Indices are
// monotonic for the process lifetime and are never reused.
func (s *Store) NextImageIndex(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.get(userID)
	sess.imageSeq++
	return sess.imageSeq
}

// AppendImage adds a stored image path to the user's collection.
func (s *Store) AppendImage(userID int64, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.get(userID)
	sess.Images = append(sess.Images, path)
}

// Images returns a copy of the user's collected image paths in insertion
// order.
func (s *Store) Images(userID int64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.get(userID)
	out := make([]string, len(sess.Images))
	copy(out, sess.Images)
	return out
}

// ResetImages empties the user's collection after a successful export.
func (s *Store) ResetImages(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(userID).Images = nil
}

// SetStyle records the single-use style token for the user's next photo.
func (s *Store) SetStyle(userID int64, style string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(userID).PendingStyle = style
}

// TakeStyle consumes and clears the pending style token. The token is
// cleared before the stylize call is attempted, so it is spent exactly once
// whether or not the call succeeds.
func (s *Store) TakeStyle(userID int64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.get(userID)
	style := sess.PendingStyle
	sess.PendingStyle = ""
	return style, style != ""
}

// SetAwaitingAdmin marks that the user's next text message is addressed to
// the admin.
func (s *Store) SetAwaitingAdmin(userID int64, v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(userID).AwaitingAdmin = v
}

// AwaitingAdmin reports whether the user is composing an admin message.
func (s *Store) AwaitingAdmin(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(userID).AwaitingAdmin
}

// Clear resets the user's session to defaults and removes their temp
// directory with everything in it.
func (s *Store) Clear(userID int64) error {
	s.mu.Lock()
	sess := s.get(userID)
	sess.PendingStyle = ""
	sess.Images = nil
	sess.AwaitingAdmin = false
	s.mu.Unlock()

	dir := filepath.Join(s.root, fmt.Sprintf("%d", userID))
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing user dir: %w", err)
	}
	return nil
}
