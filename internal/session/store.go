// Package session implements the per-user working set: a concurrency-safe
// store of sessions with isolated on-disk scratch space, and the reaper
// that evicts idle ones.
package session

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/harrison001/NexusBot/internal/domain"
	"github.com/harrison001/NexusBot/internal/metrics"
)

// Session holds one user's working set: an ordered image list and an
// exclusively owned scratch directory. All field access goes through the
// session mutex, so append, clear, and evict on the same user are
// linearizable while different users never contend.
type Session struct {
	UserID int64

	mu           sync.Mutex
	scratchDir   string
	images       []string
	lastActivity time.Time
}

// AddImage appends an image path to the session, enforcing the image cap,
// and bumps the activity timestamp. Returns the new image count.
func (s *Session) AddImage(path string, limit int, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.images) >= limit {
		return len(s.images), fmt.Errorf("session %d holds %d images: %w", s.UserID, len(s.images), domain.ErrSessionFull)
	}
	s.images = append(s.images, path)
	s.lastActivity = now
	return len(s.images), nil
}

// Images returns a snapshot of the image list in insertion order.
func (s *Session) Images() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make([]string, len(s.images))
	copy(snapshot, s.images)
	return snapshot
}

// ImageCount returns the current number of images in the session.
func (s *Session) ImageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.images)
}

// ScratchDir returns the session's current scratch directory.
func (s *Session) ScratchDir() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scratchDir
}

// LastActivity returns the time of the session's last mutation.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// reset swaps in a fresh scratch directory and empties the image list.
// The previous directory is removed best-effort.
func (s *Session) reset(newDir string, now time.Time) {
	s.mu.Lock()
	oldDir := s.scratchDir
	s.scratchDir = newDir
	s.images = nil
	s.lastActivity = now
	s.mu.Unlock()

	removeScratchDir(s.UserID, oldDir)
}

// release empties the session and removes its scratch directory without
// replacement. Used on eviction, after the session left the store.
func (s *Session) release(now time.Time) {
	s.mu.Lock()
	dir := s.scratchDir
	s.scratchDir = ""
	s.images = nil
	s.lastActivity = now
	s.mu.Unlock()

	removeScratchDir(s.UserID, dir)
}

// removeScratchDir deletes a scratch directory. Failure is logged and
// never surfaced: the session transitions logically regardless.
func removeScratchDir(userID int64, dir string) {
	if dir == "" {
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		slog.Error("Failed to remove scratch directory", "user_id", userID, "dir", dir, "error", err)
	}
}

// Store maps user IDs to sessions with get-or-create semantics: looking up
// an absent key creates and stores a fresh empty session. Lookups are
// lock-free; creation for the same user is collapsed through singleflight
// so concurrent first accesses produce exactly one scratch directory.
type Store struct {
	clock       clockwork.Clock
	scratchRoot string

	sessions    sync.Map // int64 -> *Session
	createGroup singleflight.Group
	count       atomic.Int64
}

// NewStore creates a session store placing scratch directories under
// scratchRoot.
func NewStore(scratchRoot string, clock clockwork.Clock) *Store {
	return &Store{
		clock:       clock,
		scratchRoot: scratchRoot,
	}
}

// GetOrCreate returns the user's session, creating and storing a fresh
// empty one on first access.
func (st *Store) GetOrCreate(userID int64) (*Session, error) {
	if s, ok := st.sessions.Load(userID); ok {
		return s.(*Session), nil
	}

	v, err, _ := st.createGroup.Do(strconv.FormatInt(userID, 10), func() (any, error) {
		if s, ok := st.sessions.Load(userID); ok {
			return s.(*Session), nil
		}

		dir, err := st.newScratchDir(userID)
		if err != nil {
			return nil, err
		}

		s := &Session{
			UserID:       userID,
			scratchDir:   dir,
			lastActivity: st.clock.Now(),
		}
		st.sessions.Store(userID, s)
		st.count.Add(1)
		metrics.LiveSessions.Inc()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

// Clear empties the user's session and replaces its scratch directory with
// a fresh one. The session stays present in the store. Clearing an absent
// user creates an empty session first, so the operation never fails with
// "not found".
func (st *Store) Clear(userID int64) error {
	s, err := st.GetOrCreate(userID)
	if err != nil {
		return err
	}

	dir, err := st.newScratchDir(userID)
	if err != nil {
		return err
	}

	s.reset(dir, st.clock.Now())
	return nil
}

// Evict removes the user's session from the store entirely and releases
// its scratch storage. A subsequent lookup creates a brand-new session.
func (st *Store) Evict(userID int64) {
	v, ok := st.sessions.LoadAndDelete(userID)
	if !ok {
		return
	}
	st.count.Add(-1)
	metrics.LiveSessions.Dec()
	v.(*Session).release(st.clock.Now())
}

// EvictIdle removes every session whose last activity precedes the cutoff.
// Returns the number of sessions evicted.
func (st *Store) EvictIdle(cutoff time.Time) int {
	evicted := 0
	st.sessions.Range(func(key, value any) bool {
		s := value.(*Session)
		if s.LastActivity().Before(cutoff) {
			st.Evict(s.UserID)
			evicted++
		}
		return true
	})
	return evicted
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	return int(st.count.Load())
}

func (st *Store) newScratchDir(userID int64) (string, error) {
	dir, err := os.MkdirTemp(st.scratchRoot, fmt.Sprintf("img2pdf-%d-", userID))
	if err != nil {
		return "", fmt.Errorf("failed to create scratch directory for user %d: %w", userID, err)
	}
	return dir, nil
}
