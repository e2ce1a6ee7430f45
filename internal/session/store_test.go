package session

import (
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison001/NexusBot/internal/domain"
)

func newTestStore(t *testing.T) (*Store, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	return NewStore(t.TempDir(), clock), clock
}

func TestGetOrCreate_CreatesFreshSession(t *testing.T) {
	store, _ := newTestStore(t)

	sess, err := store.GetOrCreate(42)
	require.NoError(t, err)

	assert.Equal(t, int64(42), sess.UserID)
	assert.Empty(t, sess.Images())
	assert.DirExists(t, sess.ScratchDir())
	assert.Equal(t, 1, store.Len())
}

func TestGetOrCreate_ReturnsExistingSession(t *testing.T) {
	store, _ := newTestStore(t)

	first, err := store.GetOrCreate(42)
	require.NoError(t, err)
	second, err := store.GetOrCreate(42)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, store.Len())
}

func TestGetOrCreate_ConcurrentFirstAccessCreatesOneSession(t *testing.T) {
	store, _ := newTestStore(t)

	const goroutines = 32
	sessions := make([]*Session, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := store.GetOrCreate(7)
			require.NoError(t, err)
			sessions[i] = s
		}(i)
	}
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		assert.Same(t, sessions[0], sessions[i])
	}
	assert.Equal(t, 1, store.Len())
}

func TestAddImage_SequentialAppendsKeepOrder(t *testing.T) {
	store, clock := newTestStore(t)
	sess, err := store.GetOrCreate(1)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := sess.AddImage(fmt.Sprintf("img-%d", i), 50, clock.Now())
		require.NoError(t, err)
	}

	images := sess.Images()
	require.Len(t, images, 5)
	for i, path := range images {
		assert.Equal(t, fmt.Sprintf("img-%d", i), path)
	}
}

func TestAddImage_ConcurrentAppendsLoseNothing(t *testing.T) {
	store, clock := newTestStore(t)
	sess, err := store.GetOrCreate(1)
	require.NoError(t, err)

	const appends = 64
	var wg sync.WaitGroup
	for i := 0; i < appends; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := sess.AddImage(fmt.Sprintf("img-%d", i), appends, clock.Now())
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Len(t, sess.Images(), appends)
}

func TestAddImage_EnforcesLimit(t *testing.T) {
	store, clock := newTestStore(t)
	sess, err := store.GetOrCreate(1)
	require.NoError(t, err)

	_, err = sess.AddImage("a", 1, clock.Now())
	require.NoError(t, err)

	_, err = sess.AddImage("b", 1, clock.Now())
	assert.ErrorIs(t, err, domain.ErrSessionFull)
	assert.Len(t, sess.Images(), 1)
}

func TestClear_ReplacesScratchDirAndEmptiesImages(t *testing.T) {
	store, clock := newTestStore(t)
	sess, err := store.GetOrCreate(1)
	require.NoError(t, err)

	oldDir := sess.ScratchDir()
	path := oldDir + "/image_1.jpg"
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o600))
	_, err = sess.AddImage(path, 50, clock.Now())
	require.NoError(t, err)

	require.NoError(t, store.Clear(1))

	assert.Empty(t, sess.Images())
	assert.NotEqual(t, oldDir, sess.ScratchDir())
	assert.DirExists(t, sess.ScratchDir())
	assert.NoDirExists(t, oldDir)
	assert.Equal(t, 1, store.Len(), "session stays addressable after clear")
}

func TestClear_TwiceOnEmptySessionSucceeds(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.GetOrCreate(1)
	require.NoError(t, err)

	require.NoError(t, store.Clear(1))
	require.NoError(t, store.Clear(1))
}

func TestClear_AbsentUserCreatesSession(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.Clear(99))
	assert.Equal(t, 1, store.Len())
}

func TestEvict_RemovesSessionAndStorage(t *testing.T) {
	store, _ := newTestStore(t)
	sess, err := store.GetOrCreate(1)
	require.NoError(t, err)
	dir := sess.ScratchDir()

	store.Evict(1)

	assert.Equal(t, 0, store.Len())
	assert.NoDirExists(t, dir)

	// Next lookup yields a brand-new session with a fresh scratch dir.
	fresh, err := store.GetOrCreate(1)
	require.NoError(t, err)
	assert.NotSame(t, sess, fresh)
	assert.Empty(t, fresh.Images())
	assert.NotEqual(t, dir, fresh.ScratchDir())
}

func TestEvict_AbsentUserIsNoop(t *testing.T) {
	store, _ := newTestStore(t)
	store.Evict(1)
	assert.Equal(t, 0, store.Len())
}

func TestScratchDirs_AreIsolatedAcrossUsers(t *testing.T) {
	store, _ := newTestStore(t)

	a, err := store.GetOrCreate(1)
	require.NoError(t, err)
	b, err := store.GetOrCreate(2)
	require.NoError(t, err)

	assert.NotEqual(t, a.ScratchDir(), b.ScratchDir())
}

func TestEvictIdle_HonorsCutoff(t *testing.T) {
	store, clock := newTestStore(t)

	stale, err := store.GetOrCreate(1)
	require.NoError(t, err)
	staleDir := stale.ScratchDir()

	clock.Advance(10 * time.Minute)
	fresh, err := store.GetOrCreate(2)
	require.NoError(t, err)

	evicted := store.EvictIdle(clock.Now().Add(-5 * time.Minute))

	assert.Equal(t, 1, evicted)
	assert.Equal(t, 1, store.Len())
	assert.NoDirExists(t, staleDir)
	assert.DirExists(t, fresh.ScratchDir())
}
