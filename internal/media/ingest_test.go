package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison001/NexusBot/internal/domain"
	"github.com/harrison001/NexusBot/internal/session"
)

// --- Mock implementations ---

type mockBotAPI struct {
	mu          sync.Mutex
	fetchCalls  int
	fetchFileFn func(ctx context.Context, fileID string) (string, io.ReadCloser, error)
}

func (m *mockBotAPI) FetchFile(ctx context.Context, fileID string) (string, io.ReadCloser, error) {
	m.mu.Lock()
	m.fetchCalls++
	m.mu.Unlock()
	if m.fetchFileFn != nil {
		return m.fetchFileFn(ctx, fileID)
	}
	return "", nil, fmt.Errorf("not implemented")
}

func (m *mockBotAPI) SendMessage(context.Context, int64, string, []domain.InlineAction) error {
	return nil
}

func (m *mockBotAPI) SendDocument(context.Context, int64, string, string) error {
	return nil
}

func (m *mockBotAPI) EditMessageText(context.Context, int64, int, string) error {
	return nil
}

func (m *mockBotAPI) AnswerCallback(context.Context, string) error {
	return nil
}

func (m *mockBotAPI) fetches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchCalls
}

func fetchReturning(remotePath, content string) func(context.Context, string) (string, io.ReadCloser, error) {
	return func(context.Context, string) (string, io.ReadCloser, error) {
		return remotePath, io.NopCloser(bytes.NewReader([]byte(content))), nil
	}
}

func newTestPipeline(t *testing.T, bot domain.BotAPI, maxImages int) (*Pipeline, *session.Store) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	store := session.NewStore(t.TempDir(), clock)
	pipeline := NewPipeline(bot, DetectFormats(), clock, maxImages, 30*time.Second)
	return pipeline, store
}

func TestIngest_PhotoUsesDefaultExtension(t *testing.T) {
	bot := &mockBotAPI{fetchFileFn: fetchReturning("photos/file_0.bin", "jpeg-bytes")}
	pipeline, store := newTestPipeline(t, bot, 50)
	sess, err := store.GetOrCreate(1)
	require.NoError(t, err)

	count, err := pipeline.Ingest(context.Background(), sess, Attachment{Kind: KindPhoto, FileID: "f1"})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	images := sess.Images()
	require.Len(t, images, 1)
	assert.True(t, strings.HasSuffix(images[0], ".jpg"), images[0])
	assert.True(t, strings.HasPrefix(filepath.Base(images[0]), "image_"), images[0])

	data, err := os.ReadFile(images[0])
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
}

func TestIngest_PhotoAdoptsSupportedRemoteExtension(t *testing.T) {
	bot := &mockBotAPI{fetchFileFn: fetchReturning("photos/file_0.png", "png-bytes")}
	pipeline, store := newTestPipeline(t, bot, 50)
	sess, err := store.GetOrCreate(1)
	require.NoError(t, err)

	_, err = pipeline.Ingest(context.Background(), sess, Attachment{Kind: KindPhoto, FileID: "f1"})
	require.NoError(t, err)

	images := sess.Images()
	require.Len(t, images, 1)
	assert.True(t, strings.HasSuffix(images[0], ".png"), images[0])
}

func TestIngest_DocumentValidExtension(t *testing.T) {
	bot := &mockBotAPI{fetchFileFn: fetchReturning("documents/file_1", "png-bytes")}
	pipeline, store := newTestPipeline(t, bot, 50)
	sess, err := store.GetOrCreate(1)
	require.NoError(t, err)

	count, err := pipeline.Ingest(context.Background(), sess, Attachment{
		Kind:     KindDocument,
		FileID:   "f1",
		FileName: "Scan.PNG",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	images := sess.Images()
	require.Len(t, images, 1)
	assert.True(t, strings.HasSuffix(images[0], ".png"), "extension is lowercased: %s", images[0])
}

func TestIngest_DocumentUnsupportedExtensionRejectedBeforeFetch(t *testing.T) {
	bot := &mockBotAPI{fetchFileFn: fetchReturning("documents/file_1", "data")}
	pipeline, store := newTestPipeline(t, bot, 50)
	sess, err := store.GetOrCreate(1)
	require.NoError(t, err)

	_, err = pipeline.Ingest(context.Background(), sess, Attachment{
		Kind:     KindDocument,
		FileID:   "f1",
		FileName: "notes.txt",
	})

	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	assert.Empty(t, sess.Images())
	assert.Equal(t, 0, bot.fetches(), "no bytes move for rejected documents")
}

func TestIngest_DocumentWithoutNameRejected(t *testing.T) {
	bot := &mockBotAPI{}
	pipeline, store := newTestPipeline(t, bot, 50)
	sess, err := store.GetOrCreate(1)
	require.NoError(t, err)

	_, err = pipeline.Ingest(context.Background(), sess, Attachment{Kind: KindDocument, FileID: "f1"})

	assert.ErrorIs(t, err, domain.ErrMissingFileName)
	assert.Empty(t, sess.Images())
}

func TestIngest_FetchFailureLeavesSessionUnchanged(t *testing.T) {
	bot := &mockBotAPI{
		fetchFileFn: func(context.Context, string) (string, io.ReadCloser, error) {
			return "", nil, errors.New("network down")
		},
	}
	pipeline, store := newTestPipeline(t, bot, 50)
	sess, err := store.GetOrCreate(1)
	require.NoError(t, err)

	_, err = pipeline.Ingest(context.Background(), sess, Attachment{Kind: KindPhoto, FileID: "f1"})

	assert.Error(t, err)
	assert.Empty(t, sess.Images())

	entries, err := os.ReadDir(sess.ScratchDir())
	require.NoError(t, err)
	assert.Empty(t, entries, "no partial file left behind")
}

func TestIngest_NSequentialCallsYieldNImages(t *testing.T) {
	bot := &mockBotAPI{fetchFileFn: fetchReturning("photos/p.jpg", "bytes")}
	pipeline, store := newTestPipeline(t, bot, 50)
	sess, err := store.GetOrCreate(1)
	require.NoError(t, err)

	const n = 7
	for i := 0; i < n; i++ {
		count, err := pipeline.Ingest(context.Background(), sess, Attachment{Kind: KindPhoto, FileID: fmt.Sprintf("f%d", i)})
		require.NoError(t, err)
		assert.Equal(t, i+1, count)
	}

	assert.Len(t, sess.Images(), n)
}

func TestIngest_FilenamesNeverCollide(t *testing.T) {
	// The fake clock freezes the millisecond timestamp, so uniqueness
	// rests entirely on the random suffix here.
	bot := &mockBotAPI{fetchFileFn: fetchReturning("photos/p.jpg", "bytes")}
	pipeline, store := newTestPipeline(t, bot, 100)
	sess, err := store.GetOrCreate(1)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		_, err := pipeline.Ingest(context.Background(), sess, Attachment{Kind: KindPhoto, FileID: "f"})
		require.NoError(t, err)
	}

	seen := make(map[string]struct{})
	for _, path := range sess.Images() {
		_, dup := seen[path]
		assert.False(t, dup, "duplicate path %s", path)
		seen[path] = struct{}{}
	}
}

func TestIngest_SessionFullRejected(t *testing.T) {
	bot := &mockBotAPI{fetchFileFn: fetchReturning("photos/p.jpg", "bytes")}
	pipeline, store := newTestPipeline(t, bot, 2)
	sess, err := store.GetOrCreate(1)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := pipeline.Ingest(context.Background(), sess, Attachment{Kind: KindPhoto, FileID: "f"})
		require.NoError(t, err)
	}

	_, err = pipeline.Ingest(context.Background(), sess, Attachment{Kind: KindPhoto, FileID: "f"})
	assert.ErrorIs(t, err, domain.ErrSessionFull)
	assert.Len(t, sess.Images(), 2)
}

func TestIngest_ConcurrentUsersStayIsolated(t *testing.T) {
	bot := &mockBotAPI{fetchFileFn: fetchReturning("photos/p.jpg", "bytes")}
	pipeline, store := newTestPipeline(t, bot, 50)

	a, err := store.GetOrCreate(1)
	require.NoError(t, err)
	b, err := store.GetOrCreate(2)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := pipeline.Ingest(context.Background(), a, Attachment{Kind: KindPhoto, FileID: "fa"})
			assert.NoError(t, err)
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := pipeline.Ingest(context.Background(), b, Attachment{Kind: KindPhoto, FileID: "fb"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, a.Images(), 10)
	assert.Len(t, b.Images(), 10)

	for _, path := range a.Images() {
		assert.True(t, strings.HasPrefix(path, a.ScratchDir()), "path %s escapes scratch dir", path)
		assert.False(t, strings.HasPrefix(path, b.ScratchDir()))
	}
	for _, path := range b.Images() {
		assert.True(t, strings.HasPrefix(path, b.ScratchDir()))
	}
}
