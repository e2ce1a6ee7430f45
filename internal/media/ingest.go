package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/harrison001/NexusBot/internal/domain"
	"github.com/harrison001/NexusBot/internal/metrics"
	"github.com/harrison001/NexusBot/internal/session"
)

// Kind distinguishes inline photos from named document attachments.
type Kind int

const (
	KindPhoto Kind = iota
	KindDocument
)

// Attachment is one inbound file reference to ingest.
type Attachment struct {
	Kind     Kind
	FileID   string
	FileName string // documents only
}

// Pipeline validates one attachment, fetches its bytes, persists them into
// the owning session's scratch directory, and appends the path to the
// session's image list. Any failure leaves the session unchanged.
type Pipeline struct {
	bot             domain.BotAPI
	formats         *Formats
	clock           clockwork.Clock
	maxImages       int
	downloadTimeout time.Duration
}

// NewPipeline creates a media ingestion pipeline.
func NewPipeline(bot domain.BotAPI, formats *Formats, clock clockwork.Clock, maxImages int, downloadTimeout time.Duration) *Pipeline {
	return &Pipeline{
		bot:             bot,
		formats:         formats,
		clock:           clock,
		maxImages:       maxImages,
		downloadTimeout: downloadTimeout,
	}
}

// Ingest runs the pipeline for one attachment and returns the session's
// new image count.
func (p *Pipeline) Ingest(ctx context.Context, sess *session.Session, att Attachment) (int, error) {
	// Documents are validated by file name before any bytes move.
	var docExt string
	if att.Kind == KindDocument {
		if att.FileName == "" {
			metrics.MediaErrorsTotal.WithLabelValues("missing_name").Inc()
			return 0, domain.ErrMissingFileName
		}
		docExt = strings.ToLower(filepath.Ext(att.FileName))
		if !p.formats.Supported(docExt) {
			metrics.MediaErrorsTotal.WithLabelValues("unsupported_format").Inc()
			return 0, fmt.Errorf("%s: %w", docExt, domain.ErrUnsupportedFormat)
		}
	}

	if sess.ImageCount() >= p.maxImages {
		metrics.MediaErrorsTotal.WithLabelValues("session_full").Inc()
		return 0, fmt.Errorf("limit is %d images: %w", p.maxImages, domain.ErrSessionFull)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, p.downloadTimeout)
	defer cancel()

	remotePath, data, err := p.bot.FetchFile(fetchCtx, att.FileID)
	if err != nil {
		metrics.MediaErrorsTotal.WithLabelValues("fetch").Inc()
		return 0, fmt.Errorf("failed to fetch attachment: %w", err)
	}
	defer func() { _ = data.Close() }()

	ext := docExt
	if att.Kind == KindPhoto {
		ext = PhotoDefaultExt
		if remoteExt := strings.ToLower(filepath.Ext(remotePath)); p.formats.Supported(remoteExt) {
			ext = remoteExt
		}
	}

	dest := filepath.Join(sess.ScratchDir(), p.fileName(ext))
	if err := persist(dest, data); err != nil {
		metrics.MediaErrorsTotal.WithLabelValues("persist").Inc()
		return 0, err
	}

	count, err := sess.AddImage(dest, p.maxImages, p.clock.Now())
	if err != nil {
		// Lost the race against concurrent uploads filling the session.
		_ = os.Remove(dest)
		metrics.MediaErrorsTotal.WithLabelValues("session_full").Inc()
		return 0, err
	}

	metrics.ImagesIngestedTotal.Inc()
	return count, nil
}

// fileName builds a collision-resistant name: millisecond timestamp plus a
// random suffix, so near-simultaneous uploads never land on the same path.
func (p *Pipeline) fileName(ext string) string {
	suffix := uuid.New().String()[:8]
	return fmt.Sprintf("image_%d_%s%s", p.clock.Now().UnixMilli(), suffix, ext)
}

func persist(dest string, data io.Reader) error {
	file, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}

	if _, err := io.Copy(file, data); err != nil {
		_ = file.Close()
		_ = os.Remove(dest)
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(dest)
		return fmt.Errorf("failed to close %s: %w", dest, err)
	}
	return nil
}
