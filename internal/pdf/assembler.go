// Package pdf merges a session's ordered image list into one multi-page
// PDF document.
package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"

	"github.com/harrison001/NexusBot/internal/domain"
	"github.com/harrison001/NexusBot/internal/metrics"
)

const jpegQuality = 90

// Decoder turns an image path into a decoded raster. Implemented by the
// media format registry.
type Decoder interface {
	Decode(path string) (image.Image, error)
}

// Assembler builds PDF documents from ordered image lists. Decode failures
// skip the affected page; only an empty result or an encode failure aborts
// the job.
type Assembler struct {
	decoder Decoder
}

// NewAssembler creates an assembler using decoder for raster decoding.
func NewAssembler(decoder Decoder) *Assembler {
	return &Assembler{decoder: decoder}
}

// Assemble merges the images at inputs into a PDF at outputPath, one page
// per image in input order. Returns the number of pages written. All
// decoded buffers are function-scoped, so they are released on every exit
// path without any manual reclamation.
func (a *Assembler) Assemble(inputs []string, outputPath string) (int, error) {
	start := time.Now()

	pages := make([]io.Reader, 0, len(inputs))
	for _, path := range inputs {
		page, err := a.renderPage(path)
		if err != nil {
			slog.Error("Skipping undecodable image", "path", path, "error", err)
			continue
		}
		pages = append(pages, page)
	}

	if len(pages) == 0 {
		metrics.DocumentsAssembledTotal.WithLabelValues("empty").Inc()
		return 0, fmt.Errorf("%d inputs: %w", len(inputs), domain.ErrNothingToAssemble)
	}

	if err := writePDF(outputPath, pages); err != nil {
		metrics.DocumentsAssembledTotal.WithLabelValues("failure").Inc()
		return 0, err
	}

	metrics.DocumentsAssembledTotal.WithLabelValues("success").Inc()
	metrics.AssemblyDurationSeconds.Observe(time.Since(start).Seconds())
	return len(pages), nil
}

// renderPage decodes one image and normalizes it into the canonical
// 3-channel representation: composited over an opaque white background
// (flattening alpha and palette modes) and re-encoded as JPEG. The result
// is always a fresh buffer independent of the decode handle.
func (a *Assembler) renderPage(path string) (io.Reader, error) {
	img, err := a.decoder.Decode(path)
	if err != nil {
		return nil, err
	}

	flat := flatten(img)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to re-encode %s: %w", path, err)
	}
	return &buf, nil
}

func flatten(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	flat := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(flat, flat.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), img, bounds.Min, draw.Over)
	return flat
}

// writePDF imports the page readers into a fresh PDF. A partially written
// output is removed so the caller never sends a truncated document.
func writePDF(outputPath string, pages []io.Reader) error {
	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output %s: %w", outputPath, err)
	}

	if err := api.ImportImages(nil, out, pages, pdfcpu.DefaultImportConfig(), nil); err != nil {
		_ = out.Close()
		_ = os.Remove(outputPath)
		return fmt.Errorf("failed to encode PDF %s: %w", outputPath, err)
	}

	if err := out.Close(); err != nil {
		_ = os.Remove(outputPath)
		return fmt.Errorf("failed to close output %s: %w", outputPath, err)
	}
	return nil
}
