// Package media validates and persists inbound attachments into session
// scratch space. The set of accepted image formats is fixed at startup:
// the three raster base formats always, HEIF variants only when the
// decoder is compiled into the binary.
package media

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	// Decoders for the base raster formats.
	_ "image/jpeg"
	_ "image/png"
)

// PhotoDefaultExt is assumed for inline photos whose source path carries
// no recognizable extension. Telegram serves photos as JPEG.
const PhotoDefaultExt = ".jpg"

var baseExtensions = []string{".png", ".jpeg", ".jpg"}
var heifExtensions = []string{".heic", ".heif"}

// Formats is the enabled format set, built once at startup and consulted
// by validation and decoding. Never re-probed at runtime.
type Formats struct {
	ordered []string
	enabled map[string]struct{}
}

// DetectFormats builds the enabled format set for this binary.
func DetectFormats() *Formats {
	ordered := append([]string(nil), baseExtensions...)
	if heifEnabled {
		ordered = append(ordered, heifExtensions...)
	}

	enabled := make(map[string]struct{}, len(ordered))
	for _, ext := range ordered {
		enabled[ext] = struct{}{}
	}
	return &Formats{ordered: ordered, enabled: enabled}
}

// Supported reports whether the extension (case-insensitive, leading dot)
// is in the enabled set.
func (f *Formats) Supported(ext string) bool {
	_, ok := f.enabled[strings.ToLower(ext)]
	return ok
}

// Extensions returns the enabled extensions in display order.
func (f *Formats) Extensions() []string {
	return append([]string(nil), f.ordered...)
}

// Describe returns the enabled extensions as a comma-separated list for
// user-facing messages.
func (f *Formats) Describe() string {
	return strings.Join(f.ordered, ", ")
}

// Decode opens and decodes the image at path using the enabled decoders.
func (f *Formats) Decode(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".heic" || ext == ".heif" {
		return decodeHEIF(file)
	}

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return img, nil
}
