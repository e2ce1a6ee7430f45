//go:build heif

package media

import (
	"image"
	"io"

	"github.com/jdeng/goheif"
)

const heifEnabled = true

func decodeHEIF(r io.Reader) (image.Image, error) {
	return goheif.Decode(r)
}
