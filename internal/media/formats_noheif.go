//go:build !heif

package media

import (
	"errors"
	"image"
	"io"
)

const heifEnabled = false

func decodeHEIF(io.Reader) (image.Image, error) {
	return nil, errors.New("heif decoder not compiled into this binary")
}
