// Package imaging normalizes listing photos before they are stored.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

const (
	// MaxDimension bounds the longer side of a stored photo.
	MaxDimension = 1280
	// MaxUploadBytes is the largest photo accepted from a client.
	MaxUploadBytes = 10 << 20
	// JPEGQuality is used for every stored photo.
	JPEGQuality = 82
)

// ErrTooLarge is returned when the upload exceeds MaxUploadBytes.
var ErrTooLarge = errors.New("image too large")

// ErrUnsupported is returned for anything that is not JPEG, PNG or WebP.
var ErrUnsupported = errors.New("unsupported image format")

var decoders = map[string]func(io.Reader) (image.Image, error){
	"image/jpeg": jpeg.Decode,
	"image/png":  png.Decode,
	"image/webp": webp.Decode,
}

// Photo is a normalized listing photo.
type Photo struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// Normalize sniffs the upload, shrinks it to fit MaxDimension and re-encodes
// it as JPEG. The client-supplied content type is never trusted.
func Normalize(r io.Reader) (*Photo, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading photo: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, ErrTooLarge
	}

	mime := http.DetectContentType(data)
	decode, ok := decoders[mime]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, mime)
	}

	img, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", mime, err)
	}
	img = fit(img, MaxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding photo: %w", err)
	}

	b := img.Bounds()
	return &Photo{Data: buf.Bytes(), MIME: "image/jpeg", Width: b.Dx(), Height: b.Dy()}, nil
}

// fit scales img down, keeping its aspect ratio, so that neither side
// exceeds limit. Smaller images are returned as is.
func fit(img image.Image, limit int) image.Image {
	src := img.Bounds()
	w, h := src.Dx(), src.Dy()
	if w <= limit && h <= limit {
		return img
	}

	var dw, dh int
	if w >= h {
		dw, dh = limit, max(1, h*limit/w)
	} else {
		dw, dh = max(1, w*limit/h), limit
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, src, draw.Src, nil)
	return dst
}
