package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, solid(w, h, color.RGBA{200, 30, 30, 255}), nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, solid(w, h, color.RGBA{30, 30, 200, 255})); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestNormalize_Formats(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"jpeg", encodeJPEG(t, 120, 80)},
		{"png", encodePNG(t, 120, 80)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Normalize(bytes.NewReader(tt.data))
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if p.MIME != "image/jpeg" {
				t.Errorf("expected image/jpeg, got %s", p.MIME)
			}
			if p.Width != 120 || p.Height != 80 {
				t.Errorf("expected 120x80, got %dx%d", p.Width, p.Height)
			}
			if _, err := jpeg.Decode(bytes.NewReader(p.Data)); err != nil {
				t.Errorf("output is not a JPEG: %v", err)
			}
		})
	}
}

func TestNormalize_ShrinksLandscape(t *testing.T) {
	p, err := Normalize(bytes.NewReader(encodeJPEG(t, 2560, 1440)))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if p.Width != MaxDimension || p.Height != 720 {
		t.Errorf("expected %dx720, got %dx%d", MaxDimension, p.Width, p.Height)
	}
}

func TestNormalize_ShrinksPortrait(t *testing.T) {
	p, err := Normalize(bytes.NewReader(encodePNG(t, 1000, 2000)))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if p.Height != MaxDimension || p.Width != 640 {
		t.Errorf("expected 640x%d, got %dx%d", MaxDimension, p.Width, p.Height)
	}
}

func TestNormalize_RejectsUnsupported(t *testing.T) {
	for _, data := range [][]byte{[]byte("GIF89a......"), []byte("plain text, not a photo")} {
		_, err := Normalize(bytes.NewReader(data))
		if !errors.Is(err, ErrUnsupported) {
			t.Errorf("expected ErrUnsupported for %q, got %v", data[:6], err)
		}
	}
}

func TestNormalize_RejectsOversized(t *testing.T) {
	data := make([]byte, MaxUploadBytes+10)
	copy(data, encodeJPEG(t, 10, 10))
	if _, err := Normalize(bytes.NewReader(data)); !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}
}

func TestNormalize_CorruptData(t *testing.T) {
	data := encodeJPEG(t, 50, 50)
	_, err := Normalize(bytes.NewReader(data[:40]))
	if err == nil {
		t.Error("expected error for truncated JPEG")
	}
}
