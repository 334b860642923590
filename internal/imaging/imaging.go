// Package imaging normalizes uploaded photos before they reach the blob store.
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

// Longest edge, in pixels, of stored images.
const (
	ItemImageSize  = 1024
	AlbumPhotoSize = 2048
)

// JPEGQuality is the compression quality for JPEG output.
const JPEGQuality = 85

// MaxUploadSize is the largest accepted upload in bytes.
const MaxUploadSize = 20 << 20

// ErrTooLarge is returned for uploads over MaxUploadSize.
var ErrTooLarge = errors.New("image too large")

// UnsupportedFormatError is returned when the sniffed type is not accepted.
type UnsupportedFormatError struct {
	MIME string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported image format: %s (JPEG, PNG and WebP accepted)", e.MIME)
}

var decoders = map[string]func(io.Reader) (image.Image, error){
	"image/jpeg": jpeg.Decode,
	"image/png":  png.Decode,
	"image/webp": webp.Decode,
}

// Image is a normalized JPEG.
type Image struct {
	Data   []byte
	Width  int
	Height int
}

// MIME is always image/jpeg.
func (*Image) MIME() string { return "image/jpeg" }

// Normalize reads an upload, sniffs its type from the bytes, fits it within
// maxDim on the longest edge and re-encodes it as JPEG.
func Normalize(r io.Reader, maxDim int) (*Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}
	if len(data) > MaxUploadSize {
		return nil, ErrTooLarge
	}

	detected := http.DetectContentType(data)
	decode, ok := decoders[detected]
	if !ok {
		return nil, &UnsupportedFormatError{MIME: detected}
	}

	img, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	img = fit(img, maxDim)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}

	b := img.Bounds()
	return &Image{Data: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}

// fit scales img down with Catmull-Rom so neither edge exceeds maxDim.
// Smaller images are returned as is.
func fit(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := maxDim, maxDim
	if w > h {
		newH = max(1, h*maxDim/w)
	} else {
		newW = max(1, w*maxDim/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
