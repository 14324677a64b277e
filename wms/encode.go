package wms

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/gen2brain/webp"
)

// Output formats served by GetMap
const (
	FormatPNG  = "image/png"
	FormatJPEG = "image/jpeg"
	FormatWebP = "image/webp"
)

// Encoder encodes a rendered map image
type Encoder interface {
	Encode(img image.Image) ([]byte, error)

	// MIMEType returns the content type of the encoded bytes.
	MIMEType() string
}

// EncoderFor returns the encoder for a MIME type
func EncoderFor(mime string) (Encoder, bool) {
	switch mime {
	case FormatPNG:
		return &PNGEncoder{}, true
	case FormatJPEG:
		return &JPEGEncoder{Quality: 85}, true
	case FormatWebP:
		return &WebPEncoder{Quality: 85}, true
	default:
		return nil, false
	}
}

// Formats lists the MIME types EncoderFor accepts
func Formats() []string {
	return []string{FormatPNG, FormatJPEG, FormatWebP}
}

// PNGEncoder encodes images as PNG at maximum compression. PNG is the
// lossless form kept in the cache for conversion to other formats.
type PNGEncoder struct{}

func (e *PNGEncoder) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := &png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *PNGEncoder) MIMEType() string { return FormatPNG }

// JPEGEncoder encodes images as JPEG
type JPEGEncoder struct {
	Quality int // 1-100, default 85
}

func (e *JPEGEncoder) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	quality := e.Quality
	if quality <= 0 {
		quality = 85
	}
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *JPEGEncoder) MIMEType() string { return FormatJPEG }

// WebPEncoder encodes images as lossy WebP
type WebPEncoder struct {
	Quality int
}

func (e *WebPEncoder) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	quality := e.Quality
	if quality <= 0 {
		quality = 85
	}
	opts := webp.Options{
		Lossless: false,
		Quality:  quality,
	}
	if err := webp.Encode(&buf, img, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *WebPEncoder) MIMEType() string { return FormatWebP }
