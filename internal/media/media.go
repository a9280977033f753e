// Package media validates, decodes and resizes the images that flow through
// a remix session.
package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	_ "github.com/kolesa-team/go-webp/decoder"
	"github.com/kiranshivaraju/remixer/pkg/models"
)

var ErrNotImage = errors.New("not a supported image")

// FromDataURL parses a "data:<mime>;base64,<payload>" string.
func FromDataURL(s string) (models.Image, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(s), "data:")
	if !ok {
		return models.Image{}, fmt.Errorf("%w: missing data: prefix", ErrNotImage)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return models.Image{}, fmt.Errorf("%w: malformed data URL", ErrNotImage)
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return models.Image{}, fmt.Errorf("%w: data URL is not base64 encoded", ErrNotImage)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return models.Image{}, fmt.Errorf("%w: decode base64: %v", ErrNotImage, err)
	}
	return FromBytes(data, mime)
}

// FromBytes checks that data is an image we can decode. declaredMIME, when
// set, must be image/*; the stored MIME type is the sniffed one.
func FromBytes(data []byte, declaredMIME string) (models.Image, error) {
	if len(data) == 0 {
		return models.Image{}, fmt.Errorf("%w: empty upload", ErrNotImage)
	}
	if declaredMIME != "" && declaredMIME != "application/octet-stream" && !strings.HasPrefix(declaredMIME, "image/") {
		return models.Image{}, fmt.Errorf("%w: declared type %q", ErrNotImage, declaredMIME)
	}

	sniffed := http.DetectContentType(data)
	if !strings.HasPrefix(sniffed, "image/") {
		return models.Image{}, fmt.Errorf("%w: detected type %q", ErrNotImage, sniffed)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return models.Image{}, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	return models.Image{MIMEType: sniffed, Data: data}, nil
}

// Dimensions returns the pixel size without decoding the whole image.
func Dimensions(img models.Image) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(img.Data))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	return cfg.Width, cfg.Height, nil
}

// Normalize downscales img so neither side exceeds maxDim, re-encoding as
// PNG. Images already within bounds, or maxDim <= 0, are returned untouched.
func Normalize(img models.Image, maxDim int) (models.Image, error) {
	if maxDim <= 0 {
		return img, nil
	}
	w, h, err := Dimensions(img)
	if err != nil {
		return models.Image{}, err
	}
	if w <= maxDim && h <= maxDim {
		return img, nil
	}

	src, err := decode(img)
	if err != nil {
		return models.Image{}, err
	}
	return encode(imaging.Fit(src, maxDim, maxDim, imaging.Lanczos), imaging.PNG)
}

// Thumbnail renders a JPEG preview that fits in a size x size box.
func Thumbnail(img models.Image, size int) (models.Image, error) {
	if size <= 0 {
		return models.Image{}, fmt.Errorf("thumbnail size must be positive, got %d", size)
	}
	src, err := decode(img)
	if err != nil {
		return models.Image{}, err
	}
	return encode(imaging.Fit(src, size, size, imaging.Linear), imaging.JPEG, imaging.JPEGQuality(80))
}

// DataURL renders img as a base64 data URL.
func DataURL(img models.Image) string {
	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// Decode returns the decoded pixels, applying EXIF orientation.
func Decode(img models.Image) (image.Image, error) {
	return decode(img)
}

func decode(img models.Image) (image.Image, error) {
	src, err := imaging.Decode(bytes.NewReader(img.Data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	return src, nil
}

func encode(src image.Image, format imaging.Format, opts ...imaging.EncodeOption) (models.Image, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, src, format, opts...); err != nil {
		return models.Image{}, fmt.Errorf("encode %s: %w", format, err)
	}
	mime := "image/png"
	if format == imaging.JPEG {
		mime = "image/jpeg"
	}
	return models.Image{MIMEType: mime, Data: buf.Bytes()}, nil
}
