package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/kiranshivaraju/remixer/internal/media"
	"github.com/kiranshivaraju/remixer/pkg/models"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

// DefaultWebPQuality is the lossy quality used when transcoding exports.
const DefaultWebPQuality = 90

// ToWebP transcodes every entry to lossy WebP and swaps the .png extension.
func ToWebP(entries []Entry, quality float32) ([]Entry, error) {
	opts, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, quality)
	if err != nil {
		return nil, fmt.Errorf("webp encoder options: %w", err)
	}

	out := make([]Entry, len(entries))
	for i, e := range entries {
		img, err := media.Decode(models.Image{MIMEType: e.MIMEType, Data: e.Data})
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", e.Filename, err)
		}
		var buf bytes.Buffer
		if err := webp.Encode(&buf, img, opts); err != nil {
			return nil, fmt.Errorf("encode %s as webp: %w", e.Filename, err)
		}
		out[i] = Entry{
			Filename: strings.TrimSuffix(e.Filename, ".png") + ".webp",
			MIMEType: "image/webp",
			Data:     buf.Bytes(),
		}
	}
	return out, nil
}

// Convert applies the configured export format. "png" leaves entries as they are.
func Convert(entries []Entry, format string) ([]Entry, error) {
	switch format {
	case "", "png":
		return entries, nil
	case "webp":
		return ToWebP(entries, DefaultWebPQuality)
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}
