package models

import (
	"fmt"
	"strings"
)

// Image is an opaque image blob. Data holds the raw encoded bytes.
type Image struct {
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"-"`
}

// Empty reports whether the image carries no data.
func (i Image) Empty() bool { return len(i.Data) == 0 }

// AspectRatio is the output framing requested from the remote API.
type AspectRatio string

const (
	AspectSquare    AspectRatio = "1:1"
	AspectPortrait  AspectRatio = "3:4"
	AspectLandscape AspectRatio = "4:3"
	AspectStory     AspectRatio = "9:16"
	AspectWide      AspectRatio = "16:9"
	AspectFree      AspectRatio = "Free"
)

// DefaultAspectRatio is used when a request does not specify one.
const DefaultAspectRatio = AspectSquare

// AspectRatios lists every supported ratio in display order.
var AspectRatios = []AspectRatio{
	AspectSquare, AspectPortrait, AspectLandscape, AspectStory, AspectWide, AspectFree,
}

// ParseAspectRatio validates a user-supplied ratio. An empty string yields the default.
func ParseAspectRatio(s string) (AspectRatio, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultAspectRatio, nil
	}
	for _, r := range AspectRatios {
		if strings.EqualFold(s, string(r)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unsupported aspect ratio %q", s)
}
