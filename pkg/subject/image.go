package subject

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ImageFormat is the content type of a radical character image.
type ImageFormat string

const (
	FormatSVG ImageFormat = "svg"
	FormatPNG ImageFormat = "png"
)

// CharacterImage is one rendering of a radical. InlineStyles is only
// meaningful for SVG images; Dimensions, Color and StyleName only for PNG.
type CharacterImage struct {
	URL          string      `json:"url"`
	Format       ImageFormat `json:"format"`
	InlineStyles bool        `json:"inline_styles,omitempty"`
	Dimensions   string      `json:"dimensions,omitempty"`
	Color        string      `json:"color,omitempty"`
	StyleName    string      `json:"style_name,omitempty"`
}

// ErrMalformedDimensions is returned by ParseDimensions for anything that is
// not "<width>x<height>".
var ErrMalformedDimensions = errors.New("malformed image dimensions")

// ParseDimensions parses a PNG dimension string such as "1024x1024". Each
// side must be unsigned decimal digits that fit in 32 bits.
func ParseDimensions(s string) (width, height uint32, err error) {
	w, h, ok := strings.Cut(s, "x")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedDimensions, s)
	}
	wv, err := strconv.ParseUint(w, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedDimensions, s)
	}
	hv, err := strconv.ParseUint(h, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedDimensions, s)
	}
	return uint32(wv), uint32(hv), nil
}

// SelectImage picks the representative image URL for a radical.
//
// An SVG with inline styles wins outright (first one in list order).
// Otherwise the PNG with the largest area is used, ties going to the
// earliest. PNGs whose dimensions cannot be parsed are skipped.
func SelectImage(images []CharacterImage) (string, bool) {
	for _, img := range images {
		if img.Format == FormatSVG && img.InlineStyles {
			return img.URL, true
		}
	}

	best := -1
	var bestArea uint64
	for i, img := range images {
		if img.Format != FormatPNG {
			continue
		}
		w, h, err := ParseDimensions(img.Dimensions)
		if err != nil {
			continue
		}
		if area := uint64(w) * uint64(h); best < 0 || area > bestArea {
			best, bestArea = i, area
		}
	}
	if best < 0 {
		return "", false
	}
	return images[best].URL, true
}
