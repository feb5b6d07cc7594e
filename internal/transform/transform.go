// Package transform produces derived thumbnail representations of raw image
// bytes. It is a pure transform: no I/O beyond its inputs and outputs.
package transform

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	"image/jpeg"
	_ "image/png" // register PNG decoder

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const thumbnailJPEGQuality = 85

// Thumbnail is a derived representation plus its metadata.
type Thumbnail struct {
	Bytes       []byte
	ContentType string
	Width       int
	Height      int
}

// MakeThumbnail decodes src and scales it down to fit within maxWidth x
// maxHeight, preserving aspect ratio. Images already inside the box are
// re-encoded without scaling. The result is always JPEG.
func MakeThumbnail(src []byte, maxWidth, maxHeight int) (*Thumbnail, error) {
	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	thumb := imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)
	bounds := thumb.Bounds()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: thumbnailJPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}

	return &Thumbnail{
		Bytes:       buf.Bytes(),
		ContentType: "image/jpeg",
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
	}, nil
}
