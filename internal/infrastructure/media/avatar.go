// Package media holds image processing for uploaded account media.
package media

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

const defaultQuality = 85

// AvatarProcessor crops uploads to a centered square and re-encodes them as JPEG.
type AvatarProcessor struct {
	size    int
	quality int
}

func NewAvatarProcessor(size, quality int) *AvatarProcessor {
	if quality <= 0 || quality > 100 {
		quality = defaultQuality
	}
	return &AvatarProcessor{size: size, quality: quality}
}

// Process decodes r, honouring EXIF orientation, and returns the encoded avatar.
func (p *AvatarProcessor) Process(r io.Reader) ([]byte, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	var out image.Image = img
	if p.size > 0 {
		out = imaging.Fill(img, p.size, p.size, imaging.Center, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(p.quality)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}

func (p *AvatarProcessor) ContentType() string { return "image/jpeg" }

func (p *AvatarProcessor) Extension() string { return ".jpg" }
