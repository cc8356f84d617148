package services

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Rendition describes a derived image size. Width is mandatory; a Rendition
// with Crop set is center-cropped square before scaling, otherwise height
// follows the source aspect ratio.
type Rendition struct {
	Name   string
	Width  int
	Height int
	Crop   bool
}

// DefaultRenditions matches the admin display sizes: a square thumbnail plus
// two width-constrained variants.
var DefaultRenditions = []Rendition{
	{Name: "thumbnail", Width: 300, Height: 300, Crop: true},
	{Name: "medium", Width: 768},
	{Name: "large", Width: 1200},
}

// BuildRenditions decodes raw and produces a JPEG payload per rendition.
// Renditions wider than the source are skipped rather than upscaled. A decode
// failure returns an error; the caller treats renditions as best-effort.
func BuildRenditions(raw []byte, renditions []Rendition) (map[string][]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	out := make(map[string][]byte, len(renditions))
	for _, r := range renditions {
		if r.Width <= 0 {
			continue
		}
		scaled := scaleRendition(src, r)
		if scaled == nil {
			continue
		}
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: 85}); err != nil {
			return nil, fmt.Errorf("encode rendition %s: %w", r.Name, err)
		}
		out[r.Name] = buf.Bytes()
	}
	return out, nil
}

func scaleRendition(src image.Image, r Rendition) image.Image {
	bounds := src.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()
	if srcW == 0 || srcH == 0 {
		return nil
	}

	if r.Crop {
		side := srcW
		if srcH < srcW {
			side = srcH
		}
		x0 := bounds.Min.X + (srcW-side)/2
		y0 := bounds.Min.Y + (srcH-side)/2

		cropRect := image.Rect(0, 0, side, side)
		cropped := image.NewRGBA(cropRect)
		draw.Draw(cropped, cropRect, src, image.Point{X: x0, Y: y0}, draw.Src)

		dst := image.NewRGBA(image.Rect(0, 0, r.Width, r.Width))
		draw.CatmullRom.Scale(dst, dst.Bounds(), cropped, cropped.Bounds(), draw.Over, nil)
		return dst
	}

	if srcW <= r.Width {
		return nil
	}
	height := srcH * r.Width / srcW
	if height == 0 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, r.Width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}
