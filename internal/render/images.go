package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"
)

// A4 page size in millimetres
const (
	a4Width  = 210.0
	a4Height = 297.0
)

// a4Pixels returns the A4 page size in pixels at dpi
func a4Pixels(dpi int) (int, int) {
	return int(a4Width * float64(dpi) / 25.4), int(a4Height * float64(dpi) / 25.4)
}

// fitSize scales w x h down to fit maxW x maxH keeping the aspect ratio.
// Images that already fit are left alone.
func fitSize(w, h, maxW, maxH int) (int, int) {
	if maxW <= 0 || maxH <= 0 || (w <= maxW && h <= maxH) {
		return w, h
	}
	scale := float64(maxW) / float64(w)
	if s := float64(maxH) / float64(h); s < scale {
		scale = s
	}
	nw, nh := int(float64(w)*scale), int(float64(h)*scale)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}

// encodeJPEG decodes an image file, flattens it onto white, optionally
// downscales it to fit maxW x maxH and re-encodes it as JPEG
func encodeJPEG(path string, quality, maxW, maxH int) ([]byte, image.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, image.Point{}, err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, image.Point{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	b := src.Bounds()
	w, h := fitSize(b.Dx(), b.Dy(), maxW, maxH)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, image.Point{}, err
	}
	return buf.Bytes(), image.Pt(w, h), nil
}
