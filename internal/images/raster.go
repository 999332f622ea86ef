package images

import (
	"bytes"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	_ "golang.org/x/image/webp"
)

// MaxDimension bounds the pixel size of a normalized image on either
// axis. Larger images are scaled down preserving aspect ratio.
const MaxDimension = 2048

// defaultSVGSize is used when an SVG has no usable viewBox.
const defaultSVGSize = 256

// Image is a resolved raster image normalized to PNG.
type Image struct {
	Data   []byte
	Width  int // pixels
	Height int
	Source string // decoded source format, e.g. "jpeg" or "svg"
}

// Ext is the file extension of Data.
func (img *Image) Ext() string { return "png" }

// AspectHeight returns the height matching width at the image's aspect
// ratio, in the same unit as width.
func (img *Image) AspectHeight(width float64) float64 {
	if img.Width <= 0 {
		return width
	}
	return width * float64(img.Height) / float64(img.Width)
}

// Normalize decodes raster or SVG bytes and re-encodes them as PNG.
// hint is a file extension or content type used to recognise SVG when
// sniffing is inconclusive.
func Normalize(data []byte, hint string) (*Image, error) {
	var (
		img    image.Image
		source string
		err    error
	)
	if isSVG(data, hint) {
		img, err = rasterizeSVG(data)
		source = "svg"
	} else {
		_, source, err = image.DecodeConfig(bytes.NewReader(data))
		if err == nil {
			img, err = imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
		}
	}
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := img.Bounds()
	if b.Dx() > MaxDimension || b.Dy() > MaxDimension {
		img = imaging.Fit(img, MaxDimension, MaxDimension, imaging.Lanczos)
		b = img.Bounds()
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return &Image{Data: buf.Bytes(), Width: b.Dx(), Height: b.Dy(), Source: source}, nil
}

func isSVG(data []byte, hint string) bool {
	switch hint {
	case ".svg", "image/svg+xml":
		return true
	}
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	head = bytes.TrimSpace(head)
	return bytes.HasPrefix(head, []byte("<svg")) ||
		(bytes.HasPrefix(head, []byte("<?xml")) && bytes.Contains(head, []byte("<svg")))
}

func rasterizeSVG(data []byte) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}
	w, h := icon.ViewBox.W, icon.ViewBox.H
	if w <= 0 || h <= 0 || math.IsNaN(w) || math.IsNaN(h) {
		w, h = defaultSVGSize, defaultSVGSize
	}
	if scale := float64(MaxDimension) / math.Max(w, h); scale < 1 {
		w, h = w*scale, h*scale
	}
	iw, ih := int(math.Ceil(w)), int(math.Ceil(h))

	icon.SetTarget(0, 0, float64(iw), float64(ih))
	rgba := image.NewRGBA(image.Rect(0, 0, iw, ih))
	scanner := rasterx.NewScannerGV(iw, ih, rgba, rgba.Bounds())
	icon.Draw(rasterx.NewDasher(iw, ih, scanner), 1)
	return rgba, nil
}
