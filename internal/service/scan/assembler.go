package scan

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/go-pdf/fpdf"
)

const (
	// MaxPageWidth bounds the width of every page image in pixels.
	MaxPageWidth = 1600
	// JPEGQuality is used when recompressing pages.
	JPEGQuality = 75
	// MaxPages caps one capture.
	MaxPages = 30

	pageMargin = 18.0
)

// ErrNoPages is returned when a capture holds no images.
var ErrNoPages = errors.New("scan has no pages")

type page struct {
	jpeg   []byte
	width  int
	height int
}

// Assemble downscales every page and binds them into one PDF in the order
// given.
func Assemble(pages [][]byte) ([]byte, error) {
	if len(pages) == 0 {
		return nil, ErrNoPages
	}
	if len(pages) > MaxPages {
		return nil, fmt.Errorf("scan has %d pages, at most %d are allowed", len(pages), MaxPages)
	}

	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)
	pageW, pageH := pdf.GetPageSize()
	opts := fpdf.ImageOptions{ImageType: "JPG"}

	for i, raw := range pages {
		p, err := downscale(raw)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}

		name := fmt.Sprintf("page-%d", i+1)
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(p.jpeg))

		w, h := fit(float64(p.width), float64(p.height), pageW-2*pageMargin, pageH-2*pageMargin)
		pdf.AddPage()
		pdf.ImageOptions(name, (pageW-w)/2, (pageH-h)/2, w, h, false, opts, 0, "")
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("assemble pdf: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// downscale decodes one captured image, honours EXIF orientation, shrinks it
// to MaxPageWidth and recompresses it as JPEG.
func downscale(raw []byte) (page, error) {
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return page{}, fmt.Errorf("decode image: %w", err)
	}

	if img.Bounds().Dx() > MaxPageWidth {
		img = imaging.Resize(img, MaxPageWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return page{}, fmt.Errorf("encode jpeg: %w", err)
	}

	b := img.Bounds()
	return page{jpeg: buf.Bytes(), width: b.Dx(), height: b.Dy()}, nil
}

// fit scales w x h to fit inside maxW x maxH, keeping the aspect ratio.
func fit(w, h, maxW, maxH float64) (float64, float64) {
	scale := maxW / w
	if h*scale > maxH {
		scale = maxH / h
	}
	return w * scale, h * scale
}
