//go:build opencv

package signimage

import (
	"fmt"
	"image"

	"media-assist/domain/sign"

	"gocv.io/x/gocv"
)

// Processor decodes images with OpenCV, scales them down to a fixed width
// and re-encodes them as PNG
type Processor struct {
	next  sign.ImageLookup
	width int
}

// NewProcessor wraps a lookup. A width of zero keeps the original size.
func NewProcessor(next sign.ImageLookup, width int) *Processor {
	return &Processor{next: next, width: width}
}

func withProcessing(next sign.ImageLookup, width int) sign.ImageLookup {
	return NewProcessor(next, width)
}

// Lookup implements sign.ImageLookup
func (p *Processor) Lookup(letter rune) (sign.Image, error) {
	img, err := p.next.Lookup(letter)
	if err != nil {
		return sign.Image{}, err
	}

	mat, err := gocv.IMDecode(img.Data, gocv.IMReadColor)
	if err != nil {
		return sign.Image{}, fmt.Errorf("failed to decode image for %c: %w", img.Letter, err)
	}
	defer mat.Close()
	if mat.Empty() {
		return sign.Image{}, fmt.Errorf("failed to decode image for %c", img.Letter)
	}

	out := mat
	if p.width > 0 && mat.Cols() > p.width {
		resized := gocv.NewMat()
		defer resized.Close()
		height := mat.Rows() * p.width / mat.Cols()
		gocv.Resize(mat, &resized, image.Pt(p.width, height), 0, 0, gocv.InterpolationArea)
		out = resized
	}

	data, err := gocv.IMEncode(gocv.PNGFileExt, out)
	if err != nil {
		return sign.Image{}, fmt.Errorf("failed to encode image for %c: %w", img.Letter, err)
	}

	return sign.Image{Letter: img.Letter, Data: data, ContentType: "image/png"}, nil
}

// Ensure Processor implements sign.ImageLookup
var _ sign.ImageLookup = (*Processor)(nil)
