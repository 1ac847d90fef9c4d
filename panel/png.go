package panel

import (
	"fmt"
	"image"
	"image/png"
	"io"

	"golang.org/x/image/draw"
)

// WritePNG encodes img as PNG, each pixel enlarged to a scale×scale square.
func WritePNG(w io.Writer, img image.Image, scale int) error {
	if scale < 1 {
		return fmt.Errorf("panel: invalid scale %d", scale)
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return png.Encode(w, dst)
}
