// Package render turns decoded frames into what the interactive windows show:
// the frame scaled to display size, with boxes drawn over it.
package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/sweeplabel/pkg/sweep"
	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
)

var (
	// Boxes on a frame that will be exported
	ColorExported = color.RGBA{255, 255, 255, 255}
	// Boxes on any other frame, and boxes under review
	ColorPreview = color.RGBA{255, 255, 0, 255}
)

const LineWidth = 2

// ToRGBA converts a 1, 3 or 4 channel image into an image.RGBA.
// 3 channel images are assumed to be RGB.
func ToRGBA(img *cimg.Image) (*image.RGBA, error) {
	nchan := img.NChan()
	if nchan != 1 && nchan != 3 && nchan != 4 {
		return nil, fmt.Errorf("Unsupported number of channels: %v", nchan)
	}
	dst := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		src := img.Pixels[y*img.Stride : y*img.Stride+img.Width*nchan]
		out := dst.Pix[y*dst.Stride : y*dst.Stride+img.Width*4]
		for x := 0; x < img.Width; x++ {
			switch nchan {
			case 1:
				v := src[x]
				out[x*4], out[x*4+1], out[x*4+2] = v, v, v
			case 3:
				out[x*4], out[x*4+1], out[x*4+2] = src[x*3], src[x*3+1], src[x*3+2]
			case 4:
				out[x*4], out[x*4+1], out[x*4+2] = src[x*4], src[x*4+1], src[x*4+2]
			}
			out[x*4+3] = 255
		}
	}
	return dst, nil
}

// Frame scales the frame to the display size and draws the boxes on top.
// Boxes must already be in display space.
func Frame(img *cimg.Image, display sweep.Size, boxes []sweep.ProjectedRectangle, c color.Color) (*image.RGBA, error) {
	src, err := ToRGBA(img)
	if err != nil {
		return nil, err
	}
	dst := src
	if display.Width != img.Width || display.Height != img.Height {
		dst = image.NewRGBA(image.Rect(0, 0, display.Width, display.Height))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	}
	if err := DrawBoxes(dst, boxes, c); err != nil {
		return nil, err
	}
	return dst, nil
}

// DrawBoxes outlines every box. Source-space boxes are rejected, because
// drawing them on a scaled frame would put them in the wrong place.
func DrawBoxes(dst *image.RGBA, boxes []sweep.ProjectedRectangle, c color.Color) error {
	for _, b := range boxes {
		if b.Space != sweep.SpaceDisplay {
			return fmt.Errorf("Cannot draw a box in %v space", b.Space)
		}
	}
	if len(boxes) == 0 {
		return nil
	}
	dc := gg.NewContextForRGBA(dst)
	dc.SetColor(c)
	dc.SetLineWidth(LineWidth)
	for _, b := range boxes {
		dc.DrawRectangle(float64(b.Left), float64(b.Top), float64(b.Right-b.Left), float64(b.Bottom-b.Top))
		dc.Stroke()
	}
	return nil
}

// ToBGR packs an image into 3 channel BGR, which is what OpenCV wants
func ToBGR(img *image.RGBA) []byte {
	b := img.Bounds()
	out := make([]byte, b.Dx()*b.Dy()*3)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			out[i] = row[x*4+2]
			out[i+1] = row[x*4+1]
			out[i+2] = row[x*4]
			i += 3
		}
	}
	return out
}
