package stubserver

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"golang.org/x/image/draw"
)

// Embedding geometry of the toy encoder: frames are collapsed onto a small
// luminance grid and normalized to unit length, so cosine distance behaves
// like a crude appearance similarity.
const (
	encodeCols = 16
	encodeRows = 12
	encodeDims = encodeCols * encodeRows
)

// encodeFace turns an uploaded frame into an embedding vector. Returns an
// error when the bytes do not decode as an image, which the handlers report
// as "no face detected".
func encodeFace(frame []byte) ([]float32, error) {
	img, _, err := image.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, fmt.Errorf("could not decode frame: %w", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("frame has no pixels")
	}

	grid := image.NewRGBA(image.Rect(0, 0, encodeCols, encodeRows))
	draw.CatmullRom.Scale(grid, grid.Bounds(), img, bounds, draw.Src, nil)

	vec := make([]float32, 0, encodeDims)
	var norm float64
	for y := 0; y < encodeRows; y++ {
		for x := 0; x < encodeCols; x++ {
			r, g, b, _ := grid.At(x, y).RGBA()
			// Rec. 601 luma on 16-bit channel values.
			luma := float32(0.299*float64(r)+0.587*float64(g)+0.114*float64(b)) / 65535
			vec = append(vec, luma)
			norm += float64(luma) * float64(luma)
		}
	}

	if norm == 0 {
		return nil, fmt.Errorf("frame is entirely black")
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}

// embeddingDistance is the cosine distance between two unit vectors.
func embeddingDistance(a, b []float32) float64 {
	if len(a) != len(b) {
		return 1
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return 1 - dot
}
