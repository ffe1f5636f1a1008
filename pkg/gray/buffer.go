package gray

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// ErrShapeMismatch is returned when two buffers that must share dimensions do not
var ErrShapeMismatch = errors.New("shape mismatch")

// Buffer is a single-channel 8-bit intensity image
type Buffer struct {
	Rows int
	Cols int

	// Pixel data (row-major order)
	Pix []uint8
}

// New creates a zero-filled Buffer with the specified dimensions
func New(rows, cols int) *Buffer {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	return &Buffer{
		Rows: rows,
		Cols: cols,
		Pix:  make([]uint8, rows*cols),
	}
}

// FromPix creates a Buffer over a copy of pix, which must hold rows*cols samples
func FromPix(rows, cols int, pix []uint8) (*Buffer, error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("invalid dimensions: %dx%d", rows, cols)
	}
	if len(pix) != rows*cols {
		return nil, fmt.Errorf("pixel count %d does not match %dx%d", len(pix), rows, cols)
	}
	b := New(rows, cols)
	copy(b.Pix, pix)
	return b, nil
}

// FromRows builds a Buffer from a slice of equally sized rows
func FromRows(rows [][]uint8) (*Buffer, error) {
	if len(rows) == 0 {
		return New(0, 0), nil
	}
	cols := len(rows[0])
	b := New(len(rows), cols)
	for y, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d columns, expected %d", y, len(row), cols)
		}
		copy(b.Pix[y*cols:], row)
	}
	return b, nil
}

// FromImage converts any image to luma using the ITU-R 601 weights of color.GrayModel.
// *image.Gray input is copied without conversion.
func FromImage(img image.Image) *Buffer {
	bounds := img.Bounds()
	b := New(bounds.Dy(), bounds.Dx())
	if g, ok := img.(*image.Gray); ok {
		for y := 0; y < b.Rows; y++ {
			start := g.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(b.Pix[y*b.Cols:(y+1)*b.Cols], g.Pix[start:start+b.Cols])
		}
		return b
	}
	for y := 0; y < b.Rows; y++ {
		for x := 0; x < b.Cols; x++ {
			c := color.GrayModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			b.Pix[y*b.Cols+x] = c.Y
		}
	}
	return b
}

// Image returns a copy of the buffer as an *image.Gray
func (b *Buffer) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, b.Cols, b.Rows))
	copy(img.Pix, b.Pix)
	return img
}

// Len returns the number of pixels
func (b *Buffer) Len() int {
	return len(b.Pix)
}

// Empty reports whether the buffer holds no pixels
func (b *Buffer) Empty() bool {
	return len(b.Pix) == 0
}

// At returns the sample at (x, y), or 0 outside the buffer
func (b *Buffer) At(x, y int) uint8 {
	if x < 0 || x >= b.Cols || y < 0 || y >= b.Rows {
		return 0
	}
	return b.Pix[y*b.Cols+x]
}

// Clone returns a deep copy
func (b *Buffer) Clone() *Buffer {
	c := New(b.Rows, b.Cols)
	copy(c.Pix, b.Pix)
	return c
}

// SameShape reports whether both buffers have the same dimensions
func (b *Buffer) SameShape(o *Buffer) bool {
	return b.Rows == o.Rows && b.Cols == o.Cols
}

// CheckShape returns ErrShapeMismatch, wrapped with both shapes, when a and b differ
func CheckShape(a, b *Buffer) error {
	if a == nil || b == nil {
		return fmt.Errorf("%w: nil buffer", ErrShapeMismatch)
	}
	if !a.SameShape(b) {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrShapeMismatch, a.Rows, a.Cols, b.Rows, b.Cols)
	}
	return nil
}

// MinMax returns the minimum and maximum sample values
func (b *Buffer) MinMax() (min, max uint8) {
	if len(b.Pix) == 0 {
		return 0, 0
	}
	min, max = b.Pix[0], b.Pix[0]
	for _, v := range b.Pix {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return
}

func (b *Buffer) String() string {
	return fmt.Sprintf("%dx%d", b.Rows, b.Cols)
}
