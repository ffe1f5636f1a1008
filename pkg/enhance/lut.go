package enhance

import (
	"math"

	"github.com/jpfielding/histeq.go/pkg/gray"
)

// LUT maps every input intensity level to an output level
type LUT [gray.Levels]uint8

// Identity returns the LUT that maps every level to itself
func Identity() LUT {
	var l LUT
	for i := range l {
		l[i] = uint8(i)
	}
	return l
}

// Apply writes every pixel of b through the table into a new buffer of the same shape
func (l LUT) Apply(b *gray.Buffer) *gray.Buffer {
	out := gray.New(b.Rows, b.Cols)
	for i, v := range b.Pix {
		out.Pix[i] = l[v]
	}
	return out
}

// saturate rounds half away from zero and clamps to [0,255]; NaN maps to 0
func saturate(v float64) uint8 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(math.Round(v))
}
