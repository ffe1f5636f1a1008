package gray

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRows(t *testing.T) {
	b, err := FromRows([][]uint8{{10, 20, 30}, {40, 50, 60}})
	require.NoError(t, err)
	assert.Equal(t, 2, b.Rows)
	assert.Equal(t, 3, b.Cols)
	assert.Equal(t, []uint8{10, 20, 30, 40, 50, 60}, b.Pix)
	assert.Equal(t, uint8(60), b.At(2, 1))
	assert.Equal(t, uint8(0), b.At(3, 1), "outside the buffer")

	_, err = FromRows([][]uint8{{1, 2}, {3}})
	assert.Error(t, err)
}

func TestFromPix(t *testing.T) {
	pix := []uint8{1, 2, 3, 4}
	b, err := FromPix(2, 2, pix)
	require.NoError(t, err)
	pix[0] = 99
	assert.Equal(t, uint8(1), b.Pix[0], "buffer must not alias its input")

	_, err = FromPix(3, 2, pix)
	assert.Error(t, err)
	_, err = FromPix(-1, 2, nil)
	assert.Error(t, err)
}

func TestFromImage(t *testing.T) {
	t.Run("gray sub image", func(t *testing.T) {
		img := image.NewGray(image.Rect(0, 0, 4, 4))
		for i := range img.Pix {
			img.Pix[i] = uint8(i)
		}
		sub := img.SubImage(image.Rect(1, 1, 3, 4)).(*image.Gray)
		b := FromImage(sub)
		assert.Equal(t, 3, b.Rows)
		assert.Equal(t, 2, b.Cols)
		assert.Equal(t, []uint8{5, 6, 9, 10, 13, 14}, b.Pix)
	})

	t.Run("rgba to luma", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 2, 1))
		img.Set(0, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		img.Set(1, 0, color.RGBA{R: 0, G: 0, B: 0, A: 255})
		b := FromImage(img)
		assert.Equal(t, []uint8{255, 0}, b.Pix)
	})

	t.Run("round trip", func(t *testing.T) {
		b, err := FromRows([][]uint8{{0, 128}, {200, 255}})
		require.NoError(t, err)
		assert.Equal(t, b.Pix, FromImage(b.Image()).Pix)
	})
}

func TestCheckShape(t *testing.T) {
	a := New(2, 3)
	assert.NoError(t, CheckShape(a, New(2, 3)))

	err := CheckShape(a, New(3, 2))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrShapeMismatch))
	assert.Contains(t, err.Error(), "2x3 vs 3x2")

	assert.ErrorIs(t, CheckShape(a, nil), ErrShapeMismatch)
}

func TestMinMax(t *testing.T) {
	b, _ := FromRows([][]uint8{{7, 3}, {250, 9}})
	min, max := b.MinMax()
	assert.Equal(t, uint8(3), min)
	assert.Equal(t, uint8(250), max)

	min, max = New(0, 0).MinMax()
	assert.Zero(t, min)
	assert.Zero(t, max)
}

func TestHistogramAndCDF(t *testing.T) {
	b, err := FromRows([][]uint8{{10, 20, 30}, {40, 50, 60}, {70, 80, 90}})
	require.NoError(t, err)

	h := HistogramOf(b)
	assert.Equal(t, b.Len(), h.Total())
	assert.Equal(t, 1, h[10])
	assert.Equal(t, 0, h[11])

	cdf := h.CDF()
	assert.Equal(t, 9, cdf.Total())
	assert.Equal(t, 1, cdf[10])
	assert.Equal(t, 5, cdf[50])
	for i := 1; i < Levels; i++ {
		assert.GreaterOrEqual(t, cdf[i], cdf[i-1], "cdf must be monotone at %d", i)
	}
	assert.Equal(t, 50, cdf.Percentile(0.5))
}

func TestHistogramEmpty(t *testing.T) {
	h := HistogramOf(New(0, 5))
	assert.Zero(t, h.Total())
	cdf := h.CDF()
	assert.Zero(t, cdf.Total())
	assert.Equal(t, 0, cdf.Percentile(0.5))
}

func TestRegion(t *testing.T) {
	b, _ := FromRows([][]uint8{{1, 2, 3}, {4, 5, 6}})
	h := b.Region(1, 0, 3, 2)
	assert.Equal(t, 4, h.Total())
	assert.Equal(t, 0, h[1])
	assert.Equal(t, 1, h[6])

	h = b.Region(-5, -5, 50, 50)
	assert.Equal(t, 6, h.Total(), "region is clamped to the buffer")

	h = b.Region(2, 0, 1, 2)
	assert.Zero(t, h.Total())
}

func TestSub(t *testing.T) {
	var h Histogram
	for i := range h {
		h[i] = 1
	}
	s := h.Sub(100, 200)
	assert.Equal(t, 100, s.Total())
	assert.Equal(t, 0, s[99])
	assert.Equal(t, 1, s[100])
	assert.Equal(t, 0, s[200])
}
