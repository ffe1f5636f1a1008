package enhance

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jpfielding/histeq.go/pkg/gray"
)

// ErrInvalidOptions is returned for a non-positive clip limit or tile grid
var ErrInvalidOptions = errors.New("invalid CLAHE options")

const (
	// maxClipRounds bounds clip redistribution; a clip limit below the mean bin
	// count can never be satisfied and would otherwise loop forever
	maxClipRounds = 16
	// clipTolerance is the excess, in pixels, treated as fully redistributed
	clipTolerance = 0.5
)

// CLAHEOptions configures contrast limited adaptive histogram equalization
type CLAHEOptions struct {
	// ClipLimit is a multiple of the mean bin count of a tile; +Inf disables clipping
	ClipLimit float64 `json:"clip_limit"`
	TileRows  int     `json:"tile_rows"`
	TileCols  int     `json:"tile_cols"`
}

// DefaultCLAHEOptions returns a clip limit of 2.0 over an 8x8 grid
func DefaultCLAHEOptions() CLAHEOptions {
	return CLAHEOptions{
		ClipLimit: 2.0,
		TileRows:  8,
		TileCols:  8,
	}
}

// Validate checks the clip limit and grid dimensions
func (o CLAHEOptions) Validate() error {
	if math.IsNaN(o.ClipLimit) || o.ClipLimit <= 0 {
		return fmt.Errorf("%w: clip limit must be positive, got %v", ErrInvalidOptions, o.ClipLimit)
	}
	if o.TileRows <= 0 || o.TileCols <= 0 {
		return fmt.Errorf("%w: tile grid must be positive, got %dx%d", ErrInvalidOptions, o.TileRows, o.TileCols)
	}
	return nil
}

func (o CLAHEOptions) String() string {
	return fmt.Sprintf("clipLimit=%g tileGridSize=%dx%d", o.ClipLimit, o.TileRows, o.TileCols)
}

// claheJSON carries the clip limit as a number or the string "inf"
type claheJSON struct {
	ClipLimit json.RawMessage `json:"clip_limit"`
	TileRows  int             `json:"tile_rows"`
	TileCols  int             `json:"tile_cols"`
}

// MarshalJSON writes an unlimited clip limit as "inf"
func (o CLAHEOptions) MarshalJSON() ([]byte, error) {
	clip := []byte(`"inf"`)
	if !math.IsInf(o.ClipLimit, 1) {
		var err error
		if clip, err = json.Marshal(o.ClipLimit); err != nil {
			return nil, err
		}
	}
	return json.Marshal(claheJSON{ClipLimit: clip, TileRows: o.TileRows, TileCols: o.TileCols})
}

// UnmarshalJSON reads the clip limit as a number or "inf"
func (o *CLAHEOptions) UnmarshalJSON(data []byte) error {
	var raw claheJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	clip := 0.0
	switch {
	case len(raw.ClipLimit) == 0:
	case raw.ClipLimit[0] == '"':
		var str string
		if err := json.Unmarshal(raw.ClipLimit, &str); err != nil {
			return err
		}
		if str != "inf" {
			return fmt.Errorf("%w: clip limit %q", ErrInvalidOptions, str)
		}
		clip = math.Inf(1)
	default:
		if err := json.Unmarshal(raw.ClipLimit, &clip); err != nil {
			return err
		}
	}
	*o = CLAHEOptions{ClipLimit: clip, TileRows: raw.TileRows, TileCols: raw.TileCols}
	return nil
}

// ParseGrid parses a tile grid written as "RxC" (or a single "N" for NxN)
func ParseGrid(s string) (rows, cols int, err error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "x")
	if len(parts) == 1 {
		parts = append(parts, parts[0])
	}
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: tile grid %q, expected RxC", ErrInvalidOptions, s)
	}
	if rows, err = strconv.Atoi(strings.TrimSpace(parts[0])); err != nil {
		return 0, 0, fmt.Errorf("%w: tile rows %q: %v", ErrInvalidOptions, parts[0], err)
	}
	if cols, err = strconv.Atoi(strings.TrimSpace(parts[1])); err != nil {
		return 0, 0, fmt.Errorf("%w: tile cols %q: %v", ErrInvalidOptions, parts[1], err)
	}
	if rows <= 0 || cols <= 0 {
		return 0, 0, fmt.Errorf("%w: tile grid must be positive, got %dx%d", ErrInvalidOptions, rows, cols)
	}
	return rows, cols, nil
}

// CLAHE performs contrast limited adaptive histogram equalization.
//
// The buffer is split into a TileRows x TileCols grid, the last row and column
// of tiles absorbing any remainder. The grid shrinks to the image size when the
// image has fewer pixels than tiles along an axis. Each tile histogram is clipped
// at ClipLimit times its mean bin count, the excess spread evenly over all bins,
// and equalized into a tile LUT. Every output pixel is bilinearly interpolated
// from the LUTs of the four nearest tile centres; pixels outside the outermost
// centres use the nearest tile without interpolation.
//
// Example:
//
//	out, err := enhance.CLAHE(img, enhance.DefaultCLAHEOptions())
//	if err != nil {
//		return err
//	}
func CLAHE(b *gray.Buffer, opts CLAHEOptions) (*gray.Buffer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if b.Empty() {
		return gray.New(b.Rows, b.Cols), nil
	}

	tilesY := min(opts.TileRows, b.Rows)
	tilesX := min(opts.TileCols, b.Cols)
	rowEdges := tileEdges(b.Rows, tilesY)
	colEdges := tileEdges(b.Cols, tilesX)

	luts := make([]LUT, tilesY*tilesX)
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			x0, x1 := colEdges[tx], colEdges[tx+1]
			y0, y1 := rowEdges[ty], rowEdges[ty+1]
			h := b.Region(x0, y0, x1, y1)
			luts[ty*tilesX+tx] = clippedLUT(h, (x1-x0)*(y1-y0), opts.ClipLimit)
		}
	}

	rows := interpolationSpans(rowEdges)
	cols := interpolationSpans(colEdges)
	out := gray.New(b.Rows, b.Cols)
	for y := 0; y < b.Rows; y++ {
		ry := rows[y]
		top := luts[ry.lo*tilesX : (ry.lo+1)*tilesX]
		bot := luts[ry.hi*tilesX : (ry.hi+1)*tilesX]
		for x := 0; x < b.Cols; x++ {
			cx := cols[x]
			v := b.Pix[y*b.Cols+x]
			upper := lerp(float64(top[cx.lo][v]), float64(top[cx.hi][v]), cx.w)
			lower := lerp(float64(bot[cx.lo][v]), float64(bot[cx.hi][v]), cx.w)
			out.Pix[y*b.Cols+x] = saturate(lerp(upper, lower, ry.w))
		}
	}
	return out, nil
}

// tileEdges returns tiles+1 boundaries over n pixels; the last tile takes the remainder
func tileEdges(n, tiles int) []int {
	size := n / tiles
	edges := make([]int, tiles+1)
	for i := 0; i < tiles; i++ {
		edges[i] = i * size
	}
	edges[tiles] = n
	return edges
}

// span names the two tiles a pixel interpolates between and the weight of hi
type span struct {
	lo, hi int
	w      float64
}

// interpolationSpans computes, for every pixel along one axis, the neighbouring
// tile centres and the distance weight between them
func interpolationSpans(edges []int) []span {
	tiles := len(edges) - 1
	n := edges[tiles]
	centers := make([]float64, tiles)
	for i := range centers {
		centers[i] = float64(edges[i]+edges[i+1]) / 2
	}

	spans := make([]span, n)
	i := 0
	for x := 0; x < n; x++ {
		p := float64(x) + 0.5
		switch {
		case p <= centers[0]:
			spans[x] = span{lo: 0, hi: 0}
		case p >= centers[tiles-1]:
			spans[x] = span{lo: tiles - 1, hi: tiles - 1}
		default:
			for centers[i+1] <= p {
				i++
			}
			spans[x] = span{lo: i, hi: i + 1, w: (p - centers[i]) / (centers[i+1] - centers[i])}
		}
	}
	return spans
}

// clippedLUT clips a tile histogram and turns its CDF into a LUT scaled to 255
func clippedLUT(h gray.Histogram, area int, clipLimit float64) LUT {
	var bins [gray.Levels]float64
	for i, c := range h {
		bins[i] = float64(c)
	}
	limit := clipLimit * float64(area) / gray.Levels
	if !math.IsInf(limit, 1) {
		clipHistogram(&bins, limit)
	}

	var lut LUT
	var cdf float64
	for v, c := range bins {
		cdf += c
		lut[v] = saturate(255 * cdf / float64(area))
	}
	return lut
}

// clipHistogram cuts every bin to limit and spreads the excess evenly over all
// bins, repeating while redistribution pushes bins back over the limit
func clipHistogram(bins *[gray.Levels]float64, limit float64) {
	for round := 0; round < maxClipRounds; round++ {
		var excess float64
		for i, c := range bins {
			if c > limit {
				excess += c - limit
				bins[i] = limit
			}
		}
		if excess == 0 {
			return
		}
		add := excess / gray.Levels
		for i := range bins {
			bins[i] += add
		}
		if excess < clipTolerance {
			return
		}
	}
}

func lerp(a, b, w float64) float64 {
	return a + (b-a)*w
}
