package metric

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"

	"github.com/jpfielding/histeq.go/pkg/gray"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRows(t *testing.T, rows [][]uint8) *gray.Buffer {
	b, err := gray.FromRows(rows)
	require.NoError(t, err)
	return b
}

func original3x3(t *testing.T) *gray.Buffer {
	return mustRows(t, [][]uint8{{10, 20, 30}, {40, 50, 60}, {70, 80, 90}})
}

func brightened3x3(t *testing.T) *gray.Buffer {
	return mustRows(t, [][]uint8{{20, 30, 40}, {50, 60, 70}, {80, 90, 100}})
}

func noise(rows, cols int, seed uint64) *gray.Buffer {
	r := rand.New(rand.NewSource(int64(seed)))
	b := gray.New(rows, cols)
	for i := range b.Pix {
		b.Pix[i] = uint8(r.Intn(256))
	}
	return b
}

func TestAMBE(t *testing.T) {
	o := original3x3(t)

	ambe, err := AMBE(o, o.Clone())
	require.NoError(t, err)
	assert.Equal(t, 0.0, ambe, "identical buffers have no brightness error")

	ambe, err = AMBE(o, brightened3x3(t))
	require.NoError(t, err)
	assert.InDelta(t, 10.0, ambe, 1e-9)

	ambe, err = AMBE(brightened3x3(t), o)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, ambe, 1e-9, "AMBE is symmetric")

	ambe, err = AMBE(gray.New(0, 0), gray.New(0, 0))
	require.NoError(t, err)
	assert.Zero(t, ambe)
}

func TestPSNR(t *testing.T) {
	o := original3x3(t)

	psnr, err := PSNR(o, brightened3x3(t))
	require.NoError(t, err)
	assert.InDelta(t, 10*math.Log10(255.0*255.0/100.0), psnr, 1e-9)
	assert.InDelta(t, 28.1308, psnr, 1e-4)

	for name, b := range map[string]*gray.Buffer{
		"scenario": o,
		"noise":    noise(31, 17, 3),
		"empty":    gray.New(0, 0),
	} {
		t.Run(name, func(t *testing.T) {
			psnr, err := PSNR(b, b)
			require.NoError(t, err)
			assert.True(t, math.IsInf(psnr, 1), "identical buffers give +Inf, got %v", psnr)
		})
	}
}

func TestShapeMismatch(t *testing.T) {
	a := gray.New(3, 3)
	b := gray.New(3, 4)

	_, err := AMBE(a, b)
	assert.ErrorIs(t, err, gray.ErrShapeMismatch)

	_, err = PSNR(a, b)
	assert.ErrorIs(t, err, gray.ErrShapeMismatch)

	_, err = Evaluate(a, b)
	assert.ErrorIs(t, err, gray.ErrShapeMismatch)
	assert.Contains(t, err.Error(), "AMBE")

	_, err = PSNR(a, nil)
	assert.ErrorIs(t, err, gray.ErrShapeMismatch)
}

func TestContrast(t *testing.T) {
	o := original3x3(t)
	want := math.Sqrt(6000.0 / 9.0)
	assert.InDelta(t, want, Contrast(o), 1e-9)
	assert.Equal(t, Contrast(o), Contrast(o), "contrast is pure")

	n := noise(20, 20, 8)
	assert.Equal(t, Contrast(n), Contrast(n))

	flat, _ := gray.FromPix(2, 2, []uint8{128, 128, 128, 128})
	assert.InDelta(t, 0, Contrast(flat), 1e-12)
	assert.Zero(t, Contrast(gray.New(0, 3)))
}

func TestMean(t *testing.T) {
	assert.InDelta(t, 50.0, Mean(original3x3(t)), 1e-12)
	assert.Zero(t, Mean(gray.New(0, 0)))
}

func TestEntropy(t *testing.T) {
	assert.InDelta(t, math.Log2(9), Entropy(original3x3(t)), 1e-6)

	flat, _ := gray.FromPix(3, 3, []uint8{128, 128, 128, 128, 128, 128, 128, 128, 128})
	assert.Equal(t, 0.0, Entropy(flat), "single level carries no information")
	assert.Equal(t, 0.0, Entropy(gray.New(0, 0)))

	every := gray.New(16, 16)
	for i := range every.Pix {
		every.Pix[i] = uint8(i)
	}
	assert.InDelta(t, 8.0, Entropy(every), 1e-5)
	assert.LessOrEqual(t, Entropy(every), MaxEntropy)

	for seed := uint64(1); seed <= 5; seed++ {
		e := Entropy(noise(25, 25, seed))
		assert.GreaterOrEqual(t, e, 0.0)
		assert.LessOrEqual(t, e, MaxEntropy)
	}
}

func TestEvaluateAndStandalone(t *testing.T) {
	o := original3x3(t)
	e := brightened3x3(t)

	r, err := Evaluate(o, e)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, float64(r.AMBE), 1e-9)
	assert.InDelta(t, 28.1308, float64(r.PSNR), 1e-4)
	assert.InDelta(t, Contrast(e), float64(r.Contrast), 0)
	assert.InDelta(t, Entropy(e), float64(r.Entropy), 0)

	s := Standalone(o)
	assert.False(t, s.AMBE.Applicable())
	assert.False(t, s.PSNR.Applicable())
	assert.True(t, s.Contrast.Applicable())
	assert.InDelta(t, Contrast(o), float64(s.Contrast), 0)
}

func TestScoreString(t *testing.T) {
	assert.Equal(t, "-", NotApplicable.String())
	assert.Equal(t, "inf", Score(math.Inf(1)).String())
	assert.Equal(t, "-inf", Score(math.Inf(-1)).String())
	assert.Equal(t, "28.1308", Score(28.13080360867909).String())
}

func TestResultJSON(t *testing.T) {
	r := Result{
		AMBE:     NotApplicable,
		PSNR:     Score(math.Inf(1)),
		Contrast: Score(25.5),
		Entropy:  Score(3),
	}
	raw, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"AMBE":"-","PSNR":"inf","Contraste":25.5,"Entropia":3}`, string(raw))

	var back Result
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.False(t, back.AMBE.Applicable())
	assert.True(t, math.IsInf(float64(back.PSNR), 1))
	assert.Equal(t, Score(25.5), back.Contrast)

	assert.Error(t, json.Unmarshal([]byte(`{"AMBE":"n/a"}`), &back))
}
