package report

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/jpfielding/histeq.go/pkg/batch"
	"github.com/jpfielding/histeq.go/pkg/enhance"
	"github.com/jpfielding/histeq.go/pkg/gray"
	"github.com/jpfielding/histeq.go/pkg/metric"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *batch.Report {
	return &batch.Report{
		ID: "4f1c9a7e-0000-5000-8000-000000000000",
		Options: batch.Options{
			Techniques: []enhance.Technique{enhance.TechniqueHE, enhance.TechniqueCLAHE},
			CLAHE:      enhance.DefaultCLAHEOptions(),
		},
		Images: []batch.ImageResult{
			{
				Name: "1.png", Rows: 3, Cols: 3,
				Original: metric.Result{
					AMBE:     metric.NotApplicable,
					PSNR:     metric.NotApplicable,
					Contrast: 25.8199,
					Entropy:  3.1699,
				},
				Techniques: []batch.TechniqueResult{
					{Technique: enhance.TechniqueHE, Metrics: metric.Result{AMBE: 100, PSNR: 8.5, Contrast: 74.5, Entropy: 3.1699}},
					{Technique: enhance.TechniqueCLAHE, Metrics: metric.Result{AMBE: 0, PSNR: metric.Score(math.Inf(1)), Contrast: 25.8199, Entropy: 3.1699}},
				},
			},
			{Name: "2.png", Skipped: "failed to load 2.png: unexpected EOF"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" JSON ")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("text")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	_, err = ParseFormat("csv")
	assert.Error(t, err)
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatText, sample()))
	out := buf.String()

	assert.Contains(t, out, "processed=1")
	assert.Contains(t, out, "clipLimit=2 tileGridSize=8x8")
	assert.Contains(t, out, "1.png")
	assert.Contains(t, out, "3x3")
	assert.Contains(t, out, "2.png")
	assert.Contains(t, out, "skipped: failed to load")
	assert.Contains(t, out, "averages")

	var original string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "original") {
			original = line
		}
	}
	require.NotEmpty(t, original)
	fields := strings.Fields(original)
	assert.Equal(t, []string{"original", "-", "-", "25.8199", "3.1699"}, fields)

	assert.Contains(t, out, "inf")
	assert.Contains(t, out, "100.0000")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, sample()))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	images := raw["images"].([]any)
	require.Len(t, images, 2)

	first := images[0].(map[string]any)
	orig := first["original"].(map[string]any)
	assert.Equal(t, "-", orig["AMBE"])
	assert.Equal(t, 25.8199, orig["Contraste"])

	clahe := first["techniques"].([]any)[1].(map[string]any)
	assert.Equal(t, "inf", clahe["metrics"].(map[string]any)["PSNR"])

	opts := raw["options"].(map[string]any)["clahe"].(map[string]any)
	assert.Equal(t, 2.0, opts["clip_limit"])
	assert.Equal(t, 8.0, opts["tile_rows"])

	var back batch.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.False(t, back.Images[0].Original.AMBE.Applicable())
	assert.True(t, math.IsInf(float64(back.Images[0].Techniques[1].Metrics.PSNR), 1))
}

func TestWriteJSONUnlimitedClip(t *testing.T) {
	rep := sample()
	rep.Options.CLAHE.ClipLimit = math.Inf(1)
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, rep))
	assert.Contains(t, buf.String(), `"clip_limit": "inf"`)
}

func TestWriteImage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteImage(&buf, sample().Images[0]))
	assert.Contains(t, buf.String(), "CLAHE")
	assert.NotContains(t, buf.String(), "averages")
}

func TestWriteHistogram(t *testing.T) {
	b, err := gray.FromRows([][]uint8{{0, 0, 0, 0}, {7, 7, 255, 255}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteHistogram(&buf, gray.HistogramOf(b), 8))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"0", "4", "########"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"7", "2", "####"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"255", "2", "####"}, strings.Fields(lines[2]))
}
