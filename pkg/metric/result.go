package metric

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/jpfielding/histeq.go/pkg/gray"
)

// Score is a metric value. NaN marks a metric that does not apply.
type Score float64

// NotApplicable marks AMBE and PSNR when there is no reference buffer
var NotApplicable = Score(math.NaN())

// Applicable reports whether the score holds a value
func (s Score) Applicable() bool {
	return !math.IsNaN(float64(s))
}

func (s Score) String() string {
	f := float64(s)
	switch {
	case math.IsNaN(f):
		return "-"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'f', 4, 64)
}

// MarshalJSON writes "-" for NotApplicable and "inf" for +Inf, which JSON numbers cannot hold
func (s Score) MarshalJSON() ([]byte, error) {
	f := float64(s)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return json.Marshal(s.String())
	}
	return json.Marshal(f)
}

// UnmarshalJSON accepts a number or the "-", "inf" and "-inf" strings MarshalJSON writes
func (s *Score) UnmarshalJSON(data []byte) error {
	if !bytes.HasPrefix(data, []byte(`"`)) {
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		*s = Score(f)
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	switch str {
	case "-":
		*s = NotApplicable
	case "inf":
		*s = Score(math.Inf(1))
	case "-inf":
		*s = Score(math.Inf(-1))
	default:
		return fmt.Errorf("invalid score %q", str)
	}
	return nil
}

// Result holds every metric for one buffer
type Result struct {
	AMBE     Score `json:"AMBE"`
	PSNR     Score `json:"PSNR"`
	Contrast Score `json:"Contraste"`
	Entropy  Score `json:"Entropia"`
}

// Evaluate scores an enhanced buffer against its original
func Evaluate(original, enhanced *gray.Buffer) (Result, error) {
	ambe, err := AMBE(original, enhanced)
	if err != nil {
		return Result{}, fmt.Errorf("AMBE: %w", err)
	}
	psnr, err := PSNR(original, enhanced)
	if err != nil {
		return Result{}, fmt.Errorf("PSNR: %w", err)
	}
	return Result{
		AMBE:     Score(ambe),
		PSNR:     Score(psnr),
		Contrast: Score(Contrast(enhanced)),
		Entropy:  Score(Entropy(enhanced)),
	}, nil
}

// Standalone scores a buffer with no reference; AMBE and PSNR are NotApplicable
func Standalone(b *gray.Buffer) Result {
	return Result{
		AMBE:     NotApplicable,
		PSNR:     NotApplicable,
		Contrast: Score(Contrast(b)),
		Entropy:  Score(Entropy(b)),
	}
}
