package enhance

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jpfielding/histeq.go/pkg/gray"
)

// Technique names an enhancement algorithm
type Technique string

const (
	TechniqueHE    Technique = "HE"
	TechniqueCLAHE Technique = "CLAHE"
	TechniqueDSIHE Technique = "DSIHE"
	TechniqueBBHE  Technique = "BBHE"
)

// AllTechniques lists every technique in report order
var AllTechniques = []Technique{TechniqueHE, TechniqueCLAHE, TechniqueDSIHE, TechniqueBBHE}

// Enhancer produces a new buffer of the same shape as its input
type Enhancer interface {
	Technique() Technique
	Enhance(b *gray.Buffer) (*gray.Buffer, error)
}

type enhancerFunc struct {
	technique Technique
	fn        func(*gray.Buffer) (*gray.Buffer, error)
}

func (e enhancerFunc) Technique() Technique { return e.technique }

func (e enhancerFunc) Enhance(b *gray.Buffer) (*gray.Buffer, error) { return e.fn(b) }

func infallible(fn func(*gray.Buffer) *gray.Buffer) func(*gray.Buffer) (*gray.Buffer, error) {
	return func(b *gray.Buffer) (*gray.Buffer, error) {
		return fn(b), nil
	}
}

// New returns the enhancer for a technique; opts only affects CLAHE
func New(t Technique, opts CLAHEOptions) (Enhancer, error) {
	switch t {
	case TechniqueHE:
		return enhancerFunc{t, infallible(HE)}, nil
	case TechniqueCLAHE:
		if err := opts.Validate(); err != nil {
			return nil, err
		}
		return enhancerFunc{t, func(b *gray.Buffer) (*gray.Buffer, error) {
			return CLAHE(b, opts)
		}}, nil
	case TechniqueDSIHE:
		return enhancerFunc{t, infallible(DSIHE)}, nil
	case TechniqueBBHE:
		return enhancerFunc{t, infallible(BBHE)}, nil
	}
	return nil, fmt.Errorf("unknown technique %q", string(t))
}

// ParseTechniques resolves comma separated, case-insensitive names; "all" or an
// empty string selects every technique
func ParseTechniques(s string) ([]Technique, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return slices.Clone(AllTechniques), nil
	}
	var out []Technique
	seen := map[Technique]bool{}
	for _, name := range strings.Split(s, ",") {
		t := Technique(strings.ToUpper(strings.TrimSpace(name)))
		if t == "" || seen[t] {
			continue
		}
		if _, err := New(t, DefaultCLAHEOptions()); err != nil {
			return nil, err
		}
		seen[t] = true
		out = append(out, t)
	}
	return out, nil
}

// Enhancers builds one enhancer per technique
func Enhancers(ts []Technique, opts CLAHEOptions) ([]Enhancer, error) {
	out := make([]Enhancer, 0, len(ts))
	for _, t := range ts {
		e, err := New(t, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
