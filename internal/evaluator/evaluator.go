// Package evaluator holds the strategy evaluation variants. Each
// variant reads a daily close series and produces a direction with a
// confidence score in [55,80]. Evaluators are pure: same series, same
// answer, no side effects.
package evaluator

import "fmt"

// Direction of a proposed trade.
type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

// Evaluation is the outcome of running one variant over a price series.
type Evaluation struct {
	Confidence int       `json:"confidence"`
	Direction  Direction `json:"direction"`
}

// Evaluator turns a close series into an Evaluation.
type Evaluator interface {
	// Name identifies the variant (trend, meanrev, contrarian).
	Name() string
	// MinSamples is the series length below which the evaluator
	// returns the neutral default.
	MinSamples() int
	// Evaluate scores the series. Must be pure.
	Evaluate(prices []float64) Evaluation
}

// Confidence bounds shared by every variant.
const (
	MinConfidence = 55
	MaxConfidence = 80
)

// neutral is what every variant returns on insufficient data.
func neutral() Evaluation {
	return Evaluation{Confidence: MinConfidence, Direction: Long}
}

func clampConfidence(c int) int {
	if c < MinConfidence {
		return MinConfidence
	}
	if c > MaxConfidence {
		return MaxConfidence
	}
	return c
}

// Registry is the closed set of evaluation variants.
type Registry struct {
	variants map[string]Evaluator
	order    []string
}

// NewRegistry builds the registry with all built-in variants.
func NewRegistry() *Registry {
	r := &Registry{variants: make(map[string]Evaluator)}
	for _, e := range []Evaluator{&Trend{}, &MeanRev{}, &Contrarian{}} {
		r.variants[e.Name()] = e
		r.order = append(r.order, e.Name())
	}
	return r
}

// Get returns the named variant.
func (r *Registry) Get(name string) (Evaluator, error) {
	e, ok := r.variants[name]
	if !ok {
		return nil, fmt.Errorf("unknown evaluator variant %q", name)
	}
	return e, nil
}

// Names lists the registered variants in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
