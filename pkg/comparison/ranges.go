package comparison

import (
	"fmt"
	"math/rand"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// IntRange is an inclusive integer interval
type IntRange struct {
	Min int `json:"min" yaml:"min" validate:"min=1"`
	Max int `json:"max" yaml:"max" validate:"gtefield=Min"`
}

// FloatRange is an inclusive real interval
type FloatRange struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max" validate:"gtefield=Min"`
}

// Ranges bounds the random generation parameters of each trial
type Ranges struct {
	N             IntRange   `json:"n" yaml:"n"`
	M             IntRange   `json:"m" yaml:"m"`
	Noise         FloatRange `json:"noise" yaml:"noise"`
	RowOverlap    FloatRange `json:"row_overlap" yaml:"row_overlap"`
	RowSeparation FloatRange `json:"row_separation" yaml:"row_separation"`
}

// ComparisonRanges are the ranges of the reference comparison sweep
func ComparisonRanges() Ranges {
	return Ranges{
		N:             IntRange{10, 140},
		M:             IntRange{10, 140},
		Noise:         FloatRange{0, 0.2},
		RowOverlap:    FloatRange{1, 2},
		RowSeparation: FloatRange{0, 1},
	}
}

// BatchRanges are the ranges used to generate benchmark batches
func BatchRanges() Ranges {
	return Ranges{
		N:             IntRange{10, 100},
		M:             IntRange{10, 100},
		Noise:         FloatRange{0, 0.1},
		RowOverlap:    FloatRange{1, 2},
		RowSeparation: FloatRange{0, 1},
	}
}

// Validate checks the interval bounds and the generator domains
func (r Ranges) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid ranges: %w", err)
	}
	switch {
	case r.Noise.Min < 0 || r.Noise.Max > 1:
		return fmt.Errorf("invalid ranges: noise must lie in [0,1]")
	case r.RowOverlap.Min < 1:
		return fmt.Errorf("invalid ranges: row overlap must be at least 1")
	case r.RowSeparation.Min < 0 || r.RowSeparation.Max > 1:
		return fmt.Errorf("invalid ranges: row separation must lie in [0,1]")
	}
	return nil
}

// trialParams are the generation parameters drawn for one trial
type trialParams struct {
	n, m                             int
	noise, rowOverlap, rowSeparation float64
}

func (r Ranges) draw(rng *rand.Rand) trialParams {
	return trialParams{
		n:             r.N.Min + rng.Intn(r.N.Max-r.N.Min+1),
		m:             r.M.Min + rng.Intn(r.M.Max-r.M.Min+1),
		noise:         r.Noise.Min + rng.Float64()*(r.Noise.Max-r.Noise.Min),
		rowOverlap:    r.RowOverlap.Min + rng.Float64()*(r.RowOverlap.Max-r.RowOverlap.Min),
		rowSeparation: r.RowSeparation.Min + rng.Float64()*(r.RowSeparation.Max-r.RowSeparation.Min),
	}
}
