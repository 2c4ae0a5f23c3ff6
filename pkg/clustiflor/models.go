package clustiflor

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/lucas-test/clustiflor/pkg/biclust"
	"github.com/lucas-test/clustiflor/pkg/bigraph"
)

var validate = validator.New()

// Params are the algorithm parameters of one discovery run
type Params struct {
	// SizeSensitivity scales the minimum cluster side, ceil(s*sqrt(n)/2) rows
	// and ceil(s*sqrt(m)/2) columns. Zero admits single-row clusters.
	SizeSensitivity float64 `json:"size_sensitivity" yaml:"size_sensitivity" validate:"gte=0"`

	// SplitThreshold is the minimum contrast (inside density over boundary
	// density, minus one) a candidate sub-block needs to be split off.
	SplitThreshold float64 `json:"split_threshold" yaml:"split_threshold" validate:"gte=1"`

	PowerIterations int `json:"power_iterations" yaml:"power_iterations" validate:"min=1"`
	Verbosity       int `json:"verbosity" yaml:"verbosity" validate:"gte=0"`
}

// DefaultParams returns the parameters used when nothing is configured
func DefaultParams() Params {
	return Params{
		SizeSensitivity: 1.0,
		SplitThreshold:  1.0,
		PowerIterations: 3,
		Verbosity:       0,
	}
}

// Validate reports every violated constraint wrapped in ErrConfiguration
func (p Params) Validate() error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
	}
	return fmt.Errorf("%w: %s", ErrConfiguration, strings.Join(msgs, "; "))
}

// Stats contains run metrics
type Stats struct {
	Regions        int   `json:"regions" yaml:"regions"`
	SplitsAccepted int   `json:"splits_accepted" yaml:"splits_accepted"`
	SplitsRejected int   `json:"splits_rejected" yaml:"splits_rejected"`
	Degenerate     int   `json:"degenerate" yaml:"degenerate"`
	Discarded      int   `json:"discarded" yaml:"discarded"`
	Clusters       int   `json:"clusters" yaml:"clusters"`
	EdgesRemoved   int   `json:"edges_removed" yaml:"edges_removed"`
	CellsVisited   int64 `json:"cells_visited" yaml:"cells_visited"`
	PowerSteps     int   `json:"power_steps" yaml:"power_steps"`
	RuntimeMS      int64 `json:"runtime_ms" yaml:"runtime_ms"`

	Elapsed time.Duration `json:"-" yaml:"-"`
}

// Result represents the algorithm output
type Result struct {
	RunID      string       `json:"run_id" yaml:"run_id"`
	Biclusters *biclust.Set `json:"-" yaml:"-"`
	Stats      Stats        `json:"stats" yaml:"stats"`
	Params     Params       `json:"params" yaml:"params"`

	// Residual is the input graph with every emitted cluster's edges removed
	Residual *bigraph.Graph `json:"-" yaml:"-"`
}
