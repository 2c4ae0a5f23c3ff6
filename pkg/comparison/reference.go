package comparison

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lucas-test/clustiflor/pkg/biclust"
	"github.com/lucas-test/clustiflor/pkg/bigraph"
	"github.com/lucas-test/clustiflor/pkg/external"
)

// GraphFileName is the edge list reference tools read from their working directory
const GraphFileName = "gene.adj"

// Reference is a third-party biclustering tool run on each trial graph
type Reference interface {
	Name() string
	Run(ctx context.Context, workDir string, g *bigraph.Graph) (*biclust.Set, time.Duration, error)
}

// ScriptReference runs an external program (an R or Python script) in a
// working directory holding the trial graph as gene.adj, then reads its
// cluster listing and, when the tool reports one, its own duration.
type ScriptReference struct {
	Label        string   `json:"name" yaml:"name"`
	Command      string   `json:"command" yaml:"command"`
	Args         []string `json:"args" yaml:"args"`
	ResultsFile  string   `json:"results_file" yaml:"results_file"`
	DurationFile string   `json:"duration_file,omitempty" yaml:"duration_file,omitempty"`
}

func (s *ScriptReference) Name() string { return s.Label }

// Run executes the tool. Without a duration file the wall-clock time of the
// process is reported.
func (s *ScriptReference) Run(ctx context.Context, workDir string, g *bigraph.Graph) (*biclust.Set, time.Duration, error) {
	if err := g.WriteFile(filepath.Join(workDir, GraphFileName), "", " "); err != nil {
		return nil, 0, err
	}

	cmd := exec.CommandContext(ctx, s.Command, s.Args...)
	cmd.Dir = workDir
	start := time.Now()
	output, err := cmd.CombinedOutput()
	elapsed := time.Since(start)
	if err != nil {
		return nil, elapsed, fmt.Errorf("%s failed: %w: %s", s.Label, err, lastLine(output))
	}

	set, err := external.ForGraph(g).LoadFile(filepath.Join(workDir, s.ResultsFile))
	if err != nil {
		return nil, elapsed, fmt.Errorf("%s results: %w", s.Label, err)
	}

	if s.DurationFile != "" {
		seconds, err := ReadDurationFile(filepath.Join(workDir, s.DurationFile))
		if err == nil && seconds > 0 {
			elapsed = time.Duration(seconds * float64(time.Second))
		}
	}
	return set, elapsed, nil
}

// ReadDurationFile returns the first line of path that parses as a number
// of seconds, 0 when there is none.
func ReadDurationFile(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open duration file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if d, err := strconv.ParseFloat(strings.TrimSpace(scanner.Text()), 64); err == nil {
			return d, nil
		}
	}
	return 0, scanner.Err()
}

func lastLine(output []byte) string {
	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	return lines[len(lines)-1]
}
