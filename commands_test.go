package main

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucas-test/clustiflor/pkg/biclust"
	"github.com/lucas-test/clustiflor/pkg/bigraph"
	"github.com/lucas-test/clustiflor/pkg/comparison"
)

func TestDelimiter(t *testing.T) {
	tests := map[string]string{`\t`: "\t", "tab": "\t", "space": " ", "": " ", ",": ","}
	for in, want := range tests {
		assert.Equal(t, want, delimiter(in), "input %q", in)
	}
}

func TestMeanMatching(t *testing.T) {
	rows := []comparison.Row{
		{Solvers: []comparison.SolverResult{{Name: "a", Matching: 1, Success: true}, {Name: "b", Success: false}}},
		{Solvers: []comparison.SolverResult{{Name: "a", Matching: 0.5, Success: true}}},
	}
	mean, ok := meanMatching(rows, "a")
	assert.True(t, ok)
	assert.Equal(t, 0.75, mean)

	_, ok = meanMatching(rows, "b")
	assert.False(t, ok)
}

func TestGenerateThenSolve(t *testing.T) {
	dir := t.TempDir()
	graph := filepath.Join(dir, "g.edges")
	require.NoError(t, runGenerate(context.Background(), []string{graph, "--n=30", "--m=30", "--noise=0", "--seed=4"}))

	_, err := os.Stat(filepath.Join(dir, "g.ground_truth"))
	require.NoError(t, err)

	report := filepath.Join(dir, "report.yaml")
	require.NoError(t, runSolve(context.Background(), []string{graph, " ", "--split-th=1.5", "--report=" + report}))

	found, _, err := biclust.ReadFile(graph+".biclusters", nil)
	require.NoError(t, err)
	assert.False(t, found.IsEmpty())
	_, err = os.Stat(report)
	assert.NoError(t, err)

	require.NoError(t, runScore(context.Background(), []string{filepath.Join(dir, "g.ground_truth"), graph + ".biclusters"}))
	require.NoError(t, runValidate(context.Background(), []string{graph, "space"}))
}

func TestSolveFallsBackToConfigDelimiter(t *testing.T) {
	dir := t.TempDir()
	g, err := bigraph.Generate(24, 24, 0, 1, 1, rand.New(rand.NewSource(2)))
	require.NoError(t, err)
	graph := filepath.Join(dir, "g.csv")
	require.NoError(t, g.WriteFile(graph, "", ","))

	config := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(config, []byte("input:\n  delimiter: \",\"\n"), 0o644))
	metricsFile := filepath.Join(dir, "run.prom")

	require.NoError(t, runSolve(context.Background(), []string{graph, "--config=" + config, "--metrics=" + metricsFile}))

	found, _, err := biclust.ReadFile(graph+".biclusters", nil)
	require.NoError(t, err)
	assert.False(t, found.IsEmpty())

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "clustiflor_runs_total")
}

func TestScoreIndexOnlyFiles(t *testing.T) {
	dir := t.TempDir()
	truth := biclust.NewSet(biclust.New([]int{0, 1, 2}, []int{0, 1}), biclust.New([]int{3, 4}, []int{2}))
	found := biclust.NewSet(biclust.New([]int{0, 1}, []int{0, 1}))

	truthPath, foundPath := filepath.Join(dir, "truth"), filepath.Join(dir, "found")
	require.NoError(t, biclust.WriteFile(truthPath, truth, nil, ""))
	require.NoError(t, biclust.WriteFile(foundPath, found, nil, ""))

	require.NoError(t, runScore(context.Background(), []string{truthPath, foundPath}))
	assert.Equal(t, 5, rowCount(nil, truth, found))
	assert.Equal(t, 7, rowCount(&biclust.Vocabulary{Rows: make([]string, 7)}, truth))
}

func TestModesRejectMissingArguments(t *testing.T) {
	for name, cmd := range commands {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, cmd.run(context.Background(), nil), errUsage)
		})
	}
}
