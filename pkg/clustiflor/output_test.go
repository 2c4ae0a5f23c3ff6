package clustiflor

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/lucas-test/clustiflor/pkg/biclust"
)

func TestPrintStatsIsReadableGroundTruth(t *testing.T) {
	g := plantedBlock(t, 20, 20, 10, 10)
	result, err := Discover(g, DefaultParams())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, result.PrintStats(&buf, g.Vocabulary(), true))
	assert.Contains(t, buf.String(), "# clusters 1")
	assert.Contains(t, buf.String(), "# split_threshold 1")

	set, vocab, err := biclust.Read(strings.NewReader(buf.String()), nil)
	require.NoError(t, err)
	assert.Equal(t, g.RowLabels().Labels(), vocab.Rows)
	assert.InDelta(t, 1.0, result.Biclusters.MatchingScore(set), 1e-12)

	buf.Reset()
	require.NoError(t, result.PrintStats(&buf, nil, false))
	assert.NotContains(t, buf.String(), "rows")
}

func TestWriteReportYAML(t *testing.T) {
	g := plantedBlock(t, 20, 20, 10, 10)
	result, err := Discover(g, DefaultParams())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "report.yaml")
	require.NoError(t, result.WriteReport(path, g.Vocabulary(), true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var rep Report
	require.NoError(t, yaml.Unmarshal(data, &rep))
	assert.Equal(t, result.RunID, rep.RunID)
	assert.Equal(t, 1, rep.Stats.Clusters)
	require.Len(t, rep.Clusters, 1)
	assert.Equal(t, "r0", rep.Clusters[0].Rows[0])
	assert.Equal(t, "c9", rep.Clusters[0].Cols[9])
}

func TestWriteReportText(t *testing.T) {
	result, err := Discover(plantedBlock(t, 10, 10, 5, 5), DefaultParams())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, result.WriteReport(path, nil, true))
	set, _, err := biclust.ReadFile(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, set.Len())
}
