package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lucas-test/clustiflor/pkg/biclust"
	"github.com/lucas-test/clustiflor/pkg/bigraph"
	"github.com/lucas-test/clustiflor/pkg/clustiflor"
	"github.com/lucas-test/clustiflor/pkg/comparison"
	"github.com/lucas-test/clustiflor/pkg/metrics"
)

var errUsage = errors.New("missing arguments")

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// delimiter accepts the escaped and spelled-out forms shells make awkward
func delimiter(d string) string {
	switch d {
	case `\t`, "tab":
		return "\t"
	case "space", "":
		return " "
	}
	return d
}

// loadConfig reads the optional config file then applies the flags the
// user actually set on top of it.
func loadConfig(path string, fs *flag.FlagSet, keys map[string]string) (*clustiflor.Config, error) {
	config := clustiflor.NewConfig()
	if path != "" {
		if err := config.LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	fs.Visit(func(f *flag.Flag) {
		if key, ok := keys[f.Name]; ok {
			config.Set(key, f.Value.(flag.Getter).Get())
		}
	})
	if config.Verbosity() >= 2 {
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	}
	return config, nil
}

func algorithmFlags(fs *flag.FlagSet) map[string]string {
	d := clustiflor.DefaultParams()
	fs.Float64("size-sensitivity", d.SizeSensitivity, "scales the minimum cluster side with sqrt of the graph side")
	fs.Float64("split-th", d.SplitThreshold, "minimum inside/boundary contrast for accepting a split")
	fs.Int("power", d.PowerIterations, "power iterations per split")
	fs.Int("verbose", d.Verbosity, "0 quiet, 1 debug, 2 trace")
	fs.String("metrics", "", "write prometheus metrics to this textfile")
	return map[string]string{
		"size-sensitivity": "algorithm.size_sensitivity",
		"split-th":         "algorithm.split_threshold",
		"power":            "algorithm.power_iterations",
		"verbose":          "algorithm.verbosity",
		"metrics":          "output.metrics_file",
		"split-cols":       "input.split_cols",
	}
}

func writeMetrics(reg *metrics.Registry, path string, logger zerolog.Logger) {
	if path == "" {
		return
	}
	if err := reg.WriteTextfile(path); err != nil {
		logger.Warn().Err(err).Str("file", path).Msg("Failed to write metrics")
		return
	}
	logger.Info().Str("file", path).Msg("Metrics written")
}

func runSolve(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errUsage
	}
	file, rest := args[0], args[1:]
	var delimArg string
	if len(rest) > 0 && (rest[0] == "-" || !strings.HasPrefix(rest[0], "-")) {
		delimArg, rest = rest[0], rest[1:]
	}

	fs := newFlagSet("solve")
	keys := algorithmFlags(fs)
	fs.Bool("split-cols", false, "treat the second field of each line as the row")
	configPath := fs.String("config", "", "YAML/JSON configuration file")
	reportPath := fs.String("report", "", "also write a report (.yaml for YAML)")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	config, err := loadConfig(*configPath, fs, keys)
	if err != nil {
		return err
	}
	logger := config.CreateLogger()

	// the positional delimiter wins over input.delimiter from the config
	delim := delimiter(config.Delimiter())
	if delimArg != "" {
		delim = delimiter(delimArg)
	}
	opts := bigraph.LoadOptions{Delimiter: delim}
	if config.SplitCols() {
		opts.Orientation = bigraph.OrientationColumns
	}
	g, err := bigraph.LoadFile(file, opts)
	if err != nil {
		return err
	}
	logger.Info().Str("file", file).Str("graph", g.Stats().String()).Msg("Graph loaded")

	reg := metrics.DefaultRegistry()
	result, err := clustiflor.Run(ctx, g, config, clustiflor.WithMetrics(reg))
	if err != nil {
		return err
	}

	out := file + ".biclusters"
	if err := result.WriteReport(out, g.Vocabulary(), true); err != nil {
		return err
	}
	if *reportPath != "" {
		if err := result.WriteReport(*reportPath, g.Vocabulary(), true); err != nil {
			return err
		}
	}
	writeMetrics(reg, config.MetricsFile(), logger)

	s := result.Stats
	fmt.Println(summary("Bicluster discovery",
		fmt.Sprintf("graph:    %d x %d, %d edges", g.N(), g.M(), g.NumEdges()),
		fmt.Sprintf("clusters: %d", s.Clusters),
		fmt.Sprintf("splits:   %d accepted, %d rejected", s.SplitsAccepted, s.SplitsRejected),
		fmt.Sprintf("removed:  %d edges", s.EdgesRemoved),
		fmt.Sprintf("runtime:  %s", s.Elapsed.Round(time.Microsecond)),
		fmt.Sprintf("output:   %s", out),
	))
	return nil
}

func runGenerate(_ context.Context, args []string) error {
	if len(args) < 1 {
		return errUsage
	}
	out := args[0]

	fs := newFlagSet("generate")
	n := fs.Int("n", 50, "rows")
	m := fs.Int("m", 50, "columns")
	noise := fs.Float64("noise", 0.1, "noise level in [0,1]")
	overlap := fs.Float64("row-overlap", 1, "row overlap factor, at least 1")
	separation := fs.Float64("row-separation", 1, "row separation in [0,1]")
	seed := fs.Int64("seed", time.Now().UnixNano(), "random seed")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	g, err := bigraph.Generate(*n, *m, *noise, *overlap, *separation, rand.New(rand.NewSource(*seed)))
	if err != nil {
		return err
	}
	if err := g.WriteFile(out, "", " "); err != nil {
		return err
	}
	lines := []string{
		fmt.Sprintf("graph: %s", out),
		fmt.Sprintf("stats: %s", g.Stats()),
	}
	if gt := g.GroundTruth(); !gt.IsEmpty() {
		base := strings.TrimSuffix(out, bigraph.CompressedExt)
		truth := strings.TrimSuffix(base, filepath.Ext(base)) + ".ground_truth"
		if err := biclust.WriteFile(truth, gt, g.Vocabulary(), g.Params().Header()); err != nil {
			return err
		}
		lines = append(lines,
			fmt.Sprintf("ground truth: %s (%d clusters)", truth, gt.Len()),
			fmt.Sprintf("real noise: %.4f", g.ComputeNoise(gt)),
		)
	}
	fmt.Println(summary("Generated graph", lines...))
	return nil
}

func runBatch(_ context.Context, args []string) error {
	if len(args) < 1 {
		return errUsage
	}
	dir := args[0]

	fs := newFlagSet("batch")
	count := fs.Int("count", 10, "number of graphs")
	seed := fs.Int64("seed", time.Now().UnixNano(), "random seed")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	paths, err := comparison.GenerateBatch(dir, *count, comparison.BatchRanges(), rand.New(rand.NewSource(*seed)))
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render(fmt.Sprintf("Wrote %d graphs to %s", len(paths), dir)))
	return nil
}

func runCompare(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errUsage
	}
	out := args[0]

	fs := newFlagSet("compare")
	keys := algorithmFlags(fs)
	trials := fs.Int("trials", 10, "number of trials")
	workers := fs.Int("workers", 0, "concurrent trials, 0 for one per CPU")
	seed := fs.Int64("seed", time.Now().UnixNano(), "random seed")
	bimax := fs.String("bimax", "", "R script running Bimax")
	bibit := fs.String("bibit", "", "Python script running BiBit")
	workDir := fs.String("workdir", "", "parent directory of the trial working directories")
	keep := fs.Bool("keep", false, "keep trial working directories")
	configPath := fs.String("config", "", "YAML/JSON configuration file")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	config, err := loadConfig(*configPath, fs, keys)
	if err != nil {
		return err
	}
	logger := config.CreateLogger()

	var refs []comparison.Reference
	for _, r := range []struct {
		name, script, command string
	}{
		{"bimax", *bimax, "Rscript"},
		{"bibit", *bibit, "python3"},
	} {
		if r.script == "" {
			continue
		}
		abs, err := filepath.Abs(r.script)
		if err != nil {
			return err
		}
		refs = append(refs, &comparison.ScriptReference{
			Label:        r.name,
			Command:      r.command,
			Args:         []string{abs},
			ResultsFile:  r.name + "_results.txt",
			DurationFile: r.name + "_duration.txt",
		})
	}

	reg := metrics.DefaultRegistry()
	sweep := &comparison.Sweep{
		Trials:       *trials,
		Workers:      *workers,
		Seed:         *seed,
		Ranges:       comparison.ComparisonRanges(),
		Params:       config.Params(),
		References:   refs,
		WorkDir:      *workDir,
		KeepWorkDirs: *keep,
		Logger:       logger,
		Metrics:      reg,
	}
	rows, runErr := sweep.Run(ctx)
	if rows == nil {
		return runErr
	}
	if err := comparison.WriteTableFile(out, rows); err != nil {
		return err
	}
	writeMetrics(reg, config.MetricsFile(), logger)

	lines := []string{fmt.Sprintf("trials: %d", len(rows)), fmt.Sprintf("table:  %s", out)}
	for _, name := range append([]string{comparison.EngineName}, referenceNames(refs)...) {
		mean, ok := meanMatching(rows, name)
		if !ok {
			lines = append(lines, fmt.Sprintf("%-10s no successful run", name))
			continue
		}
		lines = append(lines, fmt.Sprintf("%-10s mean matching %.4f", name, mean))
	}
	fmt.Println(summary("Comparison", lines...))
	return runErr
}

func referenceNames(refs []comparison.Reference) []string {
	names := make([]string, len(refs))
	for i, r := range refs {
		names[i] = r.Name()
	}
	return names
}

func meanMatching(rows []comparison.Row, solver string) (float64, bool) {
	sum, count := 0.0, 0
	for _, r := range rows {
		for _, s := range r.Solvers {
			if s.Name == solver && s.Success {
				sum += s.Matching
				count++
			}
		}
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

func runValidate(_ context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	fs := newFlagSet("validate")
	splitCols := fs.Bool("split-cols", false, "treat the second field of each line as the row")
	if err := fs.Parse(args[2:]); err != nil {
		return err
	}

	opts := bigraph.LoadOptions{Delimiter: delimiter(args[1])}
	if *splitCols {
		opts.Orientation = bigraph.OrientationColumns
	}
	g, err := bigraph.LoadFile(args[0], opts)
	if err != nil {
		return err
	}
	if err := g.Validate(); err != nil {
		return err
	}

	s := g.Stats()
	lines := []string{
		fmt.Sprintf("rows:       %d (%d isolated)", s.N, s.IsolatedRows),
		fmt.Sprintf("columns:    %d (%d isolated)", s.M, s.IsolatedCols),
		fmt.Sprintf("edges:      %d, density %.4f", s.Edges, s.Density),
		fmt.Sprintf("weights:    mean %.4f, sd %.4f, max %.4f", s.MeanWeight, s.StdDevWeight, s.MaxWeight),
		fmt.Sprintf("components: %d", s.Components),
	}
	if p := g.Params(); p != nil {
		lines = append(lines, fmt.Sprintf("generated:  %s", strings.TrimPrefix(p.Header(), "# ")))
	}
	fmt.Println(successStyle.Render("Graph is valid"))
	fmt.Println(summary(args[0], lines...))
	return nil
}

func runScore(_ context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	truth, vocab, err := biclust.ReadFile(args[0], nil)
	if err != nil {
		return err
	}
	found, _, err := biclust.ReadFile(args[1], vocab)
	if err != nil {
		return err
	}

	lines := []string{
		fmt.Sprintf("planted:  %d clusters", truth.Len()),
		fmt.Sprintf("found:    %d clusters", found.Len()),
		fmt.Sprintf("matching: %.4f", truth.MatchingScore(found)),
		fmt.Sprintf("accuracy: %.4f", truth.Accuracy(found)),
		fmt.Sprintf("f-score:  %.4f", truth.FScore(found)),
	}
	lines = append(lines, fmt.Sprintf("row NMI:  %.4f", truth.RowNMI(found, rowCount(vocab, truth, found))))
	fmt.Println(summary("Scores", lines...))
	return nil
}

// rowCount is the size of the row set two listings live in: the vocabulary
// size when rows are labelled, one past the largest index otherwise.
func rowCount(vocab *biclust.Vocabulary, sets ...*biclust.Set) int {
	if vocab != nil && len(vocab.Rows) > 0 {
		return len(vocab.Rows)
	}
	n := 0
	for _, s := range sets {
		rows, _ := s.MaxIndices()
		n = max(n, rows)
	}
	return n
}
