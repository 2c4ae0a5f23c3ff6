package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF")).
			MarginTop(1)

	statsBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FF00")).
			Padding(0, 2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)
)

type command struct {
	usage string
	run   func(ctx context.Context, args []string) error
}

var commands = map[string]command{
	"solve":    {"solve <graph_file> [delimiter] [--size-sensitivity=] [--split-th=] [--power=] [--verbose=] [--split-cols] [--config=] [--metrics=] [--report=]", runSolve},
	"generate": {"generate <out_file> [--n=] [--m=] [--noise=] [--row-overlap=] [--row-separation=] [--seed=]", runGenerate},
	"batch":    {"batch <out_dir> [--count=] [--seed=]", runBatch},
	"compare":  {"compare <out_file> [--trials=] [--workers=] [--seed=] [--bimax=script.r] [--bibit=script.py] [--workdir=] [--keep] [--config=] [--metrics=]", runCompare},
	"validate": {"validate <graph_file> <delimiter> [--split-cols]", runValidate},
	"score":    {"score <ground_truth_file> <biclusters_file>", runScore},
}

var order = []string{"solve", "generate", "batch", "compare", "validate", "score"}

func usage() {
	fmt.Println("Usage: clustiflor <mode> ...")
	fmt.Println("Modes:")
	for _, name := range order {
		fmt.Printf("  %s\n", commands[name].usage)
	}
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd, ok := commands[os.Args[1]]
	if !ok {
		fmt.Println(errorStyle.Render(fmt.Sprintf("Unknown mode: %s", os.Args[1])))
		fmt.Printf("Available modes: %s\n", strings.Join(order, ", "))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.run(ctx, os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		fmt.Fprintf(os.Stderr, "Usage: clustiflor %s\n", cmd.usage)
		stop()
		os.Exit(1)
	}
}

// summary renders a titled box of "key: value" lines
func summary(title string, lines ...string) string {
	return titleStyle.Render(title) + "\n" + statsBoxStyle.Render(strings.Join(lines, "\n"))
}
