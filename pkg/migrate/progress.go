package migrate

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/newtron-network/tnmigrate/pkg/cli"
	"github.com/newtron-network/tnmigrate/pkg/inventory"
)

// ProgressReporter receives lifecycle callbacks during a run. PairStart and
// PairEnd may be called concurrently when pairs run in parallel.
type ProgressReporter interface {
	RunStart(pairs []inventory.Pair, dryRun bool)
	PairStart(pair inventory.Pair, index, total int)
	PairEnd(outcome *Outcome, index, total int)
	RunEnd(outcomes []*Outcome, duration time.Duration)
}

type nopProgress struct{}

func (nopProgress) RunStart([]inventory.Pair, bool)    {}
func (nopProgress) PairStart(inventory.Pair, int, int) {}
func (nopProgress) PairEnd(*Outcome, int, int)         {}
func (nopProgress) RunEnd([]*Outcome, time.Duration)   {}

// consoleProgress is an append-only terminal progress reporter. It never
// rewrites lines, so output is safe for pipes and CI logs.
type consoleProgress struct {
	W       io.Writer
	Verbose bool

	mu       sync.Mutex
	dotWidth int
}

// NewConsoleProgress creates a console reporter writing to stdout.
func NewConsoleProgress(verbose bool) ProgressReporter {
	return NewConsoleProgressTo(os.Stdout, verbose)
}

// NewConsoleProgressTo creates a console reporter writing to w.
func NewConsoleProgressTo(w io.Writer, verbose bool) ProgressReporter {
	return &consoleProgress{W: w, Verbose: verbose}
}

func (p *consoleProgress) RunStart(pairs []inventory.Pair, dryRun bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	maxName := 0
	for _, pair := range pairs {
		maxName = max(maxName, len(pair.Source))
	}
	p.dotWidth = maxName + 6

	mode := cli.Yellow("dry run")
	if !dryRun {
		mode = cli.Bold("execute")
	}
	fmt.Fprintf(p.W, "\ntnmigrate: %d device pair(s), mode: %s\n\n", len(pairs), mode)
}

func (p *consoleProgress) PairStart(pair inventory.Pair, index, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.W, "Migrating %s (%d/%d)\n", pair.Source, index+1, total)
}

func (p *consoleProgress) PairEnd(o *Outcome, index, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tag := fmt.Sprintf("[%d/%d]", index+1, total)
	padded := cli.DotPad(o.Pair.Source, p.dotWidth)
	fmt.Fprintf(p.W, "  %-7s %s %s  (%s)\n", tag, padded, colorStatus(o.Status), cli.FormatDuration(o.Duration))

	if o.Failed() {
		fmt.Fprintf(p.W, "          %s: %s\n", o.Stage, cli.Dim(o.Err.Error()))
	}
	if p.Verbose {
		for _, w := range o.Warnings {
			fmt.Fprintf(p.W, "          %s\n", cli.Yellow(w))
		}
		for _, name := range o.Dropped {
			fmt.Fprintf(p.W, "          %s\n", cli.Dim("dropped "+name))
		}
		for _, name := range o.RenamedNames() {
			fmt.Fprintf(p.W, "          %s\n", cli.Dim("renamed "+name))
		}
	}
	if o.DryRun && o.Diff != "" {
		fmt.Fprintf(p.W, "\n%s\n\n", indent(o.Diff, "          "))
	}
}

func (p *consoleProgress) RunEnd(outcomes []*Outcome, duration time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	counts := map[Status]int{}
	for _, o := range outcomes {
		counts[o.Status]++
	}

	fmt.Fprintf(p.W, "\n---\n")
	t := cli.NewTableTo(p.W, "SOURCE", "TARGET", "HOSTNAME", "STATUS", "STAGE", "WARNINGS", "DROPPED", "RENAMED", "DURATION")
	for _, o := range outcomes {
		stage := o.Stage
		if stage == "" {
			stage = "-"
		}
		host := o.TargetHostname
		if host == "" {
			host = "-"
		}
		t.Row(o.Pair.Source, o.Pair.Target, host, string(o.Status), stage,
			fmt.Sprint(len(o.Warnings)), fmt.Sprint(len(o.Dropped)), fmt.Sprint(len(o.Renamed)),
			cli.FormatDuration(o.Duration))
	}
	t.Flush()

	fmt.Fprintf(p.W, "\ntnmigrate: %d pair(s)", len(outcomes))
	var parts []string
	if n := counts[StatusSucceeded]; n > 0 {
		parts = append(parts, cli.Green(fmt.Sprintf("%d succeeded", n)))
	}
	if n := counts[StatusDryRun]; n > 0 {
		parts = append(parts, cli.Yellow(fmt.Sprintf("%d dry-run", n)))
	}
	if n := counts[StatusFailed]; n > 0 {
		parts = append(parts, cli.Red(fmt.Sprintf("%d failed", n)))
	}
	if len(parts) > 0 {
		fmt.Fprintf(p.W, ": %s", strings.Join(parts, ", "))
	}
	fmt.Fprintf(p.W, "  (%s)\n", cli.FormatDuration(duration))

	if counts[StatusFailed] > 0 {
		fmt.Fprintf(p.W, "\n  FAILED:\n")
		for i, o := range outcomes {
			if !o.Failed() {
				continue
			}
			fmt.Fprintf(p.W, "    [%d]  %s\n", i+1, o.Pair)
			fmt.Fprintf(p.W, "         %s: %s\n", o.Stage, cli.Truncate(o.Err.Error(), 160))
			if o.Committed() {
				fmt.Fprintf(p.W, "         %s\n", cli.Yellow("target configuration was committed"))
			}
		}
	}
	fmt.Fprintln(p.W)
}

func colorStatus(s Status) string {
	switch s {
	case StatusSucceeded:
		return cli.Green("OK")
	case StatusDryRun:
		return cli.Yellow("DRY-RUN")
	case StatusFailed:
		return cli.Red("FAIL")
	default:
		return string(s)
	}
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
