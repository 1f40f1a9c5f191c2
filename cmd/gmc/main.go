// Package main implements the gmc CLI: the reference front end for the
// stateless model checker, binding spec §6's flag surface onto
// internal/gmc/explore.
//
// Usage:
//
//	gmc --model=sc program.gmcir
//	gmc --model=tso --threads=4 --print-exec-graphs program.gmcir
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/kolkov/gmc/internal/gmc/checker"
	"github.com/kolkov/gmc/internal/gmc/event"
	"github.com/kolkov/gmc/internal/gmc/explore"
	"github.com/kolkov/gmc/internal/gmc/ir"
)

// emptyEvent, passed to Driver.WriteDOT, renders the whole graph rather
// than cutting it off at a specific offending event.
var emptyEvent = event.Event{}

// Exit codes (spec §6 "Exit codes").
const (
	exitSuccess = 0
	exitVerify  = 10 // EVERIFY: an error witness was found
	exitParse   = 11 // EPARSE: bad input
	exitPrint   = 12 // EPRINT: output failure
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("gmc", flag.ContinueOnError)
	model := fs.StringP("model", "m", "sc", "memory model: sc|tso|ra|rc11|imm")
	unroll := fs.Int("unroll", 0, "bound on loop unrolling performed by the pass pipeline (informational; the pipeline runs outside this binary)")
	disableSpinAssume := fs.Bool("disable-spin-assume", false, "disable spin-loop elision via the spin-assume pass (informational)")
	checkLiveness := fs.Bool("check-liveness", false, "treat blocked-forever executions as liveness errors")
	disableRaceDetection := fs.Bool("disable-race-detection", false, "suppress RaceNotAtomic/RaceFreeMalloc reporting")
	lapor := fs.Bool("lapor", false, "enable LAPOR lock-acquire priority scheduling")
	persevere := fs.Bool("persevere", false, "accepted for compatibility; exploration always continues past error witnesses")
	symmetryReduction := fs.Bool("symmetry-reduction", false, "enable symmetric-thread scheduling reduction")
	printExecGraphs := fs.Bool("print-exec-graphs", false, "print a DOT rendering of the final explored graph to stdout once exploration ends")
	dotFile := fs.String("dot-file", "", "on error, write a zstd-compressed DOT rendering of the whole final explored graph (not cut at the error event) to this file")
	threads := fs.Int("threads", 1, "worker pool size; 1 runs sequentially")
	seed := fs.Int64("seed", 0, "PRNG seed for the random scheduling policy")
	metricsAddr := fs.String("metrics-addr", "", "serve live Prometheus exploration counters on this address while running (e.g. :9090)")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitParse
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: gmc [flags] <input.gmcir>")
		return exitParse
	}

	mod, info, err := loadModule(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "gmc: parse:", err)
		return exitParse
	}

	opts := explore.Options{
		Model:                checker.Model(*model),
		Seed:                 *seed,
		CheckLiveness:        *checkLiveness,
		DisableRaceDetection: *disableRaceDetection,
		LAPOR:                *lapor,
		SymmetryReduction:    *symmetryReduction,
	}
	// unroll/disable-spin-assume are applied by the (out-of-scope) pass
	// pipeline before this binary ever sees the module; accepted here only
	// so operators can pass the same flag line through to both stages.
	_ = *unroll
	_ = *disableSpinAssume
	// persevere: Run already explores every worklist item regardless of
	// earlier errors, so the default behavior already matches persevere on;
	// there is no non-persevering mode to toggle off in this implementation.
	_ = *persevere

	d, err := explore.New(mod, info, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "gmc: setup:", err)
		return exitParse
	}

	var stopMetrics context.CancelFunc
	if *metricsAddr != "" {
		m := explore.NewMetrics(prometheus.DefaultRegisterer)
		go serveMetrics(*metricsAddr)
		var ctx context.Context
		ctx, stopMetrics = context.WithCancel(context.Background())
		go sampleMetrics(ctx, m, d.Result())
	}

	if *threads > 1 {
		err = d.RunParallel(context.Background(), *threads)
	} else {
		err = d.Run()
	}
	if stopMetrics != nil {
		stopMetrics()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "gmc: explore:", err)
		return exitParse
	}

	res := d.Result()
	fmt.Fprintf(os.Stderr, "gmc: run %s\n", res.RunID)
	if *printExecGraphs {
		if err := d.WriteDOT(os.Stdout, emptyEvent); err != nil {
			fmt.Fprintln(os.Stderr, "gmc: print-exec-graphs:", err)
			return exitPrint
		}
	}

	errs := res.Errors()
	if len(errs) == 0 {
		fmt.Printf("explored=%d blocked=%d duplicates=%d\n", res.Explored(), res.ExploredBlocked(), res.Duplicates())
		return exitSuccess
	}

	fmt.Printf("explored=%d blocked=%d duplicates=%d errors=%d\n", res.Explored(), res.ExploredBlocked(), res.Duplicates(), len(errs))
	for _, e := range errs {
		fmt.Printf("  %s\n", e)
	}
	if *dotFile != "" {
		if err := writeCompressedDOT(d, *dotFile); err != nil {
			fmt.Fprintln(os.Stderr, "gmc: dot-file:", err)
			return exitPrint
		}
	}
	return exitVerify
}

// serveMetrics exposes res's live gauges over HTTP until the process exits.
// A failure to bind is reported but doesn't abort exploration itself.
func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		fmt.Fprintln(os.Stderr, "gmc: metrics server:", err)
	}
}

// sampleMetrics pushes res's counters into m once a second until ctx is
// canceled, plus a final sample at cancellation so the last values served
// reflect the finished run.
func sampleMetrics(ctx context.Context, m *explore.Metrics, res *explore.Result) {
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			m.Sample(res)
			return
		case <-t.C:
			m.Sample(res)
		}
	}
}

func loadModule(path string) (*ir.Module, *ir.ModuleInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	mod, err := ir.DecodeModule(f)
	if err != nil {
		return nil, nil, err
	}
	infoPath := path + ".info.json"
	inf, err := os.Open(infoPath)
	if err != nil {
		if os.IsNotExist(err) {
			return mod, &ir.ModuleInfo{
				Instructions: map[uint64]ir.SourceLoc{},
				Functions:    map[string]ir.SourceLoc{},
				Annotations:  map[uint64]ir.AnnotExpr{},
				Variables:    map[uint64]string{},
			}, nil
		}
		return nil, nil, err
	}
	defer inf.Close()
	info, err := ir.DecodeModuleInfo(inf)
	if err != nil {
		return nil, nil, err
	}
	return mod, info, nil
}

// writeCompressedDOT renders the whole final explored graph to DOT and
// writes it zstd-compressed to path; the rendering is not restricted to the
// events up to the error.
func writeCompressedDOT(d *explore.Driver, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create dot file")
	}
	defer f.Close()
	enc, err := zstd.NewWriter(f)
	if err != nil {
		return errors.Wrap(err, "zstd writer")
	}
	defer enc.Close()
	return d.WriteDOT(enc, emptyEvent)
}
