package explore

import (
	"fmt"
	"io"

	"github.com/kolkov/gmc/internal/gmc/event"
)

// WriteDOT renders the current graph's (po ∪ rf) edges up to (and including)
// upTo as a DOT digraph (spec §6 "optionally a DOT graph of (po ∪ rf) up to
// the error event"). A zero upTo renders the whole graph.
func (d *Driver) WriteDOT(w io.Writer, upTo event.Event) error {
	includeAll := upTo == (event.Event{})
	include := func(e event.Event) bool {
		if includeAll {
			return true
		}
		return e.Thread < upTo.Thread || (e.Thread == upTo.Thread && e.Index <= upTo.Index)
	}

	bw := &errWriter{w: w}
	fmt.Fprintln(bw, "digraph exec {")
	for t := 0; t < d.g.NumThreads(); t++ {
		for i := 0; i < d.g.ThreadLen(uint32(t)); i++ {
			e := event.Event{Thread: uint32(t), Index: uint32(i)}
			if !include(e) {
				continue
			}
			l := d.g.Label(e)
			if l == nil {
				continue
			}
			fmt.Fprintf(bw, "  %q [label=%q];\n", nodeID(e), nodeLabel(l))
			if i > 0 {
				prev := event.Event{Thread: uint32(t), Index: uint32(i - 1)}
				if include(prev) {
					fmt.Fprintf(bw, "  %q -> %q [label=\"po\"];\n", nodeID(prev), nodeID(e))
				}
			}
			if rl, ok := l.(*event.ReadLabel); ok && !rl.Rf.IsBottom() && include(rl.Rf) {
				fmt.Fprintf(bw, "  %q -> %q [label=\"rf\",style=dashed];\n", nodeID(rl.Rf), nodeID(e))
			}
		}
	}
	fmt.Fprintln(bw, "}")
	return bw.err
}

func nodeID(e event.Event) string {
	return fmt.Sprintf("t%d_%d", e.Thread, e.Index)
}

func nodeLabel(l event.Label) string {
	return fmt.Sprintf("k%d @ t%d[%d]", l.Kind(), l.Pos().Thread, l.Pos().Index)
}

// errWriter swallows per-write errors and surfaces the first one, avoiding
// an `if err != nil` after every Fprint in WriteDOT.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}
