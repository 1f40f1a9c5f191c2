package explore

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/kolkov/gmc/internal/gmc/interp"
)

// Result accumulates one exploration run's verdict counters (spec §4.H
// "result counters", §7 "verification result"). Fields are accessed through
// atomic/mutex-guarded methods so a worker pool (parallel.go) can fold
// several clones' results into a parent without a separate lock per run.
type Result struct {
	// RunID identifies this run for metrics/report correlation across a
	// parallel fleet of worker clones (spec's domain stack: "Identifiers").
	RunID uuid.UUID

	explored        uint64
	exploredBlocked uint64
	duplicates      uint64

	mu     sync.Mutex
	errors []interp.ErrorKind
}

// NewResult returns a zeroed Result tagged with a fresh run id.
func NewResult() *Result {
	return &Result{RunID: uuid.New()}
}

// IncExplored records one fully-explored, error-free, non-blocked execution.
func (r *Result) IncExplored() { atomic.AddUint64(&r.explored, 1) }

// IncExploredBlocked records one execution that quiesced with a thread still
// blocked (deadlock/starvation, spec §7 error taxonomy's Liveness family).
func (r *Result) IncExploredBlocked() { atomic.AddUint64(&r.exploredBlocked, 1) }

// IncDuplicate records one work item the RevisitSet suppressed as a
// already-explored duplicate.
func (r *Result) IncDuplicate() { atomic.AddUint64(&r.duplicates, 1) }

// AddErrors records verification errors found in the current execution.
func (r *Result) AddErrors(errs []interp.ErrorKind) {
	if len(errs) == 0 {
		return
	}
	r.mu.Lock()
	r.errors = append(r.errors, errs...)
	r.mu.Unlock()
}

// Explored returns the count of fully-explored, error-free executions.
func (r *Result) Explored() uint64 { return atomic.LoadUint64(&r.explored) }

// ExploredBlocked returns the count of executions that quiesced blocked.
func (r *Result) ExploredBlocked() uint64 { return atomic.LoadUint64(&r.exploredBlocked) }

// Duplicates returns the count of work items suppressed as duplicates.
func (r *Result) Duplicates() uint64 { return atomic.LoadUint64(&r.duplicates) }

// Errors returns every verification error found across the run.
func (r *Result) Errors() []interp.ErrorKind {
	r.mu.Lock()
	out := append([]interp.ErrorKind(nil), r.errors...)
	r.mu.Unlock()
	return out
}

// Merge folds other's counters into r, for a parallel worker pool summing
// clone results into the parent (spec §5).
func (r *Result) Merge(other *Result) {
	atomic.AddUint64(&r.explored, other.Explored())
	atomic.AddUint64(&r.exploredBlocked, other.ExploredBlocked())
	atomic.AddUint64(&r.duplicates, other.Duplicates())
	r.AddErrors(other.Errors())
}
