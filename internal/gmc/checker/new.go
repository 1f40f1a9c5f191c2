package checker

import (
	"github.com/pkg/errors"

	"github.com/kolkov/gmc/internal/gmc/graph"
)

// Model names the memory model a run checks against (spec §6 "-m/--model").
type Model string

const (
	ModelSC   Model = "sc"
	ModelTSO  Model = "tso"
	ModelRA   Model = "ra"
	ModelRC11 Model = "rc11"
	ModelIMM  Model = "imm"
)

// New constructs the Checker for model over g.
func New(model Model, g *graph.Graph) (Checker, error) {
	switch model {
	case ModelSC:
		return NewSC(g), nil
	case ModelTSO:
		return NewTSO(g), nil
	case ModelRA:
		return NewRA(g), nil
	case ModelRC11:
		return NewRC11(g), nil
	case ModelIMM:
		return NewIMM(g), nil
	default:
		return nil, errors.Errorf("checker: unknown model %q", model)
	}
}
