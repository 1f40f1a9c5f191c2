package ir

import (
	"io"

	"github.com/pkg/errors"
)

// DecodeModule parses the JSON-encoded IR module produced by the
// (out-of-scope) front-end, mirroring DecodeModuleInfo's side table
// decoding (spec §6 "Input… an IR module… consumed after transformation by
// the pass pipeline").
func DecodeModule(r io.Reader) (*Module, error) {
	var mod Module
	dec := json.NewDecoder(r)
	if err := dec.Decode(&mod); err != nil {
		return nil, errors.Wrap(err, "ir: decode module")
	}
	if _, ok := mod.Functions[mod.Entry]; !ok {
		return nil, errors.Errorf("ir: entry function %q not found", mod.Entry)
	}
	return &mod, nil
}
