// Package value implements the tagged-union value model (spec §3 "Value"):
// signed integer, unsigned integer (arbitrary width <= 64), or a pointer
// holding an Addr.
package value

import (
	"fmt"

	"github.com/kolkov/gmc/internal/gmc/addr"
)

// Kind discriminates the Value union.
type Kind uint8

const (
	// Signed holds an int64 payload.
	Signed Kind = iota
	// Unsigned holds a uint64 payload truncated to Width bits.
	Unsigned
	// Pointer holds an addr.Addr payload.
	Pointer
)

// Value is a tagged union over {signed int, unsigned int (<=64 bits),
// pointer}. The zero Value is the signed integer 0, matching the teacher's
// convention that zero-initialized state represents "never accessed/unset".
type Value struct {
	kind  Kind
	width uint8 // bit width for Unsigned, ignored otherwise
	i     int64
	u     uint64
	p     addr.Addr
}

// Int constructs a signed integer value.
func Int(v int64) Value { return Value{kind: Signed, i: v} }

// Uint constructs an unsigned integer value of the given bit width (1..64).
func Uint(v uint64, width uint8) Value {
	if width == 0 || width > 64 {
		width = 64
	}
	if width < 64 {
		v &= (uint64(1) << width) - 1
	}
	return Value{kind: Unsigned, u: v, width: width}
}

// Ptr constructs a pointer value.
func Ptr(a addr.Addr) Value { return Value{kind: Pointer, p: a} }

// Kind reports the union discriminant.
func (v Value) Kind() Kind { return v.kind }

// AsInt returns the signed payload; valid only when Kind() == Signed.
func (v Value) AsInt() int64 { return v.i }

// AsUint returns the unsigned payload and its bit width; valid only when
// Kind() == Unsigned.
func (v Value) AsUint() (uint64, uint8) { return v.u, v.width }

// AsAddr returns the pointer payload; valid only when Kind() == Pointer.
func (v Value) AsAddr() addr.Addr { return v.p }

// IsZero reports whether the value is the numeric/pointer zero of its kind,
// used by the interpreter's assume/branch handling.
func (v Value) IsZero() bool {
	switch v.kind {
	case Signed:
		return v.i == 0
	case Unsigned:
		return v.u == 0
	case Pointer:
		return v.p == 0
	default:
		return false
	}
}

// Equal compares two values for bitwise equality of kind and payload, the
// predicate CAS/assume logic needs.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Signed:
		return a.i == b.i
	case Unsigned:
		return a.u == b.u
	case Pointer:
		return a.p == b.p
	default:
		return false
	}
}

func (v Value) String() string {
	switch v.kind {
	case Signed:
		return fmt.Sprintf("%d", v.i)
	case Unsigned:
		return fmt.Sprintf("%du%d", v.u, v.width)
	case Pointer:
		return v.p.String()
	default:
		return "<invalid value>"
	}
}
