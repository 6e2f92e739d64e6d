// Package serial decides whether function signatures can cross a
// serialization boundary.
package serial

import (
	"github.com/phobologic/serialcheck/internal/model"
)

// Policy relaxes the single-level pointer-to-base case. No setting makes any
// other pointer shape serializable.
type Policy struct {
	AllowCharPointer  bool
	AllowVoidPointer  bool
	AllowBasicPointer bool // subsumes the char and void switches
}

// Check reports whether the return type and every parameter type of fn are
// serializable under p.
func Check(fn *model.Function, p Policy) bool {
	if !IsSerializable(fn.Typed, p) {
		return false
	}
	for i := range fn.Parameters {
		if !IsSerializable(fn.Parameters[i].Typed, p) {
			return false
		}
	}
	return true
}

// IsSerializable reports whether values of type t can be flattened and
// rebuilt on the other side of a boundary. A nil type is treated as void.
func IsSerializable(t *model.Typed, p Policy) bool {
	if t == nil {
		return true
	}

	if depth := t.PointerDepth(); depth > 0 {
		if depth != 1 {
			return false
		}
		if _, ok := t.Value.(model.Base); !ok {
			return false
		}
		switch {
		case p.AllowBasicPointer:
			return true
		case t.Name == "char":
			return p.AllowCharPointer
		case t.Name == "void":
			return p.AllowVoidPointer
		}
		return false
	}

	switch v := t.Value.(type) {
	case model.Base, model.Enum:
		return true
	case model.Typedef:
		return IsSerializable(v.Nested, p)
	case model.Array:
		return IsSerializable(v.Nested, p)
	case model.Struct:
		return membersSerializable(v.Members, p)
	case model.Union:
		return membersSerializable(v.Members, p)
	case model.Func, model.Circular:
		return false
	}
	return false
}

func membersSerializable(members []model.Member, p Policy) bool {
	for i := range members {
		if !IsSerializable(members[i].Typed, p) {
			return false
		}
	}
	return true
}
