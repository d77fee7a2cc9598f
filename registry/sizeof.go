package registry

import (
	"fmt"

	"cscore/ctypes"
)

// ----------------------------
// ----- functions -----------
// ----------------------------

// Registries bundles the record and enum registries so sizeof, the only
// operation the C type model needs registry lookups for, has a single
// home outside package ctypes (which must not import registry, since
// registry already imports ctypes — spec Design Notes: "arena-plus-index
//... the registry owns the storage, types hold a handle").
type Registries struct {
	Records *Records
	Enums *Enums
}

// New returns a fresh pair of empty registries, one per compilation.
func New() *Registries {
	return &Registries{Records: NewRecords(), Enums: NewEnums()}
}

// Complete reports whether t is a complete type, resolving record/enum
// definedness through the registries.
func (rg *Registries) Complete(t ctypes.Type) bool {
	return ctypes.IsComplete(t, rg.Records.Defined, rg.Enums.Defined)
}

// Sizeof evaluates sizeof(T):
//
//	basic -> width/8
//	pointer -> 2
//	enum -> 2
//	array -> element size * length (error if length unknown)
//	record -> sum (struct) or max (union) of member sizes
//
// The second return is false when t is incomplete (unknown array length,
// undefined record/enum, or void/function type).
func (rg *Registries) Sizeof(t ctypes.Type) (int, bool) {
	switch t.Kind {
	case ctypes.KBasic:
		if t.Elem == ctypes.Void {
			return 0, false
		}
		return t.Elem.Width() / 8, true
	case ctypes.KPointer:
		return 2, true
	case ctypes.KEnum:
		if !rg.Enums.Defined(t.Enum) {
			return 0, false
		}
		return 2, true
	case ctypes.KArray:
		if !t.SizeKnown {
			return 0, false
		}
		elemSz, ok := rg.Sizeof(*t.Target)
		if !ok {
			return 0, false
		}
		return elemSz * int(t.Size), true
	case ctypes.KRecord:
		e := rg.Records.Lookup(t.Record)
		if !e.Defined {
			return 0, false
		}
		total := 0
		for _, m := range e.Members {
			sz, ok := rg.Sizeof(m.Type)
			if !ok {
				return 0, false
			}
			if e.Kind == Union {
				if sz > total {
					total = sz
				}
			} else {
				total += sz
			}
		}
		return total, true
	default:
		return 0, false
	}
}

// SizeofError formats the standard diagnostic for sizeof on an incomplete
// type.
func SizeofError(t ctypes.Type) error {
	return fmt.Errorf("sizeof applied to incomplete type %q", t.String())
}
