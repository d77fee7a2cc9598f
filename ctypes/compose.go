package ctypes

import "fmt"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// IncompatibleError is returned by Compose when two declarations of the
// same entity disagree in a way that is not merely "one is less
// specific".
type IncompatibleError struct {
	A, B Type
}

func (e *IncompatibleError) Error() string {
	return fmt.Sprintf("incompatible types: %q and %q", e.A.String(), e.B.String())
}

// ---------------------
// ----- functions -----
// ---------------------

// Equal reports structural equality. Record/enum types compare equal iff
// they name the same registry handle — the registries are the single
// source of truth for record/enum identity.
func Equal(a, b Type) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KBasic:
		return a.Elem == b.Elem
	case KPointer:
		return Equal(*a.Target, *b.Target)
	case KArray:
		if a.SizeKnown != b.SizeKnown {
			return false
		}
		if a.SizeKnown && a.Size != b.Size {
			return false
		}
		return Equal(*a.Target, *b.Target)
	case KRecord:
		return a.Record == b.Record
	case KEnum:
		return a.Enum == b.Enum
	case KFunction:
		if !Equal(*a.Return, *b.Return) || a.Conv != b.Conv {
			return false
		}
		if len(a.Params) != len(b.Params) {
			return false
		}
		for i := range a.Params {
			if !Equal(a.Params[i], b.Params[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// PointerCompatible reports whether two pointer target types may be
// compared/converted without a diagnostic, ignoring top-level qualifier
// differences — void* is compatible with any object pointer.
func PointerCompatible(a, b Type) bool {
	if Equal(a, b) {
		return true
	}
	if a.IsVoid() || b.IsVoid() {
		return true
	}
	return false
}

// Compose combines two declarations of the same C-language entity into a
// single type that reconciles them, preserving the more complete
// information:
//
//	void f(); void f(int); -> composes to the latter
//	int a[]; int a[5]; -> composes to int a[5]
//
// An IncompatibleError is returned when neither declaration is a strict
// refinement of the other.
func Compose(a, b Type) (Type, error) {
	if a.Kind != b.Kind {
		return Type{}, &IncompatibleError{a, b}
	}
	switch a.Kind {
	case KBasic:
		if a.Elem != b.Elem {
			return Type{}, &IncompatibleError{a, b}
		}
		return a, nil
	case KPointer:
		inner, err := Compose(*a.Target, *b.Target)
		if err != nil {
			return Type{}, err
		}
		return NewPointer(inner), nil
	case KArray:
		switch {
		case a.SizeKnown && b.SizeKnown:
			if a.Size != b.Size {
				return Type{}, &IncompatibleError{a, b}
			}
		case !a.SizeKnown && !b.SizeKnown:
			// Neither pins a length yet; keep deferring.
		}
		inner, err := Compose(*a.Target, *b.Target)
		if err != nil {
			return Type{}, err
		}
		if a.SizeKnown {
			return NewArray(inner, true, a.Size), nil
		}
		if b.SizeKnown {
			return NewArray(inner, true, b.Size), nil
		}
		return NewArray(inner, false, 0), nil
	case KRecord:
		if a.Record != b.Record {
			return Type{}, &IncompatibleError{a, b}
		}
		return a, nil
	case KEnum:
		if a.Enum != b.Enum {
			return Type{}, &IncompatibleError{a, b}
		}
		return a, nil
	case KFunction:
		ret, err := Compose(*a.Return, *b.Return)
		if err != nil {
			return Type{}, err
		}
		if a.Conv != b.Conv {
			return Type{}, &IncompatibleError{a, b}
		}
		// `void f(); void f(int);` — an empty (unspecified) parameter
		// list composes with a fully specified one.
		switch {
		case len(a.Params) == 0 && len(b.Params) > 0:
			return NewFunction(ret, b.Params, a.Conv), nil
		case len(b.Params) == 0 && len(a.Params) > 0:
			return NewFunction(ret, a.Params, a.Conv), nil
		}
		if len(a.Params) != len(b.Params) {
			return Type{}, &IncompatibleError{a, b}
		}
		params := make([]Type, len(a.Params))
		for i := range a.Params {
			p, err := Compose(a.Params[i], b.Params[i])
			if err != nil {
				return Type{}, err
			}
			params[i] = p
		}
		return NewFunction(ret, params, a.Conv), nil
	}
	return Type{}, &IncompatibleError{a, b}
}

// IsComplete reports whether t is a complete type for the purposes of
// variable declaration and sizeof. Completeness of
// record/enum types additionally depends on the registry entry's defined
// flag, which this package cannot see — callers pass recordDefined and
// enumDefined to look it up; arrays recurse into their Target element type.
func IsComplete(t Type, recordDefined func(RecordHandle) bool, enumDefined func(EnumHandle) bool) bool {
	switch t.Kind {
	case KBasic:
		return t.Elem != Void
	case KPointer:
		return true // pointer to incomplete type is itself complete.
	case KArray:
		if !t.SizeKnown {
			return false
		}
		return IsComplete(*t.Target, recordDefined, enumDefined)
	case KRecord:
		return recordDefined(t.Record)
	case KEnum:
		return enumDefined(t.Enum)
	case KFunction:
		return false
	}
	return false
}
