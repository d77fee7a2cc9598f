// Package ctypes implements the C type model: a tagged
// union of basic, pointer, array, record, enum and function types, plus
// clone, structural equality, composition, rank and printing.
//
// Record and enum variants carry a handle into the record/enum registries
// (package registry) rather than an owning pointer — the handle does not
// own the referent, and registries outlive every Type that names one.
package ctypes

import "fmt"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// ElemType enumerates the elementary basic-type tags. Logic is
// a distinct truth-value type internal to the core, never user-nameable,
// produced only by relational/equality/logical operators.
type ElemType int

const (
	Void ElemType = iota
	Char
	UChar
	Short
	UShort
	Int
	UInt
	Long
	ULong
	LongLong
	ULongLong
	Logic
)

var elemNames = [...]string{
	Void: "void", Char: "char", UChar: "unsigned char", Short: "short",
	UShort: "unsigned short", Int: "int", UInt: "unsigned int", Long: "long",
	ULong: "unsigned long", LongLong: "long long", ULongLong: "unsigned long long",
	Logic: "<logic>",
}

func (e ElemType) String() string { return elemNames[e] }

// widths holds the fixed bit width model this target mandates: a single
// model, not a target parameter". Pointers and enums are 16 bits; int's
// representable range is therefore −32768…32767.
var widths = [...]int{
	Void: 0, Char: 8, UChar: 8, Short: 16, UShort: 16, Int: 16, UInt: 16,
	Long: 32, ULong: 32, LongLong: 64, ULongLong: 64, Logic: 16,
}

// Width returns the bit width of elementary type e.
func (e ElemType) Width() int { return widths[e] }

// Signed reports whether e is a signed integer elementary type. Logic and
// void are treated as unsigned for conversion purposes since they never
// participate in sign-sensitive arithmetic.
func (e ElemType) Signed() bool {
	switch e {
	case Char, Short, Int, Long, LongLong:
		return true
	default:
		return false
	}
}

// rankOrder gives the integer conversion rank used by the usual
// arithmetic conversions ; higher ranks win ties between
// same-signedness operands.
var rankOrder = [...]int{
	Void: -1, Char: 1, UChar: 1, Short: 2, UShort: 2, Int: 2, UInt: 2,
	Long: 3, ULong: 3, LongLong: 4, ULongLong: 4, Logic: 0,
}

// Rank returns e's integer conversion rank.
func (e ElemType) Rank() int { return rankOrder[e] }

// Kind discriminates the six C type variants.
type Kind int

const (
	KBasic Kind = iota
	KPointer
	KArray
	KRecord
	KEnum
	KFunction
)

// CallConv enumerates the calling conventions a function type carries.
type CallConv int

const (
	ConvNormal CallConv = iota
	ConvUserServiceRoutine
)

// RecordHandle and EnumHandle are stable, non-owning references into the
// record and enum registries (package registry). Spec Design Notes:
// "arena-plus-index or generational-handle: the registry owns the
// storage, types hold a handle".
type RecordHandle int

// InvalidRecord marks a record type that a declarator has not yet been
// attached to a tag for (should never survive declaration processing).
const InvalidRecord RecordHandle = -1

type EnumHandle int

const InvalidEnum EnumHandle = -1

// Type is the C type model sum type. Exactly one of the variant-specific
// field groups is meaningful, selected by Kind.
type Type struct {
	Kind Kind

	// KBasic
	Elem ElemType

	// KPointer, KArray (element/target type)
	Target *Type

	// KArray
	SizeKnown bool
	Size uint64

	// KRecord
	Record RecordHandle

	// KEnum
	Enum EnumHandle

	// KFunction
	Return *Type
	Params []Type
	Conv CallConv
	Variadic bool // parsed but never legal to call through.
}

// ---------------------
// ----- constructors --
// ---------------------

// NewBasic builds a basic(elemtype) type.
func NewBasic(e ElemType) Type { return Type{Kind: KBasic, Elem: e} }

// NewInt builds an integer basic type by (signed, rank)
// ("a builder for integers by (signed, rank)"). rank 1=char, 2=short/int,
// 3=long, 4=long long.
func NewInt(signed bool, rank int) Type {
	var e ElemType
	switch rank {
	case 1:
		if signed {
			e = Char
		} else {
			e = UChar
		}
	case 3:
		if signed {
			e = Long
		} else {
			e = ULong
		}
	case 4:
		if signed {
			e = LongLong
		} else {
			e = ULongLong
		}
	default:
		if signed {
			e = Int
		} else {
			e = UInt
		}
	}
	return NewBasic(e)
}

// NewPointer builds pointer-to-target.
func NewPointer(target Type) Type {
	t := target
	return Type{Kind: KPointer, Target: &t}
}

// NewArray builds array-of-element, with an optional known length.
func NewArray(elem Type, sizeKnown bool, size uint64) Type {
	e := elem
	return Type{Kind: KArray, Target: &e, SizeKnown: sizeKnown, Size: size}
}

// NewRecord builds a reference to a record registry entry.
func NewRecord(h RecordHandle) Type { return Type{Kind: KRecord, Record: h} }

// NewEnum builds a reference to an enum registry entry.
func NewEnum(h EnumHandle) Type { return Type{Kind: KEnum, Enum: h} }

// NewFunction builds return(params...) with the given calling convention.
func NewFunction(ret Type, params []Type, conv CallConv) Type {
	r := ret
	ps := make([]Type, len(params))
	copy(ps, params)
	return Type{Kind: KFunction, Return: &r, Params: ps, Conv: conv}
}

// ---------------------
// ----- queries -------
// ---------------------

// IsBasic, IsPointer,... are convenience predicates used throughout the
// expression code generator's operand-kind dispatch.
func (t Type) IsBasic() bool { return t.Kind == KBasic }
func (t Type) IsVoid() bool { return t.Kind == KBasic && t.Elem == Void }
func (t Type) IsLogic() bool { return t.Kind == KBasic && t.Elem == Logic }
func (t Type) IsPointer() bool { return t.Kind == KPointer }
func (t Type) IsArray() bool { return t.Kind == KArray }
func (t Type) IsRecord() bool { return t.Kind == KRecord }
func (t Type) IsEnum() bool { return t.Kind == KEnum }
func (t Type) IsFunction() bool { return t.Kind == KFunction }

// IsIntegral reports whether t participates in integer arithmetic: a
// basic type other than void, or an enum.
func (t Type) IsIntegral() bool {
	if t.Kind == KEnum {
		return true
	}
	return t.Kind == KBasic && t.Elem != Void && t.Elem != Logic
}

// IsScalar reports whether t is legal as an operand requiring a scalar
//: integral, logic,
// pointer or enum.
func (t Type) IsScalar() bool {
	return t.IsIntegral() || t.IsLogic() || t.IsPointer() || t.Kind == KEnum
}

// Signed reports the signedness of an integral type for UAC purposes.
func (t Type) Signed() bool {
	if t.Kind == KBasic {
		return t.Elem.Signed()
	}
	return true // enums are signed 16-bit values (see Width).
}

// Width returns the bit width used for IR operand sizing.
func (t Type) Width() int {
	switch t.Kind {
	case KBasic:
		return t.Elem.Width()
	case KPointer, KEnum:
		return 16
	default:
		return 0
	}
}

// Rank returns the integer conversion rank.
func (t Type) Rank() int {
	if t.Kind == KBasic {
		return t.Elem.Rank()
	}
	return 0
}

// Clone deep-copies t, as required for assignment into expression
// results, symbol table entries and IR type expressions.
func (t Type) Clone() Type {
	c := t
	if t.Target != nil {
		tc := t.Target.Clone()
		c.Target = &tc
	}
	if t.Return != nil {
		rc := t.Return.Clone()
		c.Return = &rc
	}
	if t.Params != nil {
		c.Params = make([]Type, len(t.Params))
		for i, p := range t.Params {
			c.Params[i] = p.Clone()
		}
	}
	return c
}

// String prints a human-readable rendering, used only in diagnostics.
func (t Type) String() string {
	switch t.Kind {
	case KBasic:
		return t.Elem.String()
	case KPointer:
		return t.Target.String() + " *"
	case KArray:
		if t.SizeKnown {
			return fmt.Sprintf("%s[%d]", t.Target.String(), t.Size)
		}
		return t.Target.String() + "[]"
	case KRecord:
		return fmt.Sprintf("record#%d", t.Record)
	case KEnum:
		return fmt.Sprintf("enum#%d", t.Enum)
	case KFunction:
		s := t.Return.String() + " ("
		for i, p := range t.Params {
			if i > 0 {
				s += ", "
			}
			s += p.String()
		}
		return s + ")"
	default:
		return "<invalid type>"
	}
}
