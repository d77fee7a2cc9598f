package ctypes

import "testing"

func TestElemTypeWidthAndSign(t *testing.T) {
	tests := []struct {
		name   string
		e      ElemType
		width  int
		signed bool
	}{
		{"char", Char, 8, true},
		{"unsigned char", UChar, 8, false},
		{"int", Int, 16, true},
		{"unsigned int", UInt, 16, false},
		{"long", Long, 32, true},
		{"long long", LongLong, 64, true},
		{"logic", Logic, 16, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.e.Width(); got != tt.width {
				t.Errorf("Width() = %d, want %d", got, tt.width)
			}
			if got := tt.e.Signed(); got != tt.signed {
				t.Errorf("Signed() = %v, want %v", got, tt.signed)
			}
		})
	}
}

func TestTypeEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Type
		want bool
	}{
		{"same basic", NewBasic(Int), NewBasic(Int), true},
		{"different basic", NewBasic(Int), NewBasic(Long), false},
		{"same pointer", NewPointer(NewBasic(Char)), NewPointer(NewBasic(Char)), true},
		{"different pointer target", NewPointer(NewBasic(Char)), NewPointer(NewBasic(Int)), false},
		{"array same size", NewArray(NewBasic(Int), true, 5), NewArray(NewBasic(Int), true, 5), true},
		{"array different size", NewArray(NewBasic(Int), true, 5), NewArray(NewBasic(Int), true, 4), false},
		{"record same handle", NewRecord(1), NewRecord(1), true},
		{"record different handle", NewRecord(1), NewRecord(2), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestComposeFunctionParamLists(t *testing.T) {
	voidParams := NewFunction(NewBasic(Void), nil, ConvNormal)
	withParams := NewFunction(NewBasic(Void), []Type{NewBasic(Int)}, ConvNormal)

	composed, err := Compose(voidParams, withParams)
	if err != nil {
		t.Fatalf("Compose returned error: %s", err)
	}
	if len(composed.Params) != 1 || !Equal(composed.Params[0], NewBasic(Int)) {
		t.Errorf("composed params = %v, want [int]", composed.Params)
	}
}

func TestComposeArraySize(t *testing.T) {
	unsized := NewArray(NewBasic(Int), false, 0)
	sized := NewArray(NewBasic(Int), true, 5)

	composed, err := Compose(unsized, sized)
	if err != nil {
		t.Fatalf("Compose returned error: %s", err)
	}
	if !composed.SizeKnown || composed.Size != 5 {
		t.Errorf("composed = %s, want int[5]", composed)
	}
}

func TestComposeIncompatible(t *testing.T) {
	_, err := Compose(NewBasic(Int), NewBasic(Char))
	if err == nil {
		t.Fatal("expected an IncompatibleError, got nil")
	}
	if _, ok := err.(*IncompatibleError); !ok {
		t.Errorf("error type = %T, want *IncompatibleError", err)
	}
}

func TestIsCompleteArray(t *testing.T) {
	alwaysTrue := func(RecordHandle) bool { return true }
	alwaysFalse := func(EnumHandle) bool { return false }

	sized := NewArray(NewBasic(Int), true, 5)
	if !IsComplete(sized, alwaysTrue, alwaysFalse) {
		t.Error("sized array should be complete")
	}
	unsized := NewArray(NewBasic(Int), false, 0)
	if IsComplete(unsized, alwaysTrue, alwaysFalse) {
		t.Error("unsized array should be incomplete")
	}
}

func TestIsCompleteRecordDelegates(t *testing.T) {
	defined := func(h RecordHandle) bool { return h == 1 }
	alwaysFalse := func(EnumHandle) bool { return false }

	if !IsComplete(NewRecord(1), defined, alwaysFalse) {
		t.Error("record#1 should be complete")
	}
	if IsComplete(NewRecord(2), defined, alwaysFalse) {
		t.Error("record#2 should be incomplete")
	}
}

func TestPointerCompatibleVoidStar(t *testing.T) {
	voidPtr := NewBasic(Void)
	intPtr := NewBasic(Int)
	if !PointerCompatible(voidPtr, intPtr) {
		t.Error("void and int should be pointer-compatible")
	}
	if PointerCompatible(NewBasic(Int), NewBasic(Char)) {
		t.Error("int and char should not be pointer-compatible")
	}
}

func TestTypeStringRendering(t *testing.T) {
	tests := []struct {
		name string
		typ  Type
		want string
	}{
		{"basic", NewBasic(Int), "int"},
		{"pointer", NewPointer(NewBasic(Char)), "char *"},
		{"sized array", NewArray(NewBasic(Int), true, 3), "int[3]"},
		{"unsized array", NewArray(NewBasic(Int), false, 0), "int[]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.typ.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTypeCloneIsIndependent(t *testing.T) {
	orig := NewPointer(NewBasic(Int))
	clone := orig.Clone()
	clone.Target.Elem = Char

	if orig.Target.Elem != Int {
		t.Error("mutating the clone's target mutated the original")
	}
}
