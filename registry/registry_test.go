package registry

import (
	"testing"

	"cscore/ctypes"
)

func TestRecordsCreateAnonymousName(t *testing.T) {
	rs := NewRecords()
	e1 := rs.Create("", Struct)
	e2 := rs.Create("", Struct)

	if e1.IRName == "" || e2.IRName == "" {
		t.Fatal("anonymous records must get a synthesized IR name")
	}
	if e1.IRName == e2.IRName {
		t.Errorf("two anonymous records got the same IR name %q", e1.IRName)
	}
}

func TestRecordsAppendDuplicateMember(t *testing.T) {
	rs := NewRecords()
	e := rs.Create("point", Struct)

	if err := rs.Append(e.Handle, "x", ctypes.NewBasic(ctypes.Int)); err != nil {
		t.Fatalf("first Append failed: %s", err)
	}
	if err := rs.Append(e.Handle, "x", ctypes.NewBasic(ctypes.Int)); err == nil {
		t.Error("expected an error appending a duplicate member name")
	}
}

func TestRecordsMemberOffsetsStruct(t *testing.T) {
	rs := NewRecords()
	e := rs.Create("point", Struct)
	_ = rs.Append(e.Handle, "x", ctypes.NewBasic(ctypes.Int))  // width 16 -> 2 bytes
	_ = rs.Append(e.Handle, "y", ctypes.NewBasic(ctypes.Char)) // width 8 -> 1 byte
	e.Defined = true

	_, offX, ok := rs.Member(e.Handle, "x")
	if !ok || offX != 0 {
		t.Errorf("x offset = %d, ok = %v, want 0, true", offX, ok)
	}
	_, offY, ok := rs.Member(e.Handle, "y")
	if !ok || offY != 2 {
		t.Errorf("y offset = %d, ok = %v, want 2, true", offY, ok)
	}
}

func TestRecordsMemberOffsetsUnion(t *testing.T) {
	rs := NewRecords()
	e := rs.Create("u", Union)
	_ = rs.Append(e.Handle, "a", ctypes.NewBasic(ctypes.Int))
	_ = rs.Append(e.Handle, "b", ctypes.NewBasic(ctypes.Long))
	e.Defined = true

	_, offA, _ := rs.Member(e.Handle, "a")
	_, offB, _ := rs.Member(e.Handle, "b")
	if offA != 0 || offB != 0 {
		t.Errorf("union members should all sit at offset 0, got a=%d b=%d", offA, offB)
	}
}

func TestEnumsAppendImplicitValues(t *testing.T) {
	es := NewEnums()
	e := es.Create("color")

	_ = es.Append(e.Handle, "red", 0, false)
	_ = es.Append(e.Handle, "green", 0, false)
	_ = es.Append(e.Handle, "blue", 10, true)
	_ = es.Append(e.Handle, "violet", 0, false)

	want := map[string]int64{"red": 0, "green": 1, "blue": 10, "violet": 11}
	for _, el := range e.Elements {
		if el.Value != want[el.Name] {
			t.Errorf("enumerator %s = %d, want %d", el.Name, el.Value, want[el.Name])
		}
	}
}

func TestEnumsAppendDuplicate(t *testing.T) {
	es := NewEnums()
	e := es.Create("color")
	_ = es.Append(e.Handle, "red", 0, false)
	if err := es.Append(e.Handle, "red", 1, true); err == nil {
		t.Error("expected an error appending a duplicate enumerator name")
	}
}

func TestEnumStrictTracksNamed(t *testing.T) {
	es := NewEnums()
	e := es.Create("color")
	if e.Strict() {
		t.Error("a freshly created enum should not be strict")
	}
	e.Named = true
	if !e.Strict() {
		t.Error("an enum with a named instance should be strict")
	}
}

func TestRegistriesSizeofBasicAndPointer(t *testing.T) {
	rg := New()
	if sz, ok := rg.Sizeof(ctypes.NewBasic(ctypes.Int)); !ok || sz != 2 {
		t.Errorf("sizeof(int) = %d, %v, want 2, true", sz, ok)
	}
	if sz, ok := rg.Sizeof(ctypes.NewPointer(ctypes.NewBasic(ctypes.Char))); !ok || sz != 2 {
		t.Errorf("sizeof(char*) = %d, %v, want 2, true", sz, ok)
	}
}

func TestRegistriesSizeofArrayUnknownLength(t *testing.T) {
	rg := New()
	unsized := ctypes.NewArray(ctypes.NewBasic(ctypes.Int), false, 0)
	if _, ok := rg.Sizeof(unsized); ok {
		t.Error("sizeof of an unsized array should fail")
	}
}

func TestRegistriesSizeofRecordStructAndUnion(t *testing.T) {
	rg := New()
	s := rg.Records.Create("s", Struct)
	_ = rg.Records.Append(s.Handle, "a", ctypes.NewBasic(ctypes.Int))  // 2
	_ = rg.Records.Append(s.Handle, "b", ctypes.NewBasic(ctypes.Long)) // 4
	s.Defined = true

	if sz, ok := rg.Sizeof(ctypes.NewRecord(s.Handle)); !ok || sz != 6 {
		t.Errorf("sizeof(struct s) = %d, %v, want 6, true", sz, ok)
	}

	u := rg.Records.Create("u", Union)
	_ = rg.Records.Append(u.Handle, "a", ctypes.NewBasic(ctypes.Int))
	_ = rg.Records.Append(u.Handle, "b", ctypes.NewBasic(ctypes.Long))
	u.Defined = true

	if sz, ok := rg.Sizeof(ctypes.NewRecord(u.Handle)); !ok || sz != 4 {
		t.Errorf("sizeof(union u) = %d, %v, want 4, true", sz, ok)
	}
}

func TestRegistriesSizeofUndefinedRecord(t *testing.T) {
	rg := New()
	s := rg.Records.Create("incomplete", Struct)
	if _, ok := rg.Sizeof(ctypes.NewRecord(s.Handle)); ok {
		t.Error("sizeof of an undefined record should fail")
	}
}

func TestRegistriesComplete(t *testing.T) {
	rg := New()
	s := rg.Records.Create("s", Struct)
	if rg.Complete(ctypes.NewRecord(s.Handle)) {
		t.Error("a forward-declared record should not be complete")
	}
	s.Defined = true
	if !rg.Complete(ctypes.NewRecord(s.Handle)) {
		t.Error("a defined record should be complete")
	}
}
