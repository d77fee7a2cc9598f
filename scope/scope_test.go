package scope

import (
	"testing"

	"cscore/ctypes"
	"cscore/token"
)

func TestScopeShadowing(t *testing.T) {
	outer := New(nil)
	if _, err := outer.InsertGlobalSymbol("x", token.Token{}, ctypes.NewBasic(ctypes.Int)); err != nil {
		t.Fatalf("outer insert failed: %s", err)
	}

	inner := New(outer)
	if _, err := inner.InsertLocalVariable("x", token.Token{}, ctypes.NewBasic(ctypes.Char), "%x"); err != nil {
		t.Fatalf("inner insert failed: %s", err)
	}

	m, sc := inner.Lookup("x")
	if m == nil {
		t.Fatal("Lookup(x) found nothing")
	}
	if m.Kind != MemLocalVariable || sc != inner {
		t.Error("Lookup should resolve to the innermost shadowing declaration")
	}
}

func TestScopeInsertDuplicate(t *testing.T) {
	s := New(nil)
	if _, err := s.InsertGlobalSymbol("x", token.Token{}, ctypes.NewBasic(ctypes.Int)); err != nil {
		t.Fatalf("first insert failed: %s", err)
	}
	_, err := s.InsertGlobalSymbol("x", token.Token{}, ctypes.NewBasic(ctypes.Int))
	if err == nil {
		t.Fatal("expected AlreadyExistsError on duplicate insert")
	}
	if _, ok := err.(*AlreadyExistsError); !ok {
		t.Errorf("error type = %T, want *AlreadyExistsError", err)
	}
}

func TestScopeLookupMissingReturnsNil(t *testing.T) {
	s := New(nil)
	m, sc := s.Lookup("nope")
	if m != nil || sc != nil {
		t.Error("Lookup of a missing name should return nil, nil")
	}
}

func TestScopeTagNamespaceIsSeparateFromOrdinary(t *testing.T) {
	s := New(nil)
	if _, err := s.InsertGlobalSymbol("point", token.Token{}, ctypes.NewBasic(ctypes.Int)); err != nil {
		t.Fatalf("ordinary insert failed: %s", err)
	}
	if _, err := s.InsertRecordTag("point", token.Token{}, ctypes.RecordHandle(0), 0); err != nil {
		t.Fatalf("tag insert with the same name should not collide: %s", err)
	}
}

func TestScopeMembersInsertionOrder(t *testing.T) {
	s := New(nil)
	_, _ = s.InsertGlobalSymbol("a", token.Token{}, ctypes.NewBasic(ctypes.Int))
	_, _ = s.InsertGlobalSymbol("b", token.Token{}, ctypes.NewBasic(ctypes.Int))
	_, _ = s.InsertGlobalSymbol("c", token.Token{}, ctypes.NewBasic(ctypes.Int))

	members := s.Members()
	if len(members) != 3 {
		t.Fatalf("Members() returned %d entries, want 3", len(members))
	}
	names := []string{members[0].Name, members[1].Name, members[2].Name}
	if names[0] != "a" || names[1] != "b" || names[2] != "c" {
		t.Errorf("Members() order = %v, want [a b c]", names)
	}
}

func TestDirectoryInsertAndLookup(t *testing.T) {
	d := NewDirectory()
	if _, err := d.Insert("f", token.Token{}, SymFunction, ctypes.NewBasic(ctypes.Int), "f"); err != nil {
		t.Fatalf("Insert failed: %s", err)
	}
	sym, ok := d.Lookup("f")
	if !ok || sym.Kind != SymFunction {
		t.Error("Lookup(f) should find the inserted function symbol")
	}
	if _, err := d.Insert("f", token.Token{}, SymFunction, ctypes.NewBasic(ctypes.Int), "f"); err == nil {
		t.Error("expected an error on duplicate directory insert")
	}
}

func TestLabelsUseBeforeDefine(t *testing.T) {
	l := NewLabels()
	l.Use("done", token.Token{})

	undefined := l.Undefined()
	if len(undefined) != 1 || undefined[0].Name != "done" {
		t.Fatalf("Undefined() = %v, want [done]", undefined)
	}

	if _, err := l.Define("done", token.Token{}, "%done"); err != nil {
		t.Fatalf("Define failed: %s", err)
	}
	if len(l.Undefined()) != 0 {
		t.Error("label should no longer be undefined after Define")
	}
}

func TestLabelsDefineTwiceFails(t *testing.T) {
	l := NewLabels()
	if _, err := l.Define("top", token.Token{}, "%top"); err != nil {
		t.Fatalf("first Define failed: %s", err)
	}
	if _, err := l.Define("top", token.Token{}, "%top"); err == nil {
		t.Error("expected an error redefining the same label")
	}
}

func TestLabelsUnused(t *testing.T) {
	l := NewLabels()
	_, _ = l.Define("skip", token.Token{}, "%skip")

	unused := l.Unused()
	if len(unused) != 1 || unused[0].Name != "skip" {
		t.Fatalf("Unused() = %v, want [skip]", unused)
	}
}

func TestTrackingBreakContinue(t *testing.T) {
	tr := NewTracking()
	tr.PushLoop(&LoopRecord{BreakLabel: "%loop.end", ContinueLabel: "%loop.cont"})

	if lbl, ok := tr.Breakable(); !ok || lbl != "%loop.end" {
		t.Errorf("Breakable() = %q, %v, want %%loop.end, true", lbl, ok)
	}
	if lbl, ok := tr.Continuable(); !ok || lbl != "%loop.cont" {
		t.Errorf("Continuable() = %q, %v, want %%loop.cont, true", lbl, ok)
	}
	tr.Pop()
	if _, ok := tr.Breakable(); ok {
		t.Error("Breakable() should report false once the loop frame is popped")
	}
}

func TestTrackingContinueSkipsSwitchFrame(t *testing.T) {
	tr := NewTracking()
	tr.PushLoop(&LoopRecord{BreakLabel: "%loop.end", ContinueLabel: "%loop.cont"})
	tr.PushSwitch(&SwitchRecord{BreakLabel: "%switch.end"})

	lbl, ok := tr.Continuable()
	if !ok || lbl != "%loop.cont" {
		t.Errorf("Continuable() should skip the switch frame and reach the loop, got %q, %v", lbl, ok)
	}

	brk, ok := tr.Breakable()
	if !ok || brk != "%switch.end" {
		t.Errorf("Breakable() should resolve to the innermost switch, got %q, %v", brk, ok)
	}
}

func TestTrackingCurrentSwitch(t *testing.T) {
	tr := NewTracking()
	if _, ok := tr.CurrentSwitch(); ok {
		t.Error("CurrentSwitch() should report false with no switch in scope")
	}
	sr := &SwitchRecord{BreakLabel: "%sw.end", Seen: map[int64]bool{}}
	tr.PushSwitch(sr)
	got, ok := tr.CurrentSwitch()
	if !ok || got != sr {
		t.Error("CurrentSwitch() should return the pushed switch record")
	}
}
