package llvmemit

import (
	"strings"
	"testing"

	"cscore/irb"
)

// buildAddMainModule builds the same small add/main module cgen would
// generate for `int add(int a, int b) { return a + b; } int main(void) {
// return add(2, 3); }`, directly through the irb builder, so this package
// can be tested independently of cgen.
func buildAddMainModule() *irb.Module {
	m := irb.CreateModule("demo")
	i16 := func() *irb.TypeExpr { return irb.NewIntType(16, true) }

	add := m.CreateProc("add", i16())
	a := add.CreateArgument("%a", i16())
	b := add.CreateArgument("%b", i16())
	entry := add.CreateBlock("entry")
	sum := add.CreateLocal("%sum", i16())
	entry.AppendInstr(&irb.Instr{
		Kind: irb.Add, Width: 16,
		Dst: irb.VarOperand(sum),
		Src: [2]*irb.Operand{irb.VarOperand(a), irb.VarOperand(b)},
	})
	entry.AppendInstr(&irb.Instr{
		Kind: irb.RetV, Width: 16,
		Src: [2]*irb.Operand{irb.VarOperand(sum)},
	})

	main := m.CreateProc("main", i16())
	mEntry := main.CreateBlock("entry")
	result := main.CreateLocal("%result", i16())
	mEntry.AppendInstr(&irb.Instr{
		Kind: irb.Call, Width: 16,
		Dst: irb.VarOperand(result),
		Src: [2]*irb.Operand{
			irb.VarOperand(&irb.Variable{Name: "add"}),
			irb.ListOperand([]*irb.Operand{irb.ImmOperand(2), irb.ImmOperand(3)}),
		},
	})
	mEntry.AppendInstr(&irb.Instr{
		Kind: irb.RetV, Width: 16,
		Src: [2]*irb.Operand{irb.VarOperand(result)},
	})

	return m
}

func TestEmitAddMainModule(t *testing.T) {
	mod, err := Emit(buildAddMainModule())
	if err != nil {
		t.Fatalf("Emit returned an error: %s", err)
	}
	text := mod.String()
	if !strings.Contains(text, "define") || !strings.Contains(text, "@add") {
		t.Errorf("expected a defined @add function, got:\n%s", text)
	}
	if !strings.Contains(text, "@main") {
		t.Errorf("expected a defined @main function, got:\n%s", text)
	}
	if !strings.Contains(text, "call") {
		t.Errorf("expected main's body to contain a call instruction, got:\n%s", text)
	}
}

func TestEmitRecordDeclaresNamedStruct(t *testing.T) {
	m := irb.CreateModule("demo")
	r := m.CreateRecord("point", false)
	r.AppendField(irb.NewIntType(16, true))
	r.AppendField(irb.NewIntType(16, true))

	p := m.CreateProc("f", nil)
	p.CreateArgument("%p", irb.NewPtrType(irb.NewIdentType("point")))
	entry := p.CreateBlock("entry")
	entry.AppendInstr(&irb.Instr{Kind: irb.Ret})

	mod, err := Emit(m)
	if err != nil {
		t.Fatalf("Emit returned an error: %s", err)
	}
	if !strings.Contains(mod.String(), "point") {
		t.Errorf("expected the named struct %%point to appear in the module text, got:\n%s", mod.String())
	}
}

func TestEmitExternProcDeclarationOnly(t *testing.T) {
	m := irb.CreateModule("demo")
	p := m.CreateProc("puts", nil)
	p.CreateAttr("extern")
	p.CreateArgument("%s", irb.NewPtrType(irb.NewIntType(8, true)))

	mod, err := Emit(m)
	if err != nil {
		t.Fatalf("Emit returned an error: %s", err)
	}
	if !strings.Contains(mod.String(), "declare") {
		t.Errorf("expected puts to be emitted as a bodyless declaration, got:\n%s", mod.String())
	}
}

func TestEmitOrphanStringDataBlockGetsPrivateGlobal(t *testing.T) {
	m := irb.CreateModule("demo")
	db := m.CreateDataBlock(".str.0")
	db.AppendDataEntry(irb.DataEntry{Str: "hi", IsStr: true})

	mod, err := Emit(m)
	if err != nil {
		t.Fatalf("Emit returned an error: %s", err)
	}
	if !strings.Contains(mod.String(), ".str.0") {
		t.Errorf("expected a private global backing the orphan string data block, got:\n%s", mod.String())
	}
}

func TestEmitConditionalBranchFallthrough(t *testing.T) {
	m := irb.CreateModule("demo")
	p := m.CreateProc("f", nil)
	cond := p.CreateArgument("%c", irb.NewIntType(16, true))

	entry := p.CreateBlock("entry")
	thenBlk := p.CreateBlock("then")
	afterBlk := p.CreateBlock("after")

	entry.AppendInstr(&irb.Instr{
		Kind: irb.Jz, Width: 16,
		Src: [2]*irb.Operand{irb.VarOperand(cond), irb.ImmOperand(0)},
		Dst: irb.VarOperand(&irb.Variable{Name: "after"}),
	})
	thenBlk.AppendInstr(&irb.Instr{Kind: irb.Jmp, Dst: irb.VarOperand(&irb.Variable{Name: "after"})})
	afterBlk.AppendInstr(&irb.Instr{Kind: irb.Ret})

	mod, err := Emit(m)
	if err != nil {
		t.Fatalf("Emit returned an error: %s", err)
	}
	if !strings.Contains(mod.String(), "br ") {
		t.Errorf("expected a branch instruction in the emitted IR, got:\n%s", mod.String())
	}
}
