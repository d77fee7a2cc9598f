// Package llvmemit is a reference backend adapter: it consumes a finished
// irb.Module and lowers its instruction alphabet into real LLVM IR through
// tinygo.org/x/go-llvm, the same translation shape as the teacher's
// ir/llvm/transform.go per-instruction-kind switch. Unlike that package,
// this one runs single-threaded: the opaque IR builder already finished
// building the module by the time Emit is called, so there is no
// concurrent-worker symbol table to guard.
package llvmemit

import (
	"strings"

	"github.com/pkg/errors"
	"tinygo.org/x/go-llvm"

	"cscore/irb"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Emitter holds the LLVM-side state for one module lowering: the
// context/module/builder triple, plus plain maps from IR-level names to
// the LLVM values/types/blocks they lower to. Proc-local maps (blocks,
// vals) are reset at the start of every procedure.
type Emitter struct {
	ctx     llvm.Context
	mod     llvm.Module
	builder llvm.Builder

	procs   map[string]llvm.Value
	globals map[string]llvm.Value
	records map[string]llvm.Type

	blocks map[string]llvm.BasicBlock // current proc's label -> basic block.
	vals   map[string]llvm.Value      // current proc's IR variable name -> llvm value.
}

// ---------------------
// ----- functions -----
// ---------------------

// Emit lowers m into a new LLVM module. The caller owns the result
// (including eventually disposing the underlying context); Emit itself
// only disposes the builder it allocated along the way.
func Emit(m *irb.Module) (llvm.Module, error) {
	ctx := llvm.NewContext()
	b := ctx.NewBuilder()
	defer b.Dispose()
	mod := ctx.NewModule(m.Name)

	e := &Emitter{
		ctx:     ctx,
		mod:     mod,
		builder: b,
		procs:   make(map[string]llvm.Value, len(m.Procs())),
		globals: make(map[string]llvm.Value, len(m.Globals())),
		records: make(map[string]llvm.Type, len(m.Records())),
	}

	// Records are declared opaque first so self- and mutually-referential
	// fields (a struct holding a pointer to its own type) resolve.
	for _, r := range m.Records() {
		e.records[r.Name] = ctx.StructCreateNamed(r.Name)
	}
	for _, r := range m.Records() {
		fields := make([]llvm.Type, len(r.Fields))
		for i, f := range r.Fields {
			fields[i] = e.typeOf(f)
		}
		e.records[r.Name].StructSetBody(fields, r.Union)
	}

	for _, p := range m.Procs() {
		e.declareProc(p)
	}
	for _, g := range m.Globals() {
		e.declareGlobal(g)
	}
	for _, db := range m.DataBlocks() {
		if err := e.applyDataBlock(db); err != nil {
			return mod, errors.Wrapf(err, "data block %q", db.Name)
		}
	}
	for _, p := range m.Procs() {
		if len(p.Blocks) == 0 {
			continue // extern declaration only, no body to lower.
		}
		if err := e.emitProc(p); err != nil {
			return mod, errors.Wrapf(err, "procedure %q", p.Name)
		}
	}
	return mod, nil
}

// typeOf lowers one IR-level type expression to its LLVM type.
func (e *Emitter) typeOf(t *irb.TypeExpr) llvm.Type {
	if t == nil {
		return llvm.VoidType()
	}
	switch t.Kind {
	case irb.TEInt:
		if t.Width == 0 {
			return llvm.VoidType()
		}
		return intType(t.Width)
	case irb.TEPtr:
		return llvm.PointerType(e.typeOf(t.Inner), 0)
	case irb.TEIdent:
		if rt, ok := e.records[t.Ident]; ok {
			return rt
		}
		return llvm.Int8Type() // forward reference to a record never declared: treat as opaque byte.
	case irb.TEArray:
		return llvm.ArrayType(e.typeOf(t.Inner), t.Length)
	}
	return llvm.Int32Type()
}

func intType(width int) llvm.Type {
	switch width {
	case 1:
		return llvm.Int1Type()
	case 8:
		return llvm.Int8Type()
	case 16:
		return llvm.Int16Type()
	case 32:
		return llvm.Int32Type()
	case 64:
		return llvm.Int64Type()
	default:
		return llvm.IntType(width)
	}
}

// declareProc declares p's LLVM function signature, without a body. Every
// procedure (defined or extern) goes through this path so forward and
// backward calls both resolve.
func (e *Emitter) declareProc(p *irb.Proc) {
	ret := llvm.VoidType()
	if p.Ret != nil {
		ret = e.typeOf(p.Ret)
	}
	params := make([]llvm.Type, len(p.Params))
	for i, prm := range p.Params {
		params[i] = e.typeOf(prm.Type)
	}
	fnTy := llvm.FunctionType(ret, params, false)
	fn := llvm.AddFunction(e.mod, p.Name, fnTy)
	for i, prm := range p.Params {
		if prm.Name != "" {
			fn.Param(i).SetName(trimSigil(prm.Name))
		}
	}
	for _, a := range p.Attrs {
		if a == "extern" {
			fn.SetLinkage(llvm.ExternalLinkage)
		}
	}
	e.procs[p.Name] = fn
}

// declareGlobal declares m's LLVM side for one module-scope variable,
// zero-initialized until a matching data block (if any) supplies its
// constant contents.
func (e *Emitter) declareGlobal(g *irb.Variable) {
	t := e.typeOf(g.Type)
	gv := llvm.AddGlobal(e.mod, t, g.Name)
	gv.SetInitializer(llvm.ConstNull(t))
	for _, a := range g.Attrs {
		if a == "extern" {
			gv.SetLinkage(llvm.ExternalLinkage)
		}
	}
	e.globals[g.Name] = gv
}

// applyDataBlock materializes one data block's constant contents. A data
// block whose name matches an already-declared global overwrites that
// global's initializer; an orphan block (a string literal's backing
// storage, never passed through CreateVariable) gets its own private
// global created here.
func (e *Emitter) applyDataBlock(db *irb.DataBlock) error {
	if len(db.Entries) == 0 {
		return nil
	}
	if len(db.Entries) == 1 && db.Entries[0].IsStr {
		init := llvm.ConstString(db.Entries[0].Str, true)
		gv, ok := e.globals[db.Name]
		if !ok {
			gv = llvm.AddGlobal(e.mod, init.Type(), db.Name)
			gv.SetLinkage(llvm.PrivateLinkage)
			gv.SetGlobalConstant(true)
			e.globals[db.Name] = gv
		}
		gv.SetInitializer(init)
		return nil
	}

	gv, ok := e.globals[db.Name]
	if !ok {
		return errors.Errorf("data block has no matching global variable")
	}
	vals := make([]llvm.Value, len(db.Entries))
	for i, ent := range db.Entries {
		vals[i] = e.constEntry(ent)
	}
	elemTy := e.typeOf(db.Entries[0].Type)
	var init llvm.Value
	if gv.Type().ElementType().TypeKind() == llvm.StructTypeKind {
		init = llvm.ConstNamedStruct(gv.Type().ElementType(), vals)
	} else {
		init = llvm.ConstArray(elemTy, vals)
	}
	gv.SetInitializer(init)
	return nil
}

func (e *Emitter) constEntry(ent irb.DataEntry) llvm.Value {
	if ent.IsStr {
		return llvm.ConstString(ent.Str, true)
	}
	return llvm.ConstInt(e.typeOf(ent.Type), uint64(ent.Int), true)
}

// emitProc creates every basic block of p up front (so forward jumps
// resolve), spills its locals to stack allocas in the entry block, then
// lowers each block's instructions in order.
func (e *Emitter) emitProc(p *irb.Proc) error {
	fn := e.procs[p.Name]
	e.blocks = make(map[string]llvm.BasicBlock, len(p.Blocks))
	e.vals = make(map[string]llvm.Value, len(p.Locals)+len(p.Params))

	for _, b := range p.Blocks {
		e.blocks[b.Label] = llvm.AddBasicBlock(fn, b.Label)
	}
	entry := e.blocks[p.Blocks[0].Label]
	e.builder.SetInsertPointAtEnd(entry)

	for i, prm := range p.Params {
		e.vals[prm.Name] = fn.Param(i)
	}
	for _, loc := range p.Locals {
		e.vals[loc.Name] = e.builder.CreateAlloca(e.typeOf(loc.Type), trimSigil(loc.Name))
	}

	for bi, blk := range p.Blocks {
		e.builder.SetInsertPointAtEnd(e.blocks[blk.Label])
		var fall llvm.BasicBlock
		if bi+1 < len(p.Blocks) {
			fall = e.blocks[p.Blocks[bi+1].Label]
		}
		for _, in := range blk.Instr {
			if err := e.emitInstr(in, fall); err != nil {
				return errors.Wrapf(err, "block %q, instruction %q", blk.Label, in.Kind)
			}
		}
	}
	return nil
}

// emitInstr lowers one three-address instruction. fall is the basic
// block that follows the current one in the procedure's block list, the
// implicit "else" target of Jz/Jnz's fallthrough-on-no-branch semantics.
func (e *Emitter) emitInstr(in *irb.Instr, fall llvm.BasicBlock) error {
	switch in.Kind {
	case irb.Imm:
		v, err := e.operand(in.Src[0], in.Width)
		if err != nil {
			return err
		}
		e.bind(in.Dst, v)

	case irb.VarPtr, irb.LVarPtr:
		v, err := e.resolve(in.Src[0].Var.Name)
		if err != nil {
			return err
		}
		e.bind(in.Dst, v)

	case irb.Read:
		ptr, err := e.operand(in.Src[0], 0)
		if err != nil {
			return err
		}
		e.bind(in.Dst, e.builder.CreateLoad(ptr, ""))

	case irb.Write:
		ptr, err := e.operand(in.Src[0], 0)
		if err != nil {
			return err
		}
		val, err := e.operand(in.Src[1], in.Width)
		if err != nil {
			return err
		}
		e.builder.CreateStore(val, ptr)

	case irb.RecCopy:
		dst, err := e.operand(in.Src[0], 0)
		if err != nil {
			return err
		}
		src, err := e.operand(in.Src[1], 0)
		if err != nil {
			return err
		}
		e.builder.CreateStore(e.builder.CreateLoad(src, ""), dst)

	case irb.RecMbr:
		base, err := e.operand(in.Src[0], 0)
		if err != nil {
			return err
		}
		off, err := e.operand(in.Src[1], 16)
		if err != nil {
			return err
		}
		i8p := llvm.PointerType(llvm.Int8Type(), 0)
		basei8 := e.builder.CreateBitCast(base, i8p, "")
		gep := e.builder.CreateGEP(basei8, []llvm.Value{off}, "")
		e.bind(in.Dst, e.builder.CreateBitCast(gep, llvm.PointerType(e.typeOf(in.Type), 0), ""))

	case irb.PtrIdx:
		base, err := e.operand(in.Src[0], 0)
		if err != nil {
			return err
		}
		idx, err := e.operand(in.Src[1], in.Width)
		if err != nil {
			return err
		}
		e.bind(in.Dst, e.builder.CreateGEP(base, []llvm.Value{idx}, ""))

	case irb.Add, irb.Sub, irb.Mul, irb.Shl, irb.ShrA, irb.ShrL, irb.And, irb.Or, irb.Xor:
		a, err := e.operand(in.Src[0], in.Width)
		if err != nil {
			return err
		}
		b, err := e.operand(in.Src[1], in.Width)
		if err != nil {
			return err
		}
		e.bind(in.Dst, e.arith(in.Kind, a, b))

	case irb.Neg:
		a, err := e.operand(in.Src[0], in.Width)
		if err != nil {
			return err
		}
		e.bind(in.Dst, e.builder.CreateNeg(a, ""))

	case irb.BNot:
		a, err := e.operand(in.Src[0], in.Width)
		if err != nil {
			return err
		}
		e.bind(in.Dst, e.builder.CreateNot(a, ""))

	case irb.Trunc:
		a, err := e.operand(in.Src[0], 0)
		if err != nil {
			return err
		}
		e.bind(in.Dst, e.builder.CreateTrunc(a, intType(in.Width), ""))

	case irb.SgnExt:
		a, err := e.operand(in.Src[0], 0)
		if err != nil {
			return err
		}
		e.bind(in.Dst, e.builder.CreateSExt(a, intType(in.Width), ""))

	case irb.ZrExt:
		a, err := e.operand(in.Src[0], 0)
		if err != nil {
			return err
		}
		e.bind(in.Dst, e.builder.CreateZExt(a, intType(in.Width), ""))

	case irb.Eq, irb.Neq, irb.Lt, irb.LtEq, irb.Gt, irb.GtEq, irb.LtU, irb.LtEqU, irb.GtU, irb.GtEqU:
		a, err := e.operand(in.Src[0], in.Width)
		if err != nil {
			return err
		}
		b, err := e.operand(in.Src[1], in.Width)
		if err != nil {
			return err
		}
		cmp := e.builder.CreateICmp(icmpPredicate(in.Kind), a, b, "")
		e.bind(in.Dst, e.builder.CreateZExt(cmp, intType(in.Width), ""))

	case irb.Nop:
		// Nothing to lower.

	case irb.Call:
		callee, ok := e.procs[in.Src[0].Var.Name]
		if !ok {
			return errors.Errorf("call to undeclared procedure %q", in.Src[0].Var.Name)
		}
		var args []llvm.Value
		if in.Src[1] != nil {
			args = make([]llvm.Value, len(in.Src[1].List))
			for i, a := range in.Src[1].List {
				v, err := e.operand(a, 0)
				if err != nil {
					return err
				}
				args[i] = v
			}
		}
		res := e.builder.CreateCall(callee, args, "")
		if in.Dst != nil {
			e.bind(in.Dst, res)
		}

	case irb.Jmp:
		bb, err := e.target(in.Dst)
		if err != nil {
			return err
		}
		e.builder.CreateBr(bb)

	case irb.Jz, irb.Jnz:
		cond, err := e.operand(in.Src[0], in.Width)
		if err != nil {
			return err
		}
		bb, err := e.target(in.Dst)
		if err != nil {
			return err
		}
		zero := llvm.ConstInt(cond.Type(), 0, false)
		pred := llvm.IntEQ
		if in.Kind == irb.Jnz {
			pred = llvm.IntNE
		}
		test := e.builder.CreateICmp(pred, cond, zero, "")
		e.builder.CreateCondBr(test, bb, fall)

	case irb.Ret:
		e.builder.CreateRetVoid()

	case irb.RetV:
		v, err := e.operand(in.Src[0], in.Width)
		if err != nil {
			return err
		}
		e.builder.CreateRet(v)

	default:
		return errors.Errorf("unhandled instruction kind %q", in.Kind)
	}
	return nil
}

func (e *Emitter) arith(kind irb.Kind, a, b llvm.Value) llvm.Value {
	switch kind {
	case irb.Add:
		return e.builder.CreateAdd(a, b, "")
	case irb.Sub:
		return e.builder.CreateSub(a, b, "")
	case irb.Mul:
		return e.builder.CreateMul(a, b, "")
	case irb.Shl:
		return e.builder.CreateShl(a, b, "")
	case irb.ShrA:
		return e.builder.CreateAShr(a, b, "")
	case irb.ShrL:
		return e.builder.CreateLShr(a, b, "")
	case irb.And:
		return e.builder.CreateAnd(a, b, "")
	case irb.Or:
		return e.builder.CreateOr(a, b, "")
	case irb.Xor:
		return e.builder.CreateXor(a, b, "")
	}
	return a
}

func icmpPredicate(kind irb.Kind) llvm.IntPredicate {
	switch kind {
	case irb.Eq:
		return llvm.IntEQ
	case irb.Neq:
		return llvm.IntNE
	case irb.Lt:
		return llvm.IntSLT
	case irb.LtEq:
		return llvm.IntSLE
	case irb.Gt:
		return llvm.IntSGT
	case irb.GtEq:
		return llvm.IntSGE
	case irb.LtU:
		return llvm.IntULT
	case irb.LtEqU:
		return llvm.IntULE
	case irb.GtU:
		return llvm.IntUGT
	case irb.GtEqU:
		return llvm.IntUGE
	}
	return llvm.IntEQ
}

// operand resolves a source/destination operand to an LLVM value,
// materializing immediates at the given bit width.
func (e *Emitter) operand(o *irb.Operand, width int) (llvm.Value, error) {
	if o == nil {
		return llvm.Value{}, errors.Errorf("missing operand")
	}
	switch o.Kind {
	case irb.OpImmediate:
		w := width
		if w == 0 {
			w = 32
		}
		return llvm.ConstInt(intType(w), uint64(o.Imm), true), nil
	case irb.OpVariable:
		return e.resolve(o.Var.Name)
	}
	return llvm.Value{}, errors.Errorf("unsupported operand kind %v", o.Kind)
}

// resolve looks a name up across the current procedure's locals/
// parameters, the module's globals, and its declared procedures (for a
// Call's callee operand).
func (e *Emitter) resolve(name string) (llvm.Value, error) {
	if v, ok := e.vals[name]; ok {
		return v, nil
	}
	if v, ok := e.globals[name]; ok {
		return v, nil
	}
	if v, ok := e.procs[name]; ok {
		return v, nil
	}
	return llvm.Value{}, errors.Errorf("reference to undefined IR value %q", name)
}

// bind records the result of an instruction under its destination
// operand's name, so later instructions in the same procedure can look
// it up through resolve.
func (e *Emitter) bind(dst *irb.Operand, v llvm.Value) {
	if dst == nil || dst.Var == nil {
		return
	}
	e.vals[dst.Var.Name] = v
}

// target resolves a Jmp/Jz/Jnz destination operand (which carries a
// Variable whose Name is a block label, not a real value) to the basic
// block it names.
func (e *Emitter) target(o *irb.Operand) (llvm.BasicBlock, error) {
	if o == nil || o.Var == nil {
		return llvm.BasicBlock{}, errors.Errorf("missing branch target")
	}
	bb, ok := e.blocks[o.Var.Name]
	if !ok {
		return llvm.BasicBlock{}, errors.Errorf("unknown block label %q", o.Var.Name)
	}
	return bb, nil
}

func trimSigil(name string) string {
	return strings.TrimPrefix(name, "%")
}
