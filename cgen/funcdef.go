package cgen

import (
	"cscore/ast"
	"cscore/ctypes"
	"cscore/irb"
	"cscore/scope"
	"cscore/token"
)

// ----------------------------
// ----- functions -----------
// ----------------------------

// FuncDef processes one file-scope function definition:
// compose the function's type, open a new procedure, bind its
// parameters, walk its body, then run the end-of-function label and
// unused-identifier diagnostics.
func (c *Context) FuncDef(n *ast.FuncDef) {
	base, storage := c.resolveSpecs(&n.Specs, n.First, n.Last)
	full, name := c.composeDeclarator(n.Declarator, base)
	if name == "" || !full.IsFunction() {
		c.Errorf(n.First, n.Last, "internal: function definition did not compose a function type")
		return
	}
	ret := *full.Return
	if ret.IsArray() {
		c.Errorf(n.First, n.Last, "function '%s' cannot return an array type", name)
	}

	nameTok := leafNameTok(n.Declarator)

	sym, ok := c.Symbols.Lookup(name)
	if ok {
		composed, err := ctypes.Compose(sym.Type, full)
		if err != nil {
			c.Errorf(n.First, n.Last, "conflicting declaration of '%s'", name)
		} else {
			full = composed
		}
		if sym.Defined {
			c.Errorf(n.First, n.Last, "redefinition of '%s'", name)
			return
		}
		sym.Type = full
		sym.Defined = true
	} else {
		var err error
		sym, err = c.Symbols.Insert(name, nameTok, scope.SymFunction, full, name)
		if err != nil {
			c.Errorf(n.First, n.Last, "conflicting declaration of '%s'", name)
			return
		}
		sym.Defined = true
	}
	if storage != ast.StorageNone && storage != ast.StorageExtern && storage != ast.StorageStatic {
		c.Warnf(n.First, n.Last, "unexpected storage class on function definition")
	}
	if _, err := c.Scope.InsertGlobalSymbol(name, nameTok, full); err != nil {
		// Shadowed by an earlier prototype already visible in this scope;
		// the symbol directory above is the source of truth.
	}

	var retExpr *irb.TypeExpr
	if !ret.IsVoid() {
		retExpr = c.IRType(ret)
	}
	proc := c.Module.CreateProc(name, retExpr)
	entry := proc.CreateBlock("entry")
	popProc := c.OpenProc(proc, entry, ret)
	popScope := c.PushScope()

	leaf := outermostFunctionDeclarator(n.Declarator)
	if leaf.IsUSR && len(leaf.Params) > 0 {
		c.Errorf(n.First, n.Last, "user service routine '%s' cannot take parameters", name)
	}
	for i, p := range leaf.Params {
		pname := ""
		if p.Declarator != nil {
			pname = leafName(p.Declarator)
		}
		pt := full.Params[i]
		if !c.IsComplete(pt) {
			first, last := n.First, n.Last
			if p.Declarator != nil {
				first, last = p.Declarator.First, p.Declarator.Last
			}
			c.Errorf(first, last, "parameter '%s' has incomplete type", pname)
		}
		if pname == "" {
			continue
		}
		irName := "%" + pname
		arg := proc.CreateArgument(irName, c.IRType(pt))
		if _, err := c.Scope.InsertArgument(pname, leafNameTok(p.Declarator), pt, irName); err != nil {
			c.Errorf(p.Declarator.First, p.Declarator.Last, "duplicate parameter name '%s'", pname)
		}
		_ = arg
	}

	c.Stmt(n.Body)
	c.ensureTrailingReturn(ret)
	c.unusedIdentifierPass(c.Scope)
	c.checkLabels()

	popScope()
	popProc()
}

// ensureTrailingReturn appends the implicit fall-off-the-end return every
// function needs if its body did not already end with one.
func (c *Context) ensureTrailingReturn(ret ctypes.Type) {
	last := c.Block
	if n := len(last.Instr); n > 0 {
		switch last.Instr[n-1].Kind {
		case irb.Ret, irb.RetV:
			return
		}
	}
	if ret.IsVoid() {
		c.Emit(&irb.Instr{Kind: irb.Ret})
		return
	}
	zero := c.NewTemp(c.IRType(ret))
	c.Emit(&irb.Instr{Kind: irb.Imm, Width: ret.Width(), Dst: irb.VarOperand(zero), Src: [2]*irb.Operand{irb.ImmOperand(0)}})
	c.Emit(&irb.Instr{Kind: irb.RetV, Width: ret.Width(), Src: [2]*irb.Operand{irb.VarOperand(zero)}})
}

// checkLabels runs the end-of-function goto-label diagnostics (spec
// §4.5): every used-but-undefined label is an error, every defined-but-
// unused label is a warning.
func (c *Context) checkLabels() {
	for _, l := range c.Labels.Undefined() {
		c.Errorf(l.UseTok, l.UseTok, "label '%s' used but never defined", l.Name)
	}
	for _, l := range c.Labels.Unused() {
		c.Warnf(l.DefTok, l.DefTok, "label '%s' defined but never used", l.Name)
	}
}

// outermostFunctionDeclarator returns the DeclFunction node of d's chain
// that carries the parameter list — the outermost declarator of a
// function definition.
func outermostFunctionDeclarator(d *ast.Declarator) *ast.Declarator {
	for d != nil {
		if d.Kind == ast.DeclFunction {
			return d
		}
		d = d.Inner
	}
	return &ast.Declarator{}
}

// leafName returns the identifier at the bottom of a declarator chain.
func leafName(d *ast.Declarator) string {
	for d != nil {
		if d.Kind == ast.DeclIdent {
			return d.Name
		}
		d = d.Inner
	}
	return ""
}

// leafNameTok returns the identifier token at the bottom of a declarator
// chain.
func leafNameTok(d *ast.Declarator) token.Token {
	for d != nil {
		if d.Kind == ast.DeclIdent {
			return d.NameTok
		}
		d = d.Inner
	}
	return token.Token{}
}
