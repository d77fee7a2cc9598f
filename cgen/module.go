package cgen

import (
	"strconv"
	"strings"

	"cscore/ast"
	"cscore/ctypes"
	"cscore/irb"
	"cscore/registry"
	"cscore/scope"
)

// ----------------------------
// ----- functions -----------
// ----------------------------

// Compile drives one translation unit end to end: each
// top-level declaration is dispatched to the global-variable path or to
// the function-definition path, then every symbol that was declared
// but never defined gets an extern declaration in the output module.
func (c *Context) Compile(tu *ast.TranslationUnit) {
	for _, d := range tu.Decls {
		switch n := d.(type) {
		case *ast.VarDecl:
			c.declareGlobal(n)
		case *ast.FuncDef:
			c.FuncDef(n)
		}
	}
	c.emitRecordDecls()
	c.emitExternDecls()
}

// declareGlobal processes a file-scope declaration:
// typedefs and function prototypes are handled the same way as at block
// scope, and a declared-with-no-body variable becomes a tentative
// definition unless it carries the `extern` storage class.
func (c *Context) declareGlobal(n *ast.VarDecl) {
	base, storage := c.resolveSpecs(&n.Specs, n.First, n.Last)
	for _, id := range n.InitDeclarators {
		t, name := c.composeDeclarator(id.Declarator, base)
		if name == "" {
			continue
		}
		t = c.inferArraySize(t, id.Init)
		nameTok := leafNameTok(id.Declarator)

		if storage == ast.StorageTypedef {
			if _, err := c.Scope.InsertTypedef(name, nameTok, t); err != nil {
				c.Errorf(id.Declarator.First, id.Declarator.Last, "'%s' already declared in this scope", name)
			}
			continue
		}
		if t.IsFunction() {
			c.declareLocalFunctionProto(name, t, id.Declarator)
			continue
		}

		sym, ok := c.Symbols.Lookup(name)
		if ok {
			composed, err := ctypes.Compose(sym.Type, t)
			if err != nil {
				c.Errorf(id.Declarator.First, id.Declarator.Last, "conflicting declaration of '%s'", name)
				continue
			}
			sym.Type = composed
		} else {
			var err error
			sym, err = c.Symbols.Insert(name, nameTok, scope.SymVariable, t, name)
			if err != nil {
				c.Errorf(id.Declarator.First, id.Declarator.Last, "conflicting declaration of '%s'", name)
				continue
			}
			if _, err := c.Scope.InsertGlobalSymbol(name, nameTok, t); err != nil {
				// Already visible through an earlier file-scope declaration.
			}
		}

		if id.Init == nil {
			if storage != ast.StorageExtern {
				sym.Defined = true
			}
			continue
		}
		if sym.Defined {
			c.Errorf(id.Declarator.First, id.Declarator.Last, "redefinition of '%s'", name)
			continue
		}
		sym.Defined = true
		if !c.IsComplete(sym.Type) {
			c.Errorf(id.Declarator.First, id.Declarator.Last, "'%s' has incomplete type", name)
			continue
		}
		gv := c.globalVariableIR(sym.IRName, sym.Type)
		db := c.Module.CreateDataBlock(sym.IRName)
		for _, e := range c.lowerGlobalInit(sym.Type, id.Init, name) {
			db.AppendDataEntry(e)
		}
		_ = gv
	}
}

// emitRecordDecls declares an IR-level Record for every struct/union the
// registry holds a complete definition for, so a backend consuming the
// finished module can resolve a TEIdent type expression to a concrete
// field layout instead of just a name.
func (c *Context) emitRecordDecls() {
	for _, e := range c.Registries.Records.All() {
		if !e.Defined {
			continue
		}
		r := c.Module.CreateRecord(e.IRName, e.Kind == registry.Union)
		for _, m := range e.Members {
			r.AppendField(c.IRType(m.Type))
		}
	}
}

// emitExternDecls walks the symbol directory at the end of a translation
// unit and emits an IR-level declaration, without a body or data, for
// every symbol not marked defined, whether or not it is referenced.
func (c *Context) emitExternDecls() {
	for _, sym := range c.Symbols.All() {
		if sym.Defined {
			continue
		}
		switch sym.Kind {
		case scope.SymFunction:
			var ret *irb.TypeExpr
			if sym.Type.Return != nil && !sym.Type.Return.IsVoid() {
				ret = c.IRType(*sym.Type.Return)
			}
			p := c.Module.CreateProc(sym.IRName, ret)
			p.CreateAttr("extern")
			for _, pt := range sym.Type.Params {
				p.CreateArgument("", c.IRType(pt))
			}
		case scope.SymVariable:
			gv := c.globalVariableIR(sym.IRName, sym.Type)
			gv.Attrs = append(gv.Attrs, "extern")
		}
	}
}

// lowerGlobalInit folds a file-scope initializer into the flat sequence
// of data entries backing its global variable.
func (c *Context) lowerGlobalInit(t ctypes.Type, init ast.Initializer, name string) []irb.DataEntry {
	switch in := init.(type) {
	case *ast.ExprInit:
		if t.IsArray() {
			s, ok := in.Expr.(*ast.StringLit)
			if !ok {
				c.Errorf(in.First, in.Last, "array initializer must be a brace-enclosed list or string literal")
				return nil
			}
			return []irb.DataEntry{c.globalStringEntry(*t.Target, s)}
		}
		pop := c.PushConstMode()
		v := c.Expr(in.Expr)
		pop()
		if !v.ConstKnown {
			c.Errorf(in.First, in.Last, "initializer for '%s' is not a constant expression", name)
		}
		return []irb.DataEntry{{Type: c.IRType(t), Int: v.ConstInt}}
	case *ast.ListInit:
		return c.lowerGlobalCompoundInit(t, in, name)
	}
	return nil
}

// globalStringEntry builds the single data entry a string-literal
// initializer lowers to, matching exprStringLit's data block convention.
func (c *Context) globalStringEntry(elem ctypes.Type, s *ast.StringLit) irb.DataEntry {
	decoded, err := strconv.Unquote(s.Text)
	if err != nil {
		decoded = strings.Trim(s.Text, `"`)
	}
	return irb.DataEntry{Type: c.IRType(elem), Str: decoded, IsStr: true}
}

// lowerGlobalCompoundInit folds a brace-enclosed array/record initializer
// into data entries, zero-filling any elements the list leaves unset.
func (c *Context) lowerGlobalCompoundInit(t ctypes.Type, in *ast.ListInit, name string) []irb.DataEntry {
	var entries []irb.DataEntry
	switch {
	case t.IsArray():
		elem := *t.Target
		n := len(in.Items)
		if t.SizeKnown && n > int(t.Size) {
			c.Errorf(in.First, in.Last, "excess elements in array initializer for '%s'", name)
			n = int(t.Size)
		}
		for i := 0; i < n; i++ {
			entries = append(entries, c.lowerGlobalInit(elem, in.Items[i], name)...)
		}
		if t.SizeKnown {
			for i := n; i < int(t.Size); i++ {
				entries = append(entries, c.globalZeroEntries(elem)...)
			}
		}
	case t.IsRecord():
		entry := c.Registries.Records.Lookup(t.Record)
		n := len(in.Items)
		if n > len(entry.Members) {
			c.Errorf(in.First, in.Last, "excess elements in struct initializer for '%s'", name)
			n = len(entry.Members)
		}
		for i := 0; i < n; i++ {
			entries = append(entries, c.lowerGlobalInit(entry.Members[i].Type, in.Items[i], name)...)
		}
		for i := n; i < len(entry.Members); i++ {
			entries = append(entries, c.globalZeroEntries(entry.Members[i].Type)...)
		}
	default:
		if len(in.Items) != 1 {
			c.Errorf(in.First, in.Last, "invalid initializer for scalar '%s'", name)
			return nil
		}
		entries = c.lowerGlobalInit(t, in.Items[0], name)
	}
	return entries
}

// globalZeroEntries recursively expands the zero value of t into data
// entries.
func (c *Context) globalZeroEntries(t ctypes.Type) []irb.DataEntry {
	if t.IsRecord() {
		entry := c.Registries.Records.Lookup(t.Record)
		var out []irb.DataEntry
		for _, m := range entry.Members {
			out = append(out, c.globalZeroEntries(m.Type)...)
		}
		return out
	}
	if t.IsArray() {
		var out []irb.DataEntry
		for i := 0; t.SizeKnown && i < int(t.Size); i++ {
			out = append(out, c.globalZeroEntries(*t.Target)...)
		}
		return out
	}
	return []irb.DataEntry{{Type: c.IRType(t), Int: 0}}
}
