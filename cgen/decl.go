package cgen

import (
	"cscore/ast"
	"cscore/ctypes"
	"cscore/irb"
	"cscore/registry"
	"cscore/scope"
	"cscore/token"
)

// ----------------------------
// ----- functions -----------
// ----------------------------

// resolveSpecs validates a declaration-specifier list and folds it into a
// base type: storage class plus exactly one of a typedef
// name, a record specifier, an enum specifier, or a combination of
// elementary-type keywords.
func (c *Context) resolveSpecs(specs *ast.DeclSpecs, first, last token.Token) (ctypes.Type, ast.StorageClass) {
	if specs.TypedefName != "" {
		m, _ := c.Scope.Lookup(specs.TypedefName)
		if m == nil || m.Kind != scope.MemTypedef {
			c.Errorf(first, last, "'%s' does not name a type", specs.TypedefName)
			return ctypes.NewBasic(ctypes.Int), specs.Storage
		}
		return m.Type.Clone(), specs.Storage
	}
	if specs.Record != nil {
		return c.resolveRecordSpec(specs.Record), specs.Storage
	}
	if specs.Enum != nil {
		return c.resolveEnumSpec(specs.Enum), specs.Storage
	}
	return c.resolveBasicSpecs(specs, first, last), specs.Storage
}

// resolveBasicSpecs folds the elementary-type-keyword modifier counts
// into one of the fixed basic types.
func (c *Context) resolveBasicSpecs(specs *ast.DeclSpecs, first, last token.Token) ctypes.Type {
	if specs.Signed > 1 || specs.Unsigned > 1 {
		c.Warnf(first, last, "duplicate 'signed'/'unsigned' specifier")
	}
	if specs.Signed > 0 && specs.Unsigned > 0 {
		c.Errorf(first, last, "both 'signed' and 'unsigned' specified")
	}
	unsigned := specs.Unsigned > 0

	if specs.HasBasic && specs.Basic == ast.TSVoid {
		if specs.Short > 0 || specs.Long > 0 || specs.Signed > 0 || specs.Unsigned > 0 {
			c.Errorf(first, last, "'void' cannot combine with other type specifiers")
		}
		return ctypes.NewBasic(ctypes.Void)
	}
	if specs.HasBasic && specs.Basic == ast.TSChar {
		if specs.Short > 0 || specs.Long > 0 {
			c.Errorf(first, last, "'char' cannot combine with 'short' or 'long'")
		}
		if unsigned {
			return ctypes.NewBasic(ctypes.UChar)
		}
		return ctypes.NewBasic(ctypes.Char)
	}
	if specs.Short > 0 && specs.Long > 0 {
		c.Errorf(first, last, "cannot combine 'short' and 'long'")
	}
	if specs.Short > 1 {
		c.Errorf(first, last, "duplicate 'short'")
	}
	if specs.Long > 2 {
		c.Errorf(first, last, "too many 'long'")
	}
	switch {
	case specs.Short > 0:
		if unsigned {
			return ctypes.NewBasic(ctypes.UShort)
		}
		return ctypes.NewBasic(ctypes.Short)
	case specs.Long >= 2:
		if unsigned {
			return ctypes.NewBasic(ctypes.ULongLong)
		}
		return ctypes.NewBasic(ctypes.LongLong)
	case specs.Long == 1:
		if unsigned {
			return ctypes.NewBasic(ctypes.ULong)
		}
		return ctypes.NewBasic(ctypes.Long)
	default:
		if unsigned {
			return ctypes.NewBasic(ctypes.UInt)
		}
		return ctypes.NewBasic(ctypes.Int)
	}
}

// resolveRecordSpec resolves a struct/union specifier: reuse or create a
// tag, process a body when present.
func (c *Context) resolveRecordSpec(rs *ast.RecordSpec) ctypes.Type {
	kind := registry.Struct
	if rs.Kind == ast.RecordUnion {
		kind = registry.Union
	}

	var entry *registry.RecordEntry
	if rs.Tag != "" {
		if tag, ok := c.Scope.LookupTagLocal(rs.Tag); ok {
			if tag.Kind != scope.TagRecord {
				c.Errorf(rs.First, rs.Last, "'%s' previously declared as a different kind of tag", rs.Tag)
				return ctypes.NewRecord(ctypes.InvalidRecord)
			}
			entry = c.Registries.Records.Lookup(tag.Record)
			if entry.Kind != kind {
				c.Errorf(rs.First, rs.Last, "'%s' redeclared with a different struct/union keyword", rs.Tag)
			}
		} else if tag, outer := c.Scope.LookupTag(rs.Tag); outer != nil && !rs.HasBody {
			if tag.Kind == scope.TagRecord {
				entry = c.Registries.Records.Lookup(tag.Record)
			}
		}
	}
	if entry == nil {
		entry = c.Registries.Records.Create(rs.Tag, kind)
		if rs.Tag != "" {
			if !c.Scope.IsGlobal {
				c.Warnf(rs.First, rs.Last, "tag '%s' declared in a non-global scope", rs.Tag)
			}
			if outer, _ := c.Scope.LookupTagOuter(rs.Tag); outer != nil {
				c.Warnf(rs.First, rs.Last, "tag '%s' shadows a wider-scope declaration", rs.Tag)
			}
			c.Scope.InsertRecordTag(rs.Tag, rs.TagTok, entry.Handle, kind)
		}
	}
	if rs.HasBody {
		if entry.Defined {
			c.Errorf(rs.First, rs.Last, "redefinition of '%s'", rs.Tag)
		} else if entry.BeingDefined {
			c.Errorf(rs.First, rs.Last, "member has incomplete type (recursive definition)")
		} else {
			if c.typeDefDepth > 0 || c.paramListDepth > 0 {
				c.Warnf(rs.First, rs.Last, "record definition nested inside another definition or a parameter list")
			}
			c.typeDefDepth++
			entry.BeingDefined = true
			for _, f := range rs.Fields {
				base, _ := c.resolveSpecs(&f.Specs, rs.First, rs.Last)
				for _, d := range f.Declarators {
					t, name := c.composeDeclarator(d, base)
					if !c.IsComplete(t) {
						c.Errorf(d.First, d.Last, "member '%s' has incomplete type", name)
						continue
					}
					if err := c.Registries.Records.Append(entry.Handle, name, t); err != nil {
						c.Errorf(d.First, d.Last, "%s", err.Error())
					}
				}
			}
			entry.BeingDefined = false
			entry.Defined = true
			c.typeDefDepth--
		}
	}
	return ctypes.NewRecord(entry.Handle)
}

// resolveEnumSpec resolves an enum specifier: reuse or create a tag,
// process enumerator bodies.
func (c *Context) resolveEnumSpec(es *ast.EnumSpec) ctypes.Type {
	var entry *registry.EnumEntry
	if es.Tag != "" {
		if tag, ok := c.Scope.LookupTagLocal(es.Tag); ok {
			if tag.Kind != scope.TagEnum {
				c.Errorf(es.First, es.Last, "'%s' previously declared as a different kind of tag", es.Tag)
				return ctypes.NewEnum(ctypes.InvalidEnum)
			}
			entry = c.Registries.Enums.Lookup(tag.Enum)
		} else if tag, outer := c.Scope.LookupTag(es.Tag); outer != nil && !es.HasBody {
			if tag.Kind == scope.TagEnum {
				entry = c.Registries.Enums.Lookup(tag.Enum)
			}
		}
	}
	if entry == nil {
		entry = c.Registries.Enums.Create(es.Tag)
		entry.Named = es.Tag != ""
		if es.Tag != "" {
			if !c.Scope.IsGlobal {
				c.Warnf(es.First, es.Last, "tag '%s' declared in a non-global scope", es.Tag)
			}
			if outer, _ := c.Scope.LookupTagOuter(es.Tag); outer != nil {
				c.Warnf(es.First, es.Last, "tag '%s' shadows a wider-scope declaration", es.Tag)
			}
			c.Scope.InsertEnumTag(es.Tag, es.TagTok, entry.Handle)
		}
	}
	enumType := ctypes.NewEnum(entry.Handle)
	if es.HasBody {
		if entry.Defined {
			c.Errorf(es.First, es.Last, "redefinition of enum '%s'", es.Tag)
		} else {
			if c.typeDefDepth > 0 || c.paramListDepth > 0 {
				c.Warnf(es.First, es.Last, "enum definition nested inside another definition or a parameter list")
			}
			c.typeDefDepth++
			pop := c.PushConstMode()
			for _, el := range es.Enumerators {
				value := int64(0)
				explicit := el.Value != nil
				if explicit {
					v := c.Expr(el.Value)
					if !v.ConstKnown {
						c.Errorf(es.First, es.Last, "enumerator value is not a constant expression")
					}
					value = v.ConstInt
				}
				if err := c.Registries.Enums.Append(entry.Handle, el.Name, value, explicit); err != nil {
					c.Errorf(el.NameTok, el.NameTok, "%s", err.Error())
					continue
				}
				c.Scope.InsertEnumElement(el.Name, el.NameTok, enumType, entry.Handle)
			}
			pop()
			entry.Defined = true
			c.typeDefDepth--
		}
	}
	return enumType
}

// composeDeclarator walks a declarator chain outside-in, applying each constructor around the type composed from
// d.Inner, and returns the final type plus the declared identifier.
func (c *Context) composeDeclarator(d *ast.Declarator, base ctypes.Type) (ctypes.Type, string) {
	if d == nil {
		return base, ""
	}
	switch d.Kind {
	case ast.DeclIdent:
		return base, d.Name
	case ast.DeclAbstract:
		return base, ""
	case ast.DeclPointer:
		inner, name := c.composeDeclarator(d.Inner, base)
		return ctypes.NewPointer(inner), name
	case ast.DeclArray:
		inner, name := c.composeDeclarator(d.Inner, base)
		if inner.IsFunction() {
			c.Errorf(d.First, d.Last, "cannot declare array of functions")
		}
		if d.SizeExpr == nil {
			return ctypes.NewArray(inner, false, 0), name
		}
		pop := c.PushConstMode()
		sz := c.Expr(d.SizeExpr)
		pop()
		if !sz.ConstKnown {
			c.Errorf(d.First, d.Last, "array size is not a constant expression")
			return ctypes.NewArray(inner, false, 0), name
		}
		if sz.ConstInt < 0 {
			c.Errorf(d.First, d.Last, "array size is negative")
			return ctypes.NewArray(inner, false, 0), name
		}
		return ctypes.NewArray(inner, true, uint64(sz.ConstInt)), name
	case ast.DeclFunction:
		inner, name := c.composeDeclarator(d.Inner, base)
		if inner.IsFunction() {
			c.Errorf(d.First, d.Last, "function cannot return a function")
		}
		if inner.IsArray() {
			c.Errorf(d.First, d.Last, "function cannot return an array")
		}
		if d.NamedCount > 0 && d.UnnamedCount > 0 {
			c.Warnf(d.First, d.Last, "some parameters named, some not")
		}
		params := make([]ctypes.Type, 0, len(d.Params))
		c.paramListDepth++
		for _, p := range d.Params {
			pbase, _ := c.resolveSpecs(&p.Specs, d.First, d.Last)
			pt, _ := c.composeDeclarator(p.Declarator, pbase)
			if pt.IsArray() {
				pt = ctypes.NewPointer(*pt.Target)
			}
			params = append(params, pt)
		}
		c.paramListDepth--
		conv := ctypes.ConvNormal
		if d.IsUSR {
			conv = ctypes.ConvUserServiceRoutine
		}
		return ctypes.NewFunction(inner, params, conv), name
	}
	return base, ""
}

// declareLocal processes a block-scope declaration, inserting each
// declared name into the current scope and emitting the storage/
// initializer code.
func (c *Context) declareLocal(n *ast.VarDecl) {
	base, storage := c.resolveSpecs(&n.Specs, n.First, n.Last)
	for _, id := range n.InitDeclarators {
		t, name := c.composeDeclarator(id.Declarator, base)
		if name == "" {
			continue
		}
		t = c.inferArraySize(t, id.Init)
		if storage == ast.StorageTypedef {
			if _, err := c.Scope.InsertTypedef(name, id.Declarator.NameTok, t); err != nil {
				c.Errorf(id.Declarator.First, id.Declarator.Last, "'%s' already declared in this scope", name)
			}
			continue
		}
		if t.IsFunction() {
			c.declareLocalFunctionProto(name, t, id.Declarator)
			continue
		}
		if !c.IsComplete(t) && id.Init == nil {
			c.Errorf(id.Declarator.First, id.Declarator.Last, "'%s' has incomplete type", name)
		}
		if outer, _ := c.Scope.LookupOuter(name); outer != nil {
			c.Warnf(id.Declarator.First, id.Declarator.Last, "declaration of '%s' shadows a wider-scope declaration", name)
		}
		irName := c.FreshLocalName(name)
		if _, err := c.Scope.InsertLocalVariable(name, id.Declarator.NameTok, t, irName); err != nil {
			c.Errorf(id.Declarator.First, id.Declarator.Last, "'%s' already declared in this scope", name)
			continue
		}
		local := c.Proc.CreateLocal(irName, c.IRType(t))
		if id.Init != nil {
			c.processInitializer(local, t, id.Init, name)
		}
	}
}

// declareLocalFunctionProto registers a function prototype named at
// block scope, which C allows without giving it storage.
func (c *Context) declareLocalFunctionProto(name string, t ctypes.Type, d *ast.Declarator) {
	if sym, ok := c.Symbols.Lookup(name); ok {
		composed, err := ctypes.Compose(sym.Type, t)
		if err != nil {
			c.Errorf(d.First, d.Last, "conflicting declaration of '%s'", name)
			return
		}
		sym.Type = composed
		return
	}
	if _, err := c.Symbols.Insert(name, d.NameTok, scope.SymFunction, t, name); err != nil {
		c.Errorf(d.First, d.Last, "conflicting declaration of '%s'", name)
		return
	}
	c.Scope.InsertGlobalSymbol(name, d.NameTok, t)
}

// globalVariableIR creates the backing irb storage for one top-level
// variable declaration, used by the module driver.
func (c *Context) globalVariableIR(irName string, t ctypes.Type) *irb.Variable {
	return c.Module.CreateVariable(irName, c.IRType(t))
}
