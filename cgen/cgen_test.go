package cgen

import (
	"strings"
	"testing"

	"cscore/ast"
	"cscore/irb"
	"cscore/token"
)

// tk synthesizes a single-token source range at (line, col), in a
// fictitious "t.c" source file shared by every test in this file.
func tk(line, col int, text string) token.Token {
	return token.Token{
		File: "t.c", Text: text,
		Start: token.Pos{Line: line, Col: col},
		End:   token.Pos{Line: line, Col: col + len(text)},
		Ident: text,
	}
}

func ident(line, col int, name string) *ast.Ident {
	return &ast.Ident{Tok: tk(line, col, name), Name: name}
}

func intParam(line, col int, name string) *ast.ParamDecl {
	nt := tk(line, col, name)
	return &ast.ParamDecl{
		Specs:      ast.DeclSpecs{HasBasic: true, Basic: ast.TSInt},
		Declarator: &ast.Declarator{First: nt, Last: nt, Kind: ast.DeclIdent, NameTok: nt, Name: name},
	}
}

// funcDef builds `int <name>(<params...>) { <body...> }`.
func funcDef(line int, name string, params []*ast.ParamDecl, body []ast.Stmt) *ast.FuncDef {
	nt := tk(line, 5, name)
	return &ast.FuncDef{
		First: tk(line, 1, "int"), Last: tk(line+2, 1, "}"),
		Specs: ast.DeclSpecs{HasBasic: true, Basic: ast.TSInt},
		Declarator: &ast.Declarator{
			First: nt, Last: tk(line, 20, ")"),
			Kind:  ast.DeclFunction,
			Inner: &ast.Declarator{First: nt, Last: nt, Kind: ast.DeclIdent, NameTok: nt, Name: name},
			Params:     params,
			NamedCount: len(params),
		},
		Body: &ast.Block{First: tk(line+1, 1, "{"), Last: tk(line+2, 1, "}"), Items: body},
	}
}

func TestCompileAddAndMainEmitsCallAndReturn(t *testing.T) {
	add := funcDef(1, "add", []*ast.ParamDecl{intParam(1, 9, "a"), intParam(1, 16, "b")}, []ast.Stmt{
		&ast.ReturnStmt{
			First: tk(2, 5, "return"), Last: tk(2, 18, ";"),
			Value: &ast.BinaryExpr{OpTok: tk(2, 14, "+"), Op: ast.OpAdd, X: ident(2, 12, "a"), Y: ident(2, 16, "b")},
		},
	})
	main := funcDef(5, "main", nil, []ast.Stmt{
		&ast.ReturnStmt{
			First: tk(6, 5, "return"), Last: tk(6, 25, ";"),
			Value: &ast.CallExpr{
				First: tk(6, 12, "add"), Last: tk(6, 24, ")"),
				Callee: ident(6, 12, "add"),
				Args:   []ast.Expr{&ast.IntLit{Tok: tk(6, 16, "2"), Text: "2"}, &ast.IntLit{Tok: tk(6, 19, "3"), Text: "3"}},
			},
		},
	})

	c := New("t")
	c.Compile(&ast.TranslationUnit{Decls: []ast.Decl{add, main}})

	if !c.Success() {
		t.Fatalf("unexpected diagnostics: %v", c.Diagnostics)
	}
	if len(c.Module.Procs()) != 2 {
		t.Fatalf("Procs() = %d, want 2", len(c.Module.Procs()))
	}

	var addProc, mainProc *irb.Proc
	for _, p := range c.Module.Procs() {
		switch p.Name {
		case "add":
			addProc = p
		case "main":
			mainProc = p
		}
	}
	if addProc == nil || mainProc == nil {
		t.Fatal("expected both add and main to be declared procedures")
	}

	foundAdd, foundRetV, foundCall := false, false, false
	for _, b := range addProc.Blocks {
		for _, in := range b.Instr {
			if in.Kind == irb.Add {
				foundAdd = true
			}
			if in.Kind == irb.RetV {
				foundRetV = true
			}
		}
	}
	for _, b := range mainProc.Blocks {
		for _, in := range b.Instr {
			if in.Kind == irb.Call {
				foundCall = true
			}
		}
	}
	if !foundAdd {
		t.Error("add's body should lower the + expression to an Add instruction")
	}
	if !foundRetV {
		t.Error("add's body should lower its return to a RetV instruction")
	}
	if !foundCall {
		t.Error("main's body should lower the call to add through a Call instruction")
	}
}

func TestFuncDefRedefinitionDiagnostic(t *testing.T) {
	def1 := funcDef(1, "f", nil, []ast.Stmt{&ast.ReturnStmt{First: tk(2, 1, "return"), Last: tk(2, 8, ";")}})
	def2 := funcDef(5, "f", nil, []ast.Stmt{&ast.ReturnStmt{First: tk(6, 1, "return"), Last: tk(6, 8, ";")}})

	c := New("t")
	c.Compile(&ast.TranslationUnit{Decls: []ast.Decl{def1, def2}})

	if c.Success() {
		t.Fatal("expected a redefinition diagnostic, compile reported success")
	}
	found := false
	for _, d := range c.Diagnostics {
		if !d.Warning && strings.Contains(d.Message, "redefinition of 'f'") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a redefinition diagnostic, got: %v", c.Diagnostics)
	}
}

func TestGotoUndefinedLabelDiagnostic(t *testing.T) {
	nt := tk(2, 10, "nowhere")
	body := []ast.Stmt{
		&ast.GotoStmt{First: tk(2, 1, "goto"), Last: tk(2, 18, ";"), LabelTok: nt, Label: "nowhere"},
	}
	def := funcDef(1, "f", nil, body)

	c := New("t")
	c.Compile(&ast.TranslationUnit{Decls: []ast.Decl{def}})

	if c.Success() {
		t.Fatal("expected an undefined-label diagnostic, compile reported success")
	}
	found := false
	for _, d := range c.Diagnostics {
		if strings.Contains(d.Message, "used but never defined") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an undefined-label diagnostic, got: %v", c.Diagnostics)
	}
}

func TestImplicitTrailingReturnForNonVoidFunction(t *testing.T) {
	def := funcDef(1, "f", nil, nil) // empty body: no explicit return.

	c := New("t")
	c.Compile(&ast.TranslationUnit{Decls: []ast.Decl{def}})

	if !c.Success() {
		t.Fatalf("unexpected diagnostics: %v", c.Diagnostics)
	}
	proc := c.Module.Procs()[0]
	last := proc.Blocks[len(proc.Blocks)-1]
	if len(last.Instr) == 0 || last.Instr[len(last.Instr)-1].Kind != irb.RetV {
		t.Error("a non-void function falling off the end should get an implicit RetV")
	}
}

func TestDivisionDiagnostic(t *testing.T) {
	def := funcDef(1, "f", nil, []ast.Stmt{
		&ast.ReturnStmt{
			First: tk(2, 5, "return"), Last: tk(2, 14, ";"),
			Value: &ast.BinaryExpr{
				OpTok: tk(2, 12, "/"), Op: ast.OpDiv,
				X: &ast.IntLit{Tok: tk(2, 10, "4"), Text: "4"},
				Y: &ast.IntLit{Tok: tk(2, 12, "2"), Text: "2"},
			},
		},
	})

	c := New("t")
	c.Compile(&ast.TranslationUnit{Decls: []ast.Decl{def}})

	if c.Success() {
		t.Fatal("expected a division-unsupported diagnostic, compile reported success")
	}
	found := false
	for _, d := range c.Diagnostics {
		if strings.Contains(d.Message, "division is not supported") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a division-unsupported diagnostic, got: %v", c.Diagnostics)
	}
}

func TestLocalVariableShadowsOuterScopeWarns(t *testing.T) {
	outerTok := tk(2, 9, "x")
	innerTok := tk(4, 13, "x")
	def := funcDef(1, "f", nil, []ast.Stmt{
		&ast.DeclStmt{
			First: tk(2, 5, "int"), Last: tk(2, 11, ";"),
			Decl: &ast.VarDecl{
				First: tk(2, 5, "int"), Last: tk(2, 11, ";"),
				Specs:           ast.DeclSpecs{HasBasic: true, Basic: ast.TSInt},
				InitDeclarators: []*ast.InitDeclarator{{Declarator: &ast.Declarator{First: outerTok, Last: outerTok, Kind: ast.DeclIdent, NameTok: outerTok, Name: "x"}}},
			},
		},
		&ast.Block{
			First: tk(3, 5, "{"), Last: tk(5, 5, "}"),
			Items: []ast.Stmt{
				&ast.DeclStmt{
					First: tk(4, 9, "int"), Last: tk(4, 15, ";"),
					Decl: &ast.VarDecl{
						First: tk(4, 9, "int"), Last: tk(4, 15, ";"),
						Specs:           ast.DeclSpecs{HasBasic: true, Basic: ast.TSInt},
						InitDeclarators: []*ast.InitDeclarator{{Declarator: &ast.Declarator{First: innerTok, Last: innerTok, Kind: ast.DeclIdent, NameTok: innerTok, Name: "x"}}},
					},
				},
			},
		},
		&ast.ReturnStmt{First: tk(6, 5, "return"), Last: tk(6, 12, ";")},
	})

	c := New("t")
	c.Compile(&ast.TranslationUnit{Decls: []ast.Decl{def}})

	found := false
	for _, d := range c.Diagnostics {
		if d.Warning && strings.Contains(d.Message, "shadows a wider-scope declaration") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a shadowing warning, got: %v", c.Diagnostics)
	}
}

func TestRecordTagNonGlobalScopeAndShadowWarnings(t *testing.T) {
	outerTagTok := tk(1, 8, "s")
	innerTagTok := tk(3, 13, "s")
	outerRecord := &ast.RecordSpec{First: tk(1, 1, "struct"), Last: tk(1, 12, ";"), TagTok: outerTagTok, Tag: "s", Kind: ast.RecordStruct, HasBody: true}
	innerRecord := &ast.RecordSpec{First: tk(3, 5, "struct"), Last: tk(3, 16, ";"), TagTok: innerTagTok, Tag: "s", Kind: ast.RecordStruct, HasBody: true}

	def := funcDef(5, "f", nil, []ast.Stmt{
		&ast.Block{
			First: tk(3, 3, "{"), Last: tk(3, 17, "}"),
			Items: []ast.Stmt{
				&ast.DeclStmt{
					First: innerRecord.First, Last: innerRecord.Last,
					Decl: &ast.VarDecl{First: innerRecord.First, Last: innerRecord.Last, Specs: ast.DeclSpecs{Record: innerRecord}},
				},
			},
		},
		&ast.ReturnStmt{First: tk(6, 5, "return"), Last: tk(6, 12, ";")},
	})

	topDecl := &ast.VarDecl{
		First: outerRecord.First, Last: outerRecord.Last,
		Specs: ast.DeclSpecs{Record: outerRecord},
	}

	c := New("t")
	c.Compile(&ast.TranslationUnit{Decls: []ast.Decl{topDecl, def}})

	nonGlobal, shadow := false, false
	for _, d := range c.Diagnostics {
		if d.Warning && strings.Contains(d.Message, "non-global scope") {
			nonGlobal = true
		}
		if d.Warning && strings.Contains(d.Message, "shadows a wider-scope declaration") {
			shadow = true
		}
	}
	if !nonGlobal {
		t.Errorf("expected a non-global-scope tag warning, got: %v", c.Diagnostics)
	}
	if !shadow {
		t.Errorf("expected a tag-shadowing warning, got: %v", c.Diagnostics)
	}
}

func TestArrayIndexOutOfBoundsMessageIsExact(t *testing.T) {
	arrTok := tk(1, 5, "a")
	arrDecl := &ast.VarDecl{
		First: tk(1, 1, "int"), Last: tk(1, 11, ";"),
		Specs: ast.DeclSpecs{HasBasic: true, Basic: ast.TSInt},
		InitDeclarators: []*ast.InitDeclarator{{
			Declarator: &ast.Declarator{
				First: arrTok, Last: tk(1, 9, "]"), Kind: ast.DeclArray,
				Inner:    &ast.Declarator{First: arrTok, Last: arrTok, Kind: ast.DeclIdent, NameTok: arrTok, Name: "a"},
				SizeExpr: &ast.IntLit{Tok: tk(1, 7, "5"), Text: "5"},
			},
		}},
	}
	def := funcDef(3, "g", nil, []ast.Stmt{
		&ast.ReturnStmt{
			First: tk(4, 5, "return"), Last: tk(4, 16, ";"),
			Value: &ast.IndexExpr{
				First: tk(4, 12, "a"), Last: tk(4, 15, "]"),
				X: ident(4, 12, "a"), Index: &ast.IntLit{Tok: tk(4, 14, "7"), Text: "7"},
			},
		},
	})

	c := New("t")
	c.Compile(&ast.TranslationUnit{Decls: []ast.Decl{arrDecl, def}})

	found := false
	for _, d := range c.Diagnostics {
		if d.Warning && d.Message == "Array index is out of bounds." {
			found = true
		}
	}
	if !found {
		t.Errorf("expected the exact out-of-bounds message, got: %v", c.Diagnostics)
	}
}

func TestUnsignedMixedSignComparisonMessageIsExact(t *testing.T) {
	def := funcDef(1, "h", []*ast.ParamDecl{
		{Specs: ast.DeclSpecs{HasBasic: true, Unsigned: 1, Basic: ast.TSInt}, Declarator: &ast.Declarator{First: tk(1, 18, "x"), Last: tk(1, 18, "x"), Kind: ast.DeclIdent, NameTok: tk(1, 18, "x"), Name: "x"}},
		intParam(1, 26, "y"),
	}, []ast.Stmt{
		&ast.ReturnStmt{
			First: tk(2, 5, "return"), Last: tk(2, 15, ";"),
			Value: &ast.BinaryExpr{OpTok: tk(2, 14, "<"), Op: ast.OpLt, X: ident(2, 12, "x"), Y: ident(2, 16, "y")},
		},
	})

	c := New("t")
	c.Compile(&ast.TranslationUnit{Decls: []ast.Decl{def}})

	found := false
	for _, d := range c.Diagnostics {
		if d.Warning && d.Message == "Unsigned comparison of mixed-sign integers." {
			found = true
		}
	}
	if !found {
		t.Errorf("expected the exact mixed-sign comparison message, got: %v", c.Diagnostics)
	}
}

func TestIncompleteParameterTypeIsError(t *testing.T) {
	pTok := tk(1, 20, "s")
	def := funcDef(1, "f", []*ast.ParamDecl{
		{
			Specs:      ast.DeclSpecs{Record: &ast.RecordSpec{First: tk(1, 9, "struct"), Last: tk(1, 18, "s"), TagTok: tk(1, 16, "s"), Tag: "s", Kind: ast.RecordStruct}},
			Declarator: &ast.Declarator{First: pTok, Last: pTok, Kind: ast.DeclIdent, NameTok: pTok, Name: "s"},
		},
	}, []ast.Stmt{
		&ast.ReturnStmt{First: tk(2, 5, "return"), Last: tk(2, 12, ";")},
	})

	c := New("t")
	c.Compile(&ast.TranslationUnit{Decls: []ast.Decl{def}})

	if c.Success() {
		t.Fatal("expected an incomplete-parameter-type diagnostic, compile reported success")
	}
	found := false
	for _, d := range c.Diagnostics {
		if !d.Warning && strings.Contains(d.Message, "incomplete type") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an incomplete-parameter-type diagnostic, got: %v", c.Diagnostics)
	}
}

func TestUSRFunctionRejectsParameters(t *testing.T) {
	def := funcDef(1, "svc", []*ast.ParamDecl{intParam(1, 20, "a")}, []ast.Stmt{
		&ast.ReturnStmt{First: tk(2, 5, "return"), Last: tk(2, 12, ";")},
	})
	def.Declarator.IsUSR = true

	c := New("t")
	c.Compile(&ast.TranslationUnit{Decls: []ast.Decl{def}})

	if c.Success() {
		t.Fatal("expected a usr-with-parameters diagnostic, compile reported success")
	}
	found := false
	for _, d := range c.Diagnostics {
		if !d.Warning && strings.Contains(d.Message, "cannot take parameters") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a usr-with-parameters diagnostic, got: %v", c.Diagnostics)
	}
}

func TestEmitExternDeclsForUndefinedFunction(t *testing.T) {
	protoTok := tk(1, 5, "undeclared_fn")
	proto := &ast.VarDecl{
		First: tk(1, 1, "int"), Last: tk(1, 21, ";"),
		Specs: ast.DeclSpecs{HasBasic: true, Basic: ast.TSInt},
		InitDeclarators: []*ast.InitDeclarator{{Declarator: &ast.Declarator{
			First: protoTok, Last: tk(1, 20, ")"), Kind: ast.DeclFunction,
			Inner: &ast.Declarator{First: protoTok, Last: protoTok, Kind: ast.DeclIdent, NameTok: protoTok, Name: "undeclared_fn"},
		}}},
	}
	calleeTok := tk(2, 5, "undeclared_fn")
	def := funcDef(1, "f", nil, []ast.Stmt{
		&ast.ExprStmt{
			First: tk(2, 1, "undeclared_fn"), Last: tk(2, 16, ";"),
			X: &ast.CallExpr{First: calleeTok, Last: calleeTok, Callee: &ast.Ident{Tok: calleeTok, Name: "undeclared_fn"}},
		},
	})

	c := New("t")
	c.Compile(&ast.TranslationUnit{Decls: []ast.Decl{proto, def}})

	if !c.Success() {
		t.Fatalf("unexpected diagnostics: %v", c.Diagnostics)
	}
	found := false
	for _, p := range c.Module.Procs() {
		if p.Name == "undeclared_fn" {
			found = true
			hasExtern := false
			for _, a := range p.Attrs {
				if a == "extern" {
					hasExtern = true
				}
			}
			if !hasExtern {
				t.Error("undeclared_fn should be declared with the extern attribute")
			}
		}
	}
	if !found {
		t.Error("expected an extern declaration for the undefined callee undeclared_fn")
	}
}
