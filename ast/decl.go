package ast

import "cscore/token"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// TranslationUnit is the root of one parsed source file.
type TranslationUnit struct {
	Decls []Decl
}

// DeclSpecs is the set of declaration-specifier tokens the declaration
// code generator verifies and folds into a storage class, a base type and
// a flags word.
type DeclSpecs struct {
	First, Last token.Token
	Storage StorageClass
	StorageTok token.Token // token that introduced Storage, for diagnostics.

	// Type-specifier modifier counts, verified during specifier resolution.
	Signed, Unsigned int
	Short int
	Long int
	Basic BasicTypeSpec
	HasBasic bool
	LogicKeyword bool // internal-only; never produced by a real parser.

	TypedefName string // set when the specifier list names a typedef.
	Record *RecordSpec
	Enum *EnumSpec
}

func (d *DeclSpecs) Span() (token.Token, token.Token) { return d.First, d.Last }

// RecordSpec names/defines a struct or union.
type RecordSpec struct {
	First, Last token.Token
	TagTok token.Token // zero value if anonymous.
	Tag string
	Kind RecordKind
	HasBody bool
	Fields []*FieldDecl // nil unless HasBody.
}

func (r *RecordSpec) Span() (token.Token, token.Token) { return r.First, r.Last }

// FieldDecl is one struct/union member declaration.
type FieldDecl struct {
	Specs DeclSpecs
	Declarators []*Declarator
}

// EnumSpec names/defines an enum.
type EnumSpec struct {
	First, Last token.Token
	TagTok token.Token
	Tag string
	HasBody bool
	Enumerators []*Enumerator
}

func (e *EnumSpec) Span() (token.Token, token.Token) { return e.First, e.Last }

// Enumerator is one `name [= expr]` entry of an enum body.
type Enumerator struct {
	NameTok token.Token
	Name string
	Value Expr // nil when the value is implicit.
}

// DeclaratorKind distinguishes the outside-in declarator constructors
// composed onto a base type.
type DeclaratorKind int

const (
	DeclIdent DeclaratorKind = iota
	DeclAbstract // no identifier at this leaf.
	DeclPointer
	DeclArray
	DeclFunction
)

// Declarator is one node of the declarator chain; Inner points toward the
// leaf (identifier or abstract leaf).
type Declarator struct {
	First, Last token.Token
	Kind DeclaratorKind
	Inner *Declarator // nil at the leaf.

	// DeclIdent / DeclAbstract
	NameTok token.Token
	Name string

	// DeclArray
	SizeExpr Expr // nil for `T[]`.

	// DeclFunction
	Params []*ParamDecl
	IsUSR bool // `usr` attribute: user service routine calling convention.
	NamedCount, UnnamedCount int // for the "some params named, some not" diagnostic.
}

func (d *Declarator) Span() (token.Token, token.Token) { return d.First, d.Last }

// ParamDecl is one parameter in a function declarator's parameter list.
type ParamDecl struct {
	Specs DeclSpecs
	Declarator *Declarator // nil for an unnamed, typeless parameter (not legal, but parsed).
}

// InitDeclarator pairs one declarator with its optional initializer.
type InitDeclarator struct {
	Declarator *Declarator
	Init Initializer
}

// Initializer is implemented by ExprInit and ListInit.
type Initializer interface {
	Node
	initNode()
}

// ExprInit is a scalar initializer, optionally brace-wrapped.
type ExprInit struct {
	First, Last token.Token
	Braced bool // `{ expr }` around a scalar: legal with a warning.
	Expr Expr
}

func (e *ExprInit) Span() (token.Token, token.Token) { return e.First, e.Last }
func (*ExprInit) initNode() {}

// ListInit is a compound initializer for arrays/records.
type ListInit struct {
	First, Last token.Token
	Items []Initializer
	Bracketed bool // false => flat form, "not fully bracketed" warning.
}

func (l *ListInit) Span() (token.Token, token.Token) { return l.First, l.Last }
func (*ListInit) initNode() {}

// Decl kinds.

// VarDecl is a (possibly multi-declarator) declaration at file or block
// scope without a function body.
type VarDecl struct {
	First, Last token.Token
	Specs DeclSpecs
	InitDeclarators []*InitDeclarator
}

func (d *VarDecl) Span() (token.Token, token.Token) { return d.First, d.Last }
func (*VarDecl) declNode() {}

// FuncDef is a file-scope function definition.
type FuncDef struct {
	First, Last token.Token
	Specs DeclSpecs
	Declarator *Declarator // Kind == DeclFunction at the outermost composed level.
	Body *Block
}

func (d *FuncDef) Span() (token.Token, token.Token) { return d.First, d.Last }
func (*FuncDef) declNode() {}
