package scope

import "cscore/ctypes"
import "cscore/token"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// SymbolKind distinguishes the three things a top-level symbol can name.
type SymbolKind int

const (
	SymVariable SymbolKind = iota
	SymFunction
	SymType
)

// Symbol is one entry of the top-level symbol directory: a flat
// table, independent of the nested scope chain, that the module driver
// walks at the end of a compilation to emit extern declarations for every
// declared-but-undefined name.
type Symbol struct {
	Tok token.Token
	Name string
	Kind SymbolKind
	Type ctypes.Type
	Defined bool
	IRName string
}

// Directory is the flat, unique-by-identifier symbol directory.
type Directory struct {
	entries map[string]*Symbol
	order []string
}

// NewDirectory returns an empty symbol directory.
func NewDirectory() *Directory {
	return &Directory{entries: make(map[string]*Symbol, 16)}
}

// ---------------------
// ----- functions -----
// ---------------------

// Insert adds a new top-level symbol. It returns an AlreadyExistsError if
// name is already present; callers that need to merge a second,
// compatible declaration should Lookup first and call Compose themselves.
func (d *Directory) Insert(name string, tok token.Token, kind SymbolKind, typ ctypes.Type, irName string) (*Symbol, error) {
	if _, ok := d.entries[name]; ok {
		return nil, &AlreadyExistsError{name}
	}
	s := &Symbol{Tok: tok, Name: name, Kind: kind, Type: typ, IRName: irName}
	d.entries[name] = s
	d.order = append(d.order, name)
	return s, nil
}

// Lookup returns the symbol named name, if any.
func (d *Directory) Lookup(name string) (*Symbol, bool) {
	s, ok := d.entries[name]
	return s, ok
}

// All returns every symbol in insertion order, for the module driver's
// extern-declaration emission pass.
func (d *Directory) All() []*Symbol {
	out := make([]*Symbol, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, d.entries[name])
	}
	return out
}
