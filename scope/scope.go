// Package scope implements the scope facility, symbol directory and label
// table: a stack of nested scopes each holding an
// ordinary-identifier namespace and a tag namespace, a flat top-level
// symbol directory, and a per-procedure goto label table.
//
// Spec §5 requires the core to be single-threaded and synchronous, so
// unlike a mutex-guarded stack this chain carries no
// synchronization of its own.
package scope

import (
	"fmt"

	"cscore/ctypes"
	"cscore/registry"
	"cscore/token"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// MemberKind discriminates the variant payload an ordinary-namespace
// Member carries.
type MemberKind int

const (
	MemGlobalSymbol MemberKind = iota
	MemArgument
	MemLocalVariable
	MemTypedef
	MemEnumElement
)

// Member is one ordinary-identifier scope entry.
type Member struct {
	Name string
	Tok token.Token
	Type ctypes.Type
	Used bool
	Kind MemberKind

	IRName string // MemArgument / MemLocalVariable: IR-level identifier of the slot.
	Enum ctypes.EnumHandle // MemEnumElement: owning enum.
}

// TagKind discriminates a tag-namespace entry's payload.
type TagKind int

const (
	TagRecord TagKind = iota
	TagEnum
)

// Tag is one tag-namespace scope entry.
type Tag struct {
	Name string
	Tok token.Token
	Kind TagKind
	Record ctypes.RecordHandle
	RecKind registry.RecordKind // struct vs. union, for compatibility checking.
	Enum ctypes.EnumHandle
}

// AlreadyExistsError is returned by every Insert* method when the target
// namespace of the current scope already holds the name.
type AlreadyExistsError struct {
	Name string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("identifier %q already declared in this scope", e.Name)
}

// Scope is one nested lexical scope. Scopes form a single linked chain
// from innermost to module scope ; an identifier defined in an
// inner scope shadows any outer-scope entry with the same name.
type Scope struct {
	Parent *Scope
	IsGlobal bool
	ordinary map[string]*Member
	tags map[string]*Tag
	order []string // insertion order, for the unused-identifier pass.
}

// New creates a scope nested inside parent. A nil parent marks the module
// (global) scope.
func New(parent *Scope) *Scope {
	return &Scope{
		Parent: parent,
		IsGlobal: parent == nil,
		ordinary: make(map[string]*Member, 8),
		tags: make(map[string]*Tag, 2),
	}
}

// ---------------------
// ----- insertion -----
// ---------------------

func (s *Scope) insert(name string, m *Member) error {
	if _, ok := s.ordinary[name]; ok {
		return &AlreadyExistsError{name}
	}
	s.ordinary[name] = m
	s.order = append(s.order, name)
	return nil
}

// InsertGlobalSymbol registers a top-level variable, function or typedef
// name resolved through the symbol directory.
func (s *Scope) InsertGlobalSymbol(name string, tok token.Token, typ ctypes.Type) (*Member, error) {
	m := &Member{Name: name, Tok: tok, Type: typ, Kind: MemGlobalSymbol}
	return m, s.insert(name, m)
}

// InsertArgument registers a function parameter, bound to irName (spec
// §4.5: "insert with a fresh IR argument identifier").
func (s *Scope) InsertArgument(name string, tok token.Token, typ ctypes.Type, irName string) (*Member, error) {
	m := &Member{Name: name, Tok: tok, Type: typ, Kind: MemArgument, IRName: irName}
	return m, s.insert(name, m)
}

// InsertLocalVariable registers a block-scope variable, bound to irName.
func (s *Scope) InsertLocalVariable(name string, tok token.Token, typ ctypes.Type, irName string) (*Member, error) {
	m := &Member{Name: name, Tok: tok, Type: typ, Kind: MemLocalVariable, IRName: irName}
	return m, s.insert(name, m)
}

// InsertTypedef registers a typedef name; the type IS the definition, so
// there is no extra payload.
func (s *Scope) InsertTypedef(name string, tok token.Token, typ ctypes.Type) (*Member, error) {
	m := &Member{Name: name, Tok: tok, Type: typ, Kind: MemTypedef}
	return m, s.insert(name, m)
}

// InsertEnumElement registers an enum constant in the ordinary namespace.
func (s *Scope) InsertEnumElement(name string, tok token.Token, enumType ctypes.Type, enum ctypes.EnumHandle) (*Member, error) {
	m := &Member{Name: name, Tok: tok, Type: enumType, Kind: MemEnumElement, Enum: enum}
	return m, s.insert(name, m)
}

// InsertRecordTag registers a struct/union tag in this scope's tag
// namespace.
func (s *Scope) InsertRecordTag(name string, tok token.Token, h ctypes.RecordHandle, kind registry.RecordKind) (*Tag, error) {
	if _, ok := s.tags[name]; ok {
		return nil, &AlreadyExistsError{name}
	}
	t := &Tag{Name: name, Tok: tok, Kind: TagRecord, Record: h, RecKind: kind}
	s.tags[name] = t
	return t, nil
}

// InsertEnumTag registers an enum tag in this scope's tag namespace.
func (s *Scope) InsertEnumTag(name string, tok token.Token, h ctypes.EnumHandle) (*Tag, error) {
	if _, ok := s.tags[name]; ok {
		return nil, &AlreadyExistsError{name}
	}
	t := &Tag{Name: name, Tok: tok, Kind: TagEnum, Enum: h}
	s.tags[name] = t
	return t, nil
}

// -------------------
// ----- lookup ------
// -------------------

// Lookup walks the scope chain outward and returns the innermost
// ordinary-namespace entry named name, marking it used.
func (s *Scope) Lookup(name string) (*Member, *Scope) {
	for sc := s; sc != nil; sc = sc.Parent {
		if m, ok := sc.ordinary[name]; ok {
			m.Used = true
			return m, sc
		}
	}
	return nil, nil
}

// LookupLocal looks up name only in this scope, without marking it used
// or walking outward.
func (s *Scope) LookupLocal(name string) (*Member, bool) {
	m, ok := s.ordinary[name]
	return m, ok
}

// LookupTag walks the scope chain and returns the innermost tag-namespace
// entry named name.
func (s *Scope) LookupTag(name string) (*Tag, *Scope) {
	for sc := s; sc != nil; sc = sc.Parent {
		if t, ok := sc.tags[name]; ok {
			return t, sc
		}
	}
	return nil, nil
}

// LookupTagLocal looks up a tag only in this scope.
func (s *Scope) LookupTagLocal(name string) (*Tag, bool) {
	t, ok := s.tags[name]
	return t, ok
}

// LookupOuter walks the chain starting at this scope's parent, without
// marking the result used. Callers use it right before inserting a new
// ordinary-namespace entry, to detect that the new declaration shadows
// one from an enclosing scope.
func (s *Scope) LookupOuter(name string) (*Member, *Scope) {
	for sc := s.Parent; sc != nil; sc = sc.Parent {
		if m, ok := sc.ordinary[name]; ok {
			return m, sc
		}
	}
	return nil, nil
}

// LookupTagOuter walks the tag namespace starting at this scope's parent,
// the tag-namespace counterpart of LookupOuter.
func (s *Scope) LookupTagOuter(name string) (*Tag, *Scope) {
	for sc := s.Parent; sc != nil; sc = sc.Parent {
		if t, ok := sc.tags[name]; ok {
			return t, sc
		}
	}
	return nil, nil
}

// Members returns every ordinary-namespace entry in insertion order, for
// the unused-identifier diagnostic pass.
func (s *Scope) Members() []*Member {
	out := make([]*Member, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.ordinary[name])
	}
	return out
}
