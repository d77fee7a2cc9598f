// Package registry implements the record and enum registries: process-wide containers that own struct/union/enum definitions,
// keyed by a synthesized IR-level tag identifier. ctypes.Type variants
// that mention a record or enum carry only the integer handle assigned
// here — the handle does not own the referent, and a Records/Enums value
// outlives every Type built against it for the whole compilation.
package registry

import (
	"fmt"

	"cscore/ctypes"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// RecordMember is one (name, type) pair of a struct/union in declaration
// order.
type RecordMember struct {
	Name string
	Type ctypes.Type
}

// RecordEntry is one struct/union registry entry.
type RecordEntry struct {
	Handle ctypes.RecordHandle
	IRName string // synthesized unique IR-level tag identifier.
	Tag string // C identifier, "" if anonymous.
	Kind RecordKind
	Members []RecordMember
	Defined bool // fully defined vs. only forward-declared.
	BeingDefined bool // detects nested redefinition.
}

// RecordKind distinguishes struct from union.
type RecordKind int

const (
	Struct RecordKind = iota
	Union
)

// Records is the process-wide struct/union registry: one per compilation.
type Records struct {
	entries []*RecordEntry
	seq int
}

// NewRecords returns an empty record registry.
func NewRecords() *Records {
	return &Records{entries: make([]*RecordEntry, 0, 8)}
}

// ---------------------
// ----- functions -----
// ---------------------

// Create allocates a new record registry entry and returns it.
// An empty tag produces a generated unique name.
func (r *Records) Create(tag string, kind RecordKind) *RecordEntry {
	h := ctypes.RecordHandle(len(r.entries))
	irName := tag
	if irName == "" {
		irName = fmt.Sprintf(".anon_record.%d", r.seq)
	}
	r.seq++
	e := &RecordEntry{Handle: h, IRName: irName, Tag: tag, Kind: kind}
	r.entries = append(r.entries, e)
	return e
}

// Lookup returns the entry for handle h. It panics on an out-of-range
// handle, which indicates a compiler-internal bug (a Type was built
// against a different Records value).
func (r *Records) Lookup(h ctypes.RecordHandle) *RecordEntry {
	return r.entries[h]
}

// Defined reports whether the record named by h has a complete
// definition, used by ctypes.IsComplete.
func (r *Records) Defined(h ctypes.RecordHandle) bool {
	if h < 0 || int(h) >= len(r.entries) {
		return false
	}
	return r.entries[h].Defined
}

// Member looks up a member by name, returning its offset in bytes and
// whether it was found. Struct offsets are the sum of the sizes of
// preceding members; union members all sit at offset 0.
func (r *Records) Member(h ctypes.RecordHandle, name string) (RecordMember, int, bool) {
	e := r.Lookup(h)
	offset := 0
	for _, m := range e.Members {
		if m.Name == name {
			return m, offset, true
		}
		if e.Kind == Struct {
			if sz, ok := r.Sizeof(m.Type); ok {
				offset += sz
			}
		}
	}
	return RecordMember{}, 0, false
}

// Append adds a member to a record definition being built. It fails with
// a "duplicate member" error on a duplicate name within the same record.
func (r *Records) Append(h ctypes.RecordHandle, name string, typ ctypes.Type) error {
	e := r.Lookup(h)
	for _, m := range e.Members {
		if m.Name == name {
			return fmt.Errorf("duplicate member %q in %s", name, e.describe())
		}
	}
	e.Members = append(e.Members, RecordMember{Name: name, Type: typ})
	return nil
}

func (e *RecordEntry) describe() string {
	kind := "struct"
	if e.Kind == Union {
		kind = "union"
	}
	if e.Tag != "" {
		return fmt.Sprintf("%s %s", kind, e.Tag)
	}
	return fmt.Sprintf("anonymous %s", kind)
}

// All returns every record entry, for the unused-identifier and module
// driver passes.
func (r *Records) All() []*RecordEntry { return r.entries }
