package registry

import (
	"fmt"

	"cscore/ctypes"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// EnumElement is one (name, value) pair of an enum, in declaration order.
type EnumElement struct {
	Name string
	Value int64
}

// EnumEntry is one enum registry entry. A "strict" enum
// (spec GLOSSARY) is one whose tag has at least one named instance
// (Named); enum-value checking and diagnostics (switch exhaustiveness,
// enum-mixing warnings) apply only to strict enums.
type EnumEntry struct {
	Handle ctypes.EnumHandle
	IRName string
	Tag string
	Elements []EnumElement
	Defined bool
	Named bool
	NextValue int64 // implicit value for the next enumerator omitting `=`.
}

// Strict reports whether diagnostics that only apply to strict enums
// (spec GLOSSARY, §4.6 switch exhaustiveness) should fire for this enum.
func (e *EnumEntry) Strict() bool { return e.Named }

// Enums is the process-wide enum registry: one per compilation.
type Enums struct {
	entries []*EnumEntry
	seq int
}

// NewEnums returns an empty enum registry.
func NewEnums() *Enums {
	return &Enums{entries: make([]*EnumEntry, 0, 8)}
}

// ---------------------
// ----- functions -----
// ---------------------

// Create allocates a new enum registry entry and returns it. An empty tag
// produces a generated unique name.
func (en *Enums) Create(tag string) *EnumEntry {
	h := ctypes.EnumHandle(len(en.entries))
	irName := tag
	if irName == "" {
		irName = fmt.Sprintf(".anon_enum.%d", en.seq)
	}
	en.seq++
	e := &EnumEntry{Handle: h, IRName: irName, Tag: tag}
	en.entries = append(en.entries, e)
	return e
}

// Lookup returns the entry for handle h.
func (en *Enums) Lookup(h ctypes.EnumHandle) *EnumEntry {
	return en.entries[h]
}

// Defined reports whether the enum named by h has a complete definition,
// used by ctypes.IsComplete.
func (en *Enums) Defined(h ctypes.EnumHandle) bool {
	if h < 0 || int(h) >= len(en.entries) {
		return false
	}
	return en.entries[h].Defined
}

// Member looks up an enumerator by name.
func (en *Enums) Member(h ctypes.EnumHandle, name string) (EnumElement, bool) {
	e := en.Lookup(h)
	for _, m := range e.Elements {
		if m.Name == name {
			return m, true
		}
	}
	return EnumElement{}, false
}

// Append adds an enumerator, assigning it value if explicit is true, or
// the registry's running NextValue otherwise, then advances NextValue.
func (en *Enums) Append(h ctypes.EnumHandle, name string, value int64, explicit bool) error {
	e := en.Lookup(h)
	for _, m := range e.Elements {
		if m.Name == name {
			return fmt.Errorf("duplicate enumerator %q in enum %s", name, e.Tag)
		}
	}
	if !explicit {
		value = e.NextValue
	}
	e.Elements = append(e.Elements, EnumElement{Name: name, Value: value})
	e.NextValue = value + 1
	return nil
}

// All returns every enum entry.
func (en *Enums) All() []*EnumEntry { return en.entries }
