// Package irb is the opaque IR builder: cgen constructs an irb.Module through
// it and never inspects any other representation of the generated program.
// Its shape (private fields, a back-reference to the owning Module, a
// per-Module sequence counter for synthesized names) is grounded on the
// ir/lir package, adapted to a single-threaded builder: there is no
// concurrent-validation use case here, so none of the original locking is
// carried forward.
package irb

import "fmt"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Module is the top-level IR artifact for one compilation: its procedures,
// module-scope variables, data blocks and record type declarations (spec
// §6: "create/destroy for modules, procedures,... variables, data
// blocks,... records").
type Module struct {
	Name string

	procs []*Proc
	globals []*Variable
	data []*DataBlock
	records []*Record

	seq int
}

// CreateModule creates a new empty IR module.
func CreateModule(name string) *Module {
	return &Module{Name: name}
}

func (m *Module) nextID() int {
	id := m.seq
	m.seq++
	return id
}

// Procs returns every procedure created in m, in creation order.
func (m *Module) Procs() []*Proc { return m.procs }

// Globals returns every module-scope variable created in m.
func (m *Module) Globals() []*Variable { return m.globals }

// DataBlocks returns every data block created in m.
func (m *Module) DataBlocks() []*DataBlock { return m.data }

// Records returns every IR-level record type declared in m.
func (m *Module) Records() []*Record { return m.records }

// -----------------------------
// ----- module-level create ---
// -----------------------------

// Variable is a module-scope (global) or procedure-scope (local/argument)
// storage location.
type Variable struct {
	id int
	Name string
	Type *TypeExpr
	// Attrs holds free-form IR-level attributes (e.g. "extern", "static"),
	// Free-form IR-level attributes (e.g. "extern", "static").
	Attrs []string
}

// CreateVariable creates a module-scope variable of type t.
func (m *Module) CreateVariable(name string, t *TypeExpr) *Variable {
	v := &Variable{id: m.nextID(), Name: name, Type: t}
	m.globals = append(m.globals, v)
	return v
}

// DataEntry is one initializer value appended to a DataBlock.
type DataEntry struct {
	Type *TypeExpr
	Int int64
	Str string
	IsStr bool
}

// DataBlock is a named sequence of initializer values backing a global
// variable's constant initial contents.
type DataBlock struct {
	id int
	Name string
	Entries []DataEntry
}

// CreateDataBlock creates a new, empty data block.
func (m *Module) CreateDataBlock(name string) *DataBlock {
	d := &DataBlock{id: m.nextID(), Name: name}
	m.data = append(m.data, d)
	return d
}

// AppendDataEntry appends one initializer value to d.
func (d *DataBlock) AppendDataEntry(e DataEntry) {
	d.Entries = append(d.Entries, e)
}

// Record is an IR-level aggregate type declaration (struct/union lowered
// to an ordered field list), distinct from registry.RecordEntry: the
// registry tracks C-level struct/union semantics during analysis, this is
// the builder-facing type the backend consumes.
type Record struct {
	id int
	Name string
	Fields []*TypeExpr
	Union bool
}

// CreateRecord declares a new IR-level record type.
func (m *Module) CreateRecord(name string, union bool) *Record {
	r := &Record{id: m.nextID(), Name: name, Union: union}
	m.records = append(m.records, r)
	return r
}

// AppendField appends one field to a record type declaration.
func (r *Record) AppendField(t *TypeExpr) {
	r.Fields = append(r.Fields, t)
}

func (r *Record) String() string {
	kind := "record"
	if r.Union {
		kind = "union"
	}
	return fmt.Sprintf("%s %s", kind, r.Name)
}
