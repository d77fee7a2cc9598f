// Package cgen is the semantic analyzer and IR code generator: it walks a
// parsed AST (package ast), maintains the type and scope environment
// (packages ctypes, registry, scope), and emits into the opaque IR
// builder (package irb). Its overall shape — one Context struct threading
// scope, module and diagnostic state through every visitor method instead
// of five separate parameters — is grounded on oisee/minz's
// pkg/semantic/analyzer.go Analyzer struct.
package cgen

import (
	"fmt"

	"github.com/pkg/errors"

	"cscore/ast"
	"cscore/ctypes"
	"cscore/irb"
	"cscore/registry"
	"cscore/scope"
	"cscore/token"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Diagnostic is one error or warning emitted during code generation (spec
// §6, §7): rendered exactly as `<file>:<line>:<col>[-<line>:<col>]:
// [Warning: ]<message>`.
type Diagnostic struct {
	Range string
	Warning bool
	Message string
}

func (d Diagnostic) String() string {
	if d.Warning {
		return fmt.Sprintf("%s: Warning: %s\n", d.Range, d.Message)
	}
	return fmt.Sprintf("%s: %s\n", d.Range, d.Message)
}

// Context is the single compiler context: shared
// registries, the current scope pointer, the current IR module, and
// aggregate error/warning counters. Component code borrows it mutably;
// Aliasing across components within one call is not allowed, so a
// single Context value is threaded top-down rather than copied.
type Context struct {
	Registries *registry.Registries
	Module *irb.Module
	Symbols *scope.Directory

	Scope *scope.Scope

	// Proc-level state, valid only while generating the body of a
	// function definition.
	Labels *scope.Labels
	Tracking *scope.Tracking
	Proc *irb.Proc
	Block *irb.Block

	localSeq map[string]int // name -> next mangling suffix, for %1@name etc.
	stringSeq int // next ".str.N" data block name.

	// ConstMode and TypeOnly gate the expression code generator: ConstMode requires the result be const_known;
	// TypeOnly additionally suppresses all IR emission and side effects.
	ConstMode bool
	TypeOnly bool

	// procReturnType is the declared return type of the procedure
	// currently being generated, used by the return statement to drive
	// implicit conversion.
	procReturnType ctypes.Type

	// switchTag and switchCompareLabel carry state between a switch
	// statement and the case/default labels nested in its body: the
	// controlling value to compare against, and the label of the next
	// comparison block to chain to.
	switchTag Result
	switchCompareLabel string

	// typeDefDepth counts enclosing record/enum bodies currently being
	// resolved, and paramListDepth counts enclosing function-declarator
	// parameter lists; both drive the nested-definition-placement warning.
	typeDefDepth int
	paramListDepth int

	Diagnostics []Diagnostic
	ErrorFlag bool
	Warnings int
}

// New creates a fresh compiler context with empty registries, a new
// module and an empty module-level scope.
func New(moduleName string) *Context {
	rg := registry.New()
	return &Context{
		Registries: rg,
		Module: irb.CreateModule(moduleName),
		Symbols: scope.NewDirectory(),
		Scope: scope.New(nil),
		localSeq: make(map[string]int),
	}
}

// ---------------------
// ----- functions -----
// ---------------------

// Errorf records a semantic error at tok's range.
func (c *Context) Errorf(first, last token.Token, format string, args ...interface{}) {
	c.ErrorFlag = true
	c.Diagnostics = append(c.Diagnostics, Diagnostic{
		Range: token.Range(first, last),
		Message: fmt.Sprintf(format, args...),
	})
}

// Warnf records a warning at tok's range.
func (c *Context) Warnf(first, last token.Token, format string, args ...interface{}) {
	c.Warnings++
	c.Diagnostics = append(c.Diagnostics, Diagnostic{
		Range: token.Range(first, last),
		Warning: true,
		Message: fmt.Sprintf(format, args...),
	})
}

// Success reports whether the compilation is successful so far.
func (c *Context) Success() bool { return !c.ErrorFlag }

// PushScope enters a new nested scope and returns a restore function the
// caller must defer.
func (c *Context) PushScope() func() {
	prev := c.Scope
	c.Scope = scope.New(prev)
	return func() { c.Scope = prev }
}

// OpenProc resets per-procedure state for a new function definition (spec
// §5: label table, loop/switch stacks, counters created with the
// procedure).
func (c *Context) OpenProc(p *irb.Proc, entry *irb.Block, ret ctypes.Type) func() {
	prevLabels, prevTracking, prevProc, prevBlock := c.Labels, c.Tracking, c.Proc, c.Block
	prevRet := c.procReturnType
	c.Labels = scope.NewLabels()
	c.Tracking = scope.NewTracking()
	c.Proc = p
	c.Block = entry
	c.procReturnType = ret
	c.localSeq = make(map[string]int)
	return func() {
		c.Labels, c.Tracking, c.Proc, c.Block = prevLabels, prevTracking, prevProc, prevBlock
		c.procReturnType = prevRet
	}
}

// Emit appends instr to the current block.
func (c *Context) Emit(instr *irb.Instr) {
	c.Block.AppendInstr(instr)
}

// NewBlock creates and switches to a new labeled block in the current
// procedure, returning it.
func (c *Context) NewBlock(label string) *irb.Block {
	b := c.Proc.CreateBlock(label)
	c.Block = b
	return b
}

// FreshLocalName mangles name to avoid conflicting with any previous
// same-named local in this procedure: `%name`, then `%1@name`,
// `%2@name`,....
func (c *Context) FreshLocalName(name string) string {
	n := c.localSeq[name]
	c.localSeq[name]++
	if n == 0 {
		return "%" + name
	}
	return fmt.Sprintf("%%%d@%s", n, name)
}

// IsComplete reports whether t is a complete type, resolving record/enum
// definedness through the context's registries.
func (c *Context) IsComplete(t ctypes.Type) bool {
	return c.Registries.Complete(t)
}

// Sizeof evaluates sizeof(t), recording the standard diagnostic at the
// given token range when t is incomplete.
func (c *Context) Sizeof(t ctypes.Type, first, last token.Token) (int, bool) {
	sz, ok := c.Registries.Sizeof(t)
	if !ok {
		c.Errorf(first, last, "sizeof applied to incomplete type '%s'", t.String())
		return 0, false
	}
	return sz, true
}

// wrap annotates err with a subtree description without losing the
// original cause: a subtree failed, annotate and keep going.
func wrap(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}
