package prog

import (
	"fmt"

	"fortio.org/safecast"
)

// MalformedProgramError reports a structural defect in the instruction
// sequence handed to the builder: unbalanced scopes, references to undeclared
// or out-of-scope ids, copies of move-only bindings. It is a contract
// violation of the front end, not an ownership diagnostic.
type MalformedProgramError struct {
	Fn     string
	At     Point // instruction being appended, NoPoint for end-of-body checks
	Reason string
}

func (e *MalformedProgramError) Error() string {
	if e == nil {
		return "malformed program"
	}
	if e.At.IsValid() {
		return fmt.Sprintf("malformed program: fn %q: instr %d: %s", e.Fn, e.At, e.Reason)
	}
	return fmt.Sprintf("malformed program: fn %q: %s", e.Fn, e.Reason)
}

type entryKind uint8

const (
	entryBinding entryKind = iota
	entryRef
)

type nameEntry struct {
	kind  entryKind
	bind  BindingID
	ref   RefID
	scope ScopeID
}

// Builder assembles a Program instruction by instruction. The first
// structural defect makes the builder sticky-fail: subsequent calls are
// no-ops and Program returns the recorded MalformedProgramError.
type Builder struct {
	fn       string
	instrs   []Instr
	bindings []Binding
	refs     []Ref
	scopes   []Scope
	open     []ScopeID
	names    map[string]nameEntry
	err      error
}

// NewBuilder starts a function body with its root scope already open.
func NewBuilder(fn string) *Builder {
	b := &Builder{
		fn:       fn,
		instrs:   []Instr{{}},
		bindings: []Binding{{}},
		refs:     []Ref{{}},
		scopes:   []Scope{{}},
		names:    make(map[string]nameEntry),
	}
	root := b.newScope("", NoScopeID, NoPoint)
	b.open = append(b.open, root)
	return b
}

// Err returns the first structural error seen, if any.
func (b *Builder) Err() error { return b.err }

// Bind declares a new binding in the current scope.
func (b *Builder) Bind(name string, tag TypeTag) BindingID {
	return b.BindTyped(name, "", tag)
}

// BindTyped declares a new binding carrying the front end's type name.
func (b *Builder) BindTyped(name, typeName string, tag TypeTag) BindingID {
	if b == nil || b.err != nil {
		return NoBindingID
	}
	if name == "" {
		b.fail("bind with empty id")
		return NoBindingID
	}
	if _, exists := b.names[name]; exists {
		b.fail("duplicate id %q", name)
		return NoBindingID
	}
	at := b.nextPoint()
	id := b.newBinding(name, typeName, tag, b.currentScope(), at)
	b.instrs = append(b.instrs, Instr{Op: OpBind, Bind: id, Scope: b.currentScope()})
	return id
}

// Move records a transfer of ownership from src to dst. dst may be a fresh id
// (declared implicitly in the current scope with src's type) or an existing
// in-scope binding being rebound.
func (b *Builder) Move(src, dst string) {
	b.transfer(OpMove, src, dst)
}

// Copy records a duplication of src into dst. src must be trivially
// copyable; a copy of a move-only binding is a structural error because the
// tag is static front-end metadata, not a flow-dependent fact.
func (b *Builder) Copy(src, dst string) {
	b.transfer(OpCopy, src, dst)
}

func (b *Builder) transfer(op Op, src, dst string) {
	if b == nil || b.err != nil {
		return
	}
	srcID := b.lookupBinding(op.String(), src)
	if !srcID.IsValid() {
		return
	}
	if op == OpCopy && b.bindings[srcID].Tag != TagTriviallyCopyable {
		b.fail("copy of move-only id %q", src)
		return
	}
	if src == dst {
		b.fail("%s of %q into itself", op, src)
		return
	}
	at := b.nextPoint()
	var dstID BindingID
	if entry, ok := b.names[dst]; ok {
		if entry.kind != entryBinding {
			b.fail("%s destination %q is a reference", op, dst)
			return
		}
		dstID = entry.bind
	} else {
		srcBind := b.bindings[srcID]
		dstID = b.newBinding(dst, srcBind.Type, srcBind.Tag, b.currentScope(), at)
	}
	b.instrs = append(b.instrs, Instr{Op: op, Src: srcID, Dst: dstID})
}

// BorrowShared creates a shared reference to target, declared in the current
// scope.
func (b *Builder) BorrowShared(target, ref string) RefID {
	return b.borrow(RefShared, target, ref, "", false)
}

// BorrowExclusive creates an exclusive reference to target, declared in the
// current scope.
func (b *Builder) BorrowExclusive(target, ref string) RefID {
	return b.borrow(RefExclusive, target, ref, "", false)
}

// BorrowSharedIn is BorrowShared with the reference declared into an
// enclosing open scope named by label ("" means the root scope).
func (b *Builder) BorrowSharedIn(target, ref, label string) RefID {
	return b.borrow(RefShared, target, ref, label, true)
}

// BorrowExclusiveIn is BorrowExclusive with the reference declared into an
// enclosing open scope named by label ("" means the root scope).
func (b *Builder) BorrowExclusiveIn(target, ref, label string) RefID {
	return b.borrow(RefExclusive, target, ref, label, true)
}

func (b *Builder) borrow(kind RefKind, target, ref, label string, explicitScope bool) RefID {
	if b == nil || b.err != nil {
		return NoRefID
	}
	op := OpBorrowShared
	if kind == RefExclusive {
		op = OpBorrowExclusive
	}
	targetID := b.lookupBinding(op.String(), target)
	if !targetID.IsValid() {
		return NoRefID
	}
	if ref == "" {
		b.fail("%s with empty reference id", op)
		return NoRefID
	}
	if _, exists := b.names[ref]; exists {
		b.fail("duplicate id %q", ref)
		return NoRefID
	}
	declScope := b.currentScope()
	if explicitScope {
		declScope = b.openScopeByLabel(label)
		if !declScope.IsValid() {
			b.fail("%s into unknown enclosing scope %q", op, label)
			return NoRefID
		}
	}
	at := b.nextPoint()
	id := b.newRef(ref, kind, targetID, declScope, at)
	b.instrs = append(b.instrs, Instr{Op: op, Bind: targetID, Ref: id, Scope: declScope})
	return id
}

// Use records a read of the named binding or reference.
func (b *Builder) Use(name string) {
	if b == nil || b.err != nil {
		return
	}
	entry, ok := b.names[name]
	if !ok {
		b.fail("use of undeclared id %q", name)
		return
	}
	if !b.scopeOpen(entry.scope) {
		b.fail("use of out-of-scope id %q", name)
		return
	}
	in := Instr{Op: OpUse}
	switch entry.kind {
	case entryBinding:
		in.Bind = entry.bind
	case entryRef:
		in.Ref = entry.ref
	}
	b.instrs = append(b.instrs, in)
}

// Drop records an explicit early teardown of a binding.
func (b *Builder) Drop(name string) {
	if b == nil || b.err != nil {
		return
	}
	id := b.lookupBinding("drop", name)
	if !id.IsValid() {
		return
	}
	b.instrs = append(b.instrs, Instr{Op: OpDrop, Bind: id})
}

// ScopeBegin opens a nested scope. The label is optional and only used for
// diagnostics and for targeting enclosing scopes in borrows.
func (b *Builder) ScopeBegin(label string) ScopeID {
	if b == nil || b.err != nil {
		return NoScopeID
	}
	at := b.nextPoint()
	id := b.newScope(label, b.currentScope(), at)
	b.open = append(b.open, id)
	b.instrs = append(b.instrs, Instr{Op: OpScopeBegin, Scope: id})
	return id
}

// ScopeEnd closes the innermost open scope. Closing the root scope
// explicitly is a structural error; it closes when the program is built.
func (b *Builder) ScopeEnd() {
	if b == nil || b.err != nil {
		return
	}
	if len(b.open) <= 1 {
		b.fail("scope_end without matching scope_begin")
		return
	}
	b.closeScope()
}

// Program finalizes the body: the root scope is closed (emitting its
// scope_end so bindings still alive get their teardown point) and the
// immutable Program is returned. Any open nested scope at this point would
// already have been closed by ScopeEnd calls; the builder only auto-closes
// the root.
func (b *Builder) Program() (*Program, error) {
	if b == nil {
		return nil, &MalformedProgramError{Reason: "nil builder"}
	}
	if b.err != nil {
		return nil, b.err
	}
	if len(b.open) > 1 {
		b.err = &MalformedProgramError{Fn: b.fn, Reason: fmt.Sprintf("%d unclosed scope(s) at end of body", len(b.open)-1)}
		return nil, b.err
	}
	b.closeScope()
	p := &Program{
		fn:       b.fn,
		instrs:   b.instrs,
		bindings: b.bindings,
		refs:     b.refs,
		scopes:   b.scopes,
	}
	// Re-opening the root keeps the builder unusable without extra state;
	// clear it instead so further calls fail loudly.
	b.err = &MalformedProgramError{Fn: b.fn, Reason: "builder already finalized"}
	return p, nil
}

func (b *Builder) closeScope() {
	scope := b.open[len(b.open)-1]
	b.open = b.open[:len(b.open)-1]
	at := b.nextPoint()
	b.instrs = append(b.instrs, Instr{Op: OpScopeEnd, Scope: scope})
	b.scopes[scope].End = at
	// Names declared in the closed scope stop being visible.
	for name, entry := range b.names {
		if entry.scope == scope {
			delete(b.names, name)
		}
	}
}

func (b *Builder) lookupBinding(op, name string) BindingID {
	entry, ok := b.names[name]
	if !ok {
		b.fail("%s of undeclared id %q", op, name)
		return NoBindingID
	}
	if entry.kind != entryBinding {
		b.fail("%s of reference %q (binding required)", op, name)
		return NoBindingID
	}
	if !b.scopeOpen(entry.scope) {
		b.fail("%s of out-of-scope id %q", op, name)
		return NoBindingID
	}
	return entry.bind
}

func (b *Builder) newBinding(name, typeName string, tag TypeTag, scope ScopeID, decl Point) BindingID {
	value, err := safecast.Conv[uint32](len(b.bindings))
	if err != nil {
		panic(fmt.Errorf("binding table overflow: %w", err))
	}
	id := BindingID(value)
	b.bindings = append(b.bindings, Binding{
		ID:    id,
		Name:  name,
		Type:  typeName,
		Tag:   tag,
		Scope: scope,
		Decl:  decl,
	})
	b.names[name] = nameEntry{kind: entryBinding, bind: id, scope: scope}
	return id
}

func (b *Builder) newRef(name string, kind RefKind, target BindingID, scope ScopeID, decl Point) RefID {
	value, err := safecast.Conv[uint32](len(b.refs))
	if err != nil {
		panic(fmt.Errorf("ref table overflow: %w", err))
	}
	id := RefID(value)
	b.refs = append(b.refs, Ref{
		ID:     id,
		Name:   name,
		Kind:   kind,
		Target: target,
		Scope:  scope,
		Decl:   decl,
	})
	b.names[name] = nameEntry{kind: entryRef, ref: id, scope: scope}
	return id
}

func (b *Builder) newScope(label string, parent ScopeID, begin Point) ScopeID {
	value, err := safecast.Conv[uint32](len(b.scopes))
	if err != nil {
		panic(fmt.Errorf("scope table overflow: %w", err))
	}
	id := ScopeID(value)
	b.scopes = append(b.scopes, Scope{
		ID:     id,
		Label:  label,
		Parent: parent,
		Begin:  begin,
		End:    NoPoint,
	})
	return id
}

func (b *Builder) currentScope() ScopeID {
	return b.open[len(b.open)-1]
}

func (b *Builder) scopeOpen(id ScopeID) bool {
	for _, s := range b.open {
		if s == id {
			return true
		}
	}
	return false
}

// openScopeByLabel finds an open scope by label, "" meaning the root.
// Returns NoScopeID when the label names no open scope.
func (b *Builder) openScopeByLabel(label string) ScopeID {
	if label == "" {
		return b.open[0]
	}
	// Innermost match wins when labels repeat.
	for i := len(b.open) - 1; i >= 0; i-- {
		if b.scopes[b.open[i]].Label == label {
			return b.open[i]
		}
	}
	return NoScopeID
}

func (b *Builder) nextPoint() Point {
	value, err := safecast.Conv[uint32](len(b.instrs))
	if err != nil {
		panic(fmt.Errorf("instruction index overflow: %w", err))
	}
	return Point(value)
}

func (b *Builder) fail(format string, args ...any) {
	if b.err != nil {
		return
	}
	b.err = &MalformedProgramError{
		Fn:     b.fn,
		At:     b.nextPoint(),
		Reason: fmt.Sprintf(format, args...),
	}
}
