package prog

// RefKind differentiates shared vs exclusive borrows.
type RefKind uint8

const (
	RefShared RefKind = iota
	RefExclusive
)

func (k RefKind) String() string {
	if k == RefExclusive {
		return "exclusive"
	}
	return "shared"
}

// Binding is a named storage location declared by a bind instruction (or
// implicitly by being the destination of a move/copy).
type Binding struct {
	ID    BindingID
	Name  string
	Type  string
	Tag   TypeTag
	Scope ScopeID
	Decl  Point
}

// Ref is a borrow of a binding. It owns nothing; its validity is bounded by
// the target binding's live interval and by its own declaring scope.
type Ref struct {
	ID     RefID
	Name   string
	Kind   RefKind
	Target BindingID
	Scope  ScopeID
	Decl   Point
}

// Scope is a nested lexical region. Scopes form a tree; the root scope of a
// function body has no parent.
type Scope struct {
	ID     ScopeID
	Label  string
	Parent ScopeID
	Begin  Point
	End    Point // NoPoint while open (only ever observed on malformed input)
}

// Program is an immutable function body: an ordered instruction sequence plus
// the binding, reference and scope tables the instructions refer to. Programs
// are produced by a Builder and never mutated afterwards.
type Program struct {
	fn       string
	instrs   []Instr   // [0] is an unused sentinel; Point n is instrs[n]
	bindings []Binding // [0] sentinel
	refs     []Ref     // [0] sentinel
	scopes   []Scope   // [0] sentinel; [1] is the root scope
}

// Fn returns the function name this body belongs to.
func (p *Program) Fn() string {
	if p == nil {
		return ""
	}
	return p.fn
}

// Len returns the number of instructions. Valid points are 1..Len().
func (p *Program) Len() int {
	if p == nil {
		return 0
	}
	return len(p.instrs) - 1
}

// Instr returns the instruction at the given point.
func (p *Program) Instr(at Point) Instr {
	if p == nil || !at.IsValid() || int(at) >= len(p.instrs) {
		return Instr{}
	}
	return p.instrs[at]
}

// Binding returns metadata for a binding id, nil if unknown.
func (p *Program) Binding(id BindingID) *Binding {
	if p == nil || !id.IsValid() || int(id) >= len(p.bindings) {
		return nil
	}
	return &p.bindings[id]
}

// Ref returns metadata for a reference id, nil if unknown.
func (p *Program) Ref(id RefID) *Ref {
	if p == nil || !id.IsValid() || int(id) >= len(p.refs) {
		return nil
	}
	return &p.refs[id]
}

// Scope returns metadata for a scope id, nil if unknown.
func (p *Program) Scope(id ScopeID) *Scope {
	if p == nil || !id.IsValid() || int(id) >= len(p.scopes) {
		return nil
	}
	return &p.scopes[id]
}

// RootScope returns the function body's outermost scope.
func (p *Program) RootScope() ScopeID {
	if p == nil || len(p.scopes) < 2 {
		return NoScopeID
	}
	return ScopeID(1)
}

// Bindings returns all bindings in declaration order.
func (p *Program) Bindings() []Binding {
	if p == nil || len(p.bindings) <= 1 {
		return nil
	}
	return p.bindings[1:]
}

// Refs returns all references in creation order.
func (p *Program) Refs() []Ref {
	if p == nil || len(p.refs) <= 1 {
		return nil
	}
	return p.refs[1:]
}

// RefsOf returns ids of references targeting the binding, in creation order.
func (p *Program) RefsOf(target BindingID) []RefID {
	if p == nil || !target.IsValid() {
		return nil
	}
	var out []RefID
	for i := 1; i < len(p.refs); i++ {
		if p.refs[i].Target == target {
			out = append(out, p.refs[i].ID)
		}
	}
	return out
}

// ScopeBindings returns ids of bindings declared directly in scope, in
// declaration order.
func (p *Program) ScopeBindings(scope ScopeID) []BindingID {
	if p == nil || !scope.IsValid() {
		return nil
	}
	var out []BindingID
	for i := 1; i < len(p.bindings); i++ {
		if p.bindings[i].Scope == scope {
			out = append(out, p.bindings[i].ID)
		}
	}
	return out
}

// Describe renders the instruction at a point in listing form, for
// diagnostics output.
func (p *Program) Describe(at Point) string {
	if p == nil || !at.IsValid() || int(at) >= len(p.instrs) {
		return "<out of range>"
	}
	return p.instrs[at].render(p)
}

func (p *Program) bindingName(id BindingID) string {
	if b := p.Binding(id); b != nil {
		return b.Name
	}
	return "_"
}

func (p *Program) refName(id RefID) string {
	if r := p.Ref(id); r != nil {
		return r.Name
	}
	return "_"
}
