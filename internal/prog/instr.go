package prog

import "fmt"

// Op enumerates instruction kinds of a function body.
type Op uint8

const (
	OpInvalid Op = iota
	OpBind
	OpMove
	OpCopy
	OpBorrowShared
	OpBorrowExclusive
	OpUse
	OpDrop
	OpScopeBegin
	OpScopeEnd
)

func (op Op) String() string {
	switch op {
	case OpBind:
		return "bind"
	case OpMove:
		return "move"
	case OpCopy:
		return "copy"
	case OpBorrowShared:
		return "borrow_shared"
	case OpBorrowExclusive:
		return "borrow_exclusive"
	case OpUse:
		return "use"
	case OpDrop:
		return "drop"
	case OpScopeBegin:
		return "scope_begin"
	case OpScopeEnd:
		return "scope_end"
	}
	return "invalid"
}

// Instr is a single instruction. Which fields are meaningful depends on Op:
//
//	OpBind:            Bind, Scope
//	OpMove, OpCopy:    Src, Dst
//	OpBorrowShared,
//	OpBorrowExclusive: Bind (target), Ref, Scope (declaring scope of Ref)
//	OpUse:             Bind or Ref (exactly one valid)
//	OpDrop:            Bind
//	OpScopeBegin,
//	OpScopeEnd:        Scope
type Instr struct {
	Op    Op
	Bind  BindingID
	Src   BindingID
	Dst   BindingID
	Ref   RefID
	Scope ScopeID
}

// render writes the instruction in listing form using names from the program.
func (in Instr) render(p *Program) string {
	switch in.Op {
	case OpBind:
		b := p.Binding(in.Bind)
		if b != nil && b.Type != "" {
			return fmt.Sprintf("bind %s: %s", b.Name, b.Type)
		}
		return fmt.Sprintf("bind %s", p.bindingName(in.Bind))
	case OpMove:
		return fmt.Sprintf("move %s -> %s", p.bindingName(in.Src), p.bindingName(in.Dst))
	case OpCopy:
		return fmt.Sprintf("copy %s -> %s", p.bindingName(in.Src), p.bindingName(in.Dst))
	case OpBorrowShared:
		return fmt.Sprintf("%s = &%s", p.refName(in.Ref), p.bindingName(in.Bind))
	case OpBorrowExclusive:
		return fmt.Sprintf("%s = &mut %s", p.refName(in.Ref), p.bindingName(in.Bind))
	case OpUse:
		if in.Ref.IsValid() {
			return fmt.Sprintf("use %s", p.refName(in.Ref))
		}
		return fmt.Sprintf("use %s", p.bindingName(in.Bind))
	case OpDrop:
		return fmt.Sprintf("drop %s", p.bindingName(in.Bind))
	case OpScopeBegin:
		s := p.Scope(in.Scope)
		if s != nil && s.Label != "" {
			return fmt.Sprintf("{ // %s", s.Label)
		}
		return "{"
	case OpScopeEnd:
		return "}"
	}
	return "<invalid>"
}
