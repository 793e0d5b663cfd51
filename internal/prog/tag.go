package prog

// TypeTag is the ownership-relevant classification of a binding's type.
// It is the only piece of type information the verifier consumes; full type
// resolution happens in an external front end.
type TypeTag uint8

const (
	// TagMoveOnly marks values whose initialization from another binding
	// transfers ownership and invalidates the source.
	TagMoveOnly TypeTag = iota
	// TagTriviallyCopyable marks values that are duplicated on assignment;
	// such bindings never transition to the moved state.
	TagTriviallyCopyable
)

func (t TypeTag) String() string {
	switch t {
	case TagMoveOnly:
		return "move-only"
	case TagTriviallyCopyable:
		return "trivially-copyable"
	}
	return "unknown"
}

// TypeTable maps type names to their ownership tags. It is built once from
// front-end metadata and read concurrently by verifier instances, so it must
// not be mutated after Freeze.
type TypeTable struct {
	tags   map[string]TypeTag
	frozen bool
}

// NewTypeTable returns an empty, mutable type table.
func NewTypeTable() *TypeTable {
	return &TypeTable{tags: make(map[string]TypeTag)}
}

// Declare registers a type name with its tag. Redeclaring a name with a
// different tag reports false and leaves the table unchanged.
func (tt *TypeTable) Declare(name string, tag TypeTag) bool {
	if tt == nil || tt.frozen || name == "" {
		return false
	}
	if existing, ok := tt.tags[name]; ok {
		return existing == tag
	}
	tt.tags[name] = tag
	return true
}

// Freeze makes the table read-only. Safe to share between goroutines after.
func (tt *TypeTable) Freeze() {
	if tt != nil {
		tt.frozen = true
	}
}

// Lookup returns the tag for a type name.
func (tt *TypeTable) Lookup(name string) (TypeTag, bool) {
	if tt == nil {
		return TagMoveOnly, false
	}
	tag, ok := tt.tags[name]
	return tag, ok
}

// Len returns the number of declared types.
func (tt *TypeTable) Len() int {
	if tt == nil {
		return 0
	}
	return len(tt.tags)
}
