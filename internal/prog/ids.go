package prog

type (
	// core entities
	BindingID uint32
	RefID     uint32
	ScopeID   uint32
	// Point is a 1-based instruction index inside a function body.
	Point uint32
)

const (
	NoBindingID BindingID = 0
	NoRefID     RefID     = 0
	NoScopeID   ScopeID   = 0
	NoPoint     Point     = 0
)

func (id BindingID) IsValid() bool { return id != NoBindingID }
func (id RefID) IsValid() bool     { return id != NoRefID }
func (id ScopeID) IsValid() bool   { return id != NoScopeID }
func (p Point) IsValid() bool      { return p != NoPoint }

// Before reports whether p happens strictly earlier than other.
func (p Point) Before(other Point) bool { return p < other }
