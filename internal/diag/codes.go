package diag

import (
	"fmt"
)

type Code uint16

const (
	// Unknown / unmapped findings.
	UnknownCode Code = 0

	// Structural: defects of the program representation itself.
	PrgInfo       Code = 1000
	PrgMalformed  Code = 1001
	PrgLoadFailed Code = 1002

	// Ownership and borrow findings.
	OwnInfo           Code = 3000
	OwnUseAfterMove   Code = 3001
	OwnUseAfterDrop   Code = 3002
	OwnBorrowConflict Code = 3003
	OwnDanglingRef    Code = 3004
)

var codeDescription = map[Code]string{
	UnknownCode: "unknown finding",

	PrgInfo:       "program representation note",
	PrgMalformed:  "malformed program representation",
	PrgLoadFailed: "program file could not be loaded",

	OwnInfo:           "ownership note",
	OwnUseAfterMove:   "use of a moved value",
	OwnUseAfterDrop:   "use of a dropped value",
	OwnBorrowConflict: "conflicting borrows",
	OwnDanglingRef:    "reference outlives its target",
}

// ID returns the stable short identifier, e.g. "OWN3001".
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("PRG%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("OWN%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
