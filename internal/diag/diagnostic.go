package diag

import (
	"ownck/internal/prog"
)

type Note struct {
	Point prog.Point
	Msg   string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  prog.Point
	Notes    []Note
}
