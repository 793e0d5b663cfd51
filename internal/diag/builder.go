package diag

import "ownck/internal/prog"

func New(sev Severity, code Code, primary prog.Point, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
		Notes:    nil,
	}
}

func NewError(code Code, primary prog.Point, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

func (d Diagnostic) WithNote(at prog.Point, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Point: at, Msg: msg})
	return d
}
