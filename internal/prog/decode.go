package prog

import (
	"encoding/json"
	"fmt"
	"io"
)

// File is a decoded program file: the shared type table plus one program per
// function body. Front ends serialize already-structured instruction lists;
// decoding is not parsing.
type File struct {
	Types     *TypeTable
	Functions []*Program
}

type fileJSON struct {
	Types     []typeJSON `json:"types"`
	Functions []fnJSON   `json:"functions"`
}

type typeJSON struct {
	Name string `json:"name"`
	Copy bool   `json:"copy"`
}

type fnJSON struct {
	Name string      `json:"name"`
	Body []instrJSON `json:"body"`
}

type instrJSON struct {
	Op     string `json:"op"`
	ID     string `json:"id,omitempty"`
	Type   string `json:"type,omitempty"`
	Src    string `json:"src,omitempty"`
	Dst    string `json:"dst,omitempty"`
	Target string `json:"target,omitempty"`
	Ref    string `json:"ref,omitempty"`
	In     string `json:"in,omitempty"`
	Label  string `json:"label,omitempty"`
}

// Decode reads a program file from r.
func Decode(r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read program file: %w", err)
	}
	return DecodeBytes(data)
}

// DecodeBytes decodes a serialized program file. Structural defects are
// returned as MalformedProgramError.
func DecodeBytes(data []byte) (*File, error) {
	var raw fileJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &MalformedProgramError{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if len(raw.Functions) == 0 {
		return nil, &MalformedProgramError{Reason: "no functions in program file"}
	}

	types := NewTypeTable()
	for _, t := range raw.Types {
		if t.Name == "" {
			return nil, &MalformedProgramError{Reason: "type declaration with empty name"}
		}
		tag := TagMoveOnly
		if t.Copy {
			tag = TagTriviallyCopyable
		}
		if !types.Declare(t.Name, tag) {
			return nil, &MalformedProgramError{Reason: fmt.Sprintf("conflicting declarations of type %q", t.Name)}
		}
	}
	types.Freeze()

	file := &File{Types: types}
	seen := make(map[string]struct{}, len(raw.Functions))
	for _, fn := range raw.Functions {
		if fn.Name == "" {
			return nil, &MalformedProgramError{Reason: "function with empty name"}
		}
		if _, dup := seen[fn.Name]; dup {
			return nil, &MalformedProgramError{Fn: fn.Name, Reason: "duplicate function name"}
		}
		seen[fn.Name] = struct{}{}
		program, err := decodeBody(fn, types)
		if err != nil {
			return nil, err
		}
		file.Functions = append(file.Functions, program)
	}
	return file, nil
}

func decodeBody(fn fnJSON, types *TypeTable) (*Program, error) {
	b := NewBuilder(fn.Name)
	for _, in := range fn.Body {
		decodeInstr(b, in, types)
		if b.Err() != nil {
			break
		}
	}
	return b.Program()
}

func decodeInstr(b *Builder, in instrJSON, types *TypeTable) {
	switch in.Op {
	case "bind":
		tag := TagMoveOnly
		if in.Type != "" {
			resolved, ok := types.Lookup(in.Type)
			if !ok {
				b.fail("bind %q with undeclared type %q", in.ID, in.Type)
				return
			}
			tag = resolved
		}
		b.BindTyped(in.ID, in.Type, tag)
	case "move":
		b.Move(in.Src, in.Dst)
	case "copy":
		b.Copy(in.Src, in.Dst)
	case "borrow_shared":
		if in.In != "" {
			b.BorrowSharedIn(in.Target, in.Ref, scopeLabelArg(in.In))
		} else {
			b.BorrowShared(in.Target, in.Ref)
		}
	case "borrow_exclusive":
		if in.In != "" {
			b.BorrowExclusiveIn(in.Target, in.Ref, scopeLabelArg(in.In))
		} else {
			b.BorrowExclusive(in.Target, in.Ref)
		}
	case "use":
		b.Use(in.ID)
	case "drop":
		b.Drop(in.ID)
	case "scope_begin":
		b.ScopeBegin(in.Label)
	case "scope_end":
		b.ScopeEnd()
	default:
		b.fail("unknown op %q", in.Op)
	}
}

// scopeLabelArg maps the wire-level "in" field to a builder label: the
// literal "root" targets the function body's outermost scope.
func scopeLabelArg(in string) string {
	if in == "root" {
		return ""
	}
	return in
}
