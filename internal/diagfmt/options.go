package diagfmt

// PathMode controls how program file paths are rendered in output.
type PathMode uint8

const (
	// PathModeAuto keeps the path as the driver recorded it.
	PathModeAuto PathMode = iota
	// PathModeAbsolute emits absolute paths.
	PathModeAbsolute
	// PathModeBasename emits only the file name.
	PathModeBasename
)

// PrettyOpts configure the human-readable renderer.
type PrettyOpts struct {
	// Color enables ANSI colors.
	Color bool
	// WithNotes renders secondary notes under each diagnostic.
	WithNotes bool
	// Listing renders the offending instruction under each diagnostic.
	Listing bool
}

// JSONOpts configure the machine-readable renderer.
type JSONOpts struct {
	// Indent pretty-prints the JSON output.
	Indent bool
	// WithNotes includes secondary notes.
	WithNotes bool
}
