package types

// SaveFlags controls Save-time behavior. The zero value is None.
type SaveFlags uint32

const (
	// SaveFlagsNone requests no special handling: every field is written
	// regardless of whether it equals its kind's zero value.
	SaveFlagsNone SaveFlags = 0

	// SkipNativeDefaultValues elides scalar/string/object-ref tags whose
	// payload equals the kind's zero value. Map keys are never elided
	// regardless of this flag.
	SkipNativeDefaultValues SaveFlags = 1 << 0
)

// Has reports whether all bits in want are set in f.
func (f SaveFlags) Has(want SaveFlags) bool { return f&want == want }

// Without returns f with the given bits cleared. Save forces this for map
// keys, which must always serialize in full even when the caller asked for
// default elision.
func (f SaveFlags) Without(bits SaveFlags) SaveFlags { return f &^ bits }

// ObjectArchiveFlags controls archive envelope behavior.
type ObjectArchiveFlags uint32

const (
	ArchiveFlagsNone    ObjectArchiveFlags = 0
	ArchiveFlagsDefault ObjectArchiveFlags = 1 << 0
)
