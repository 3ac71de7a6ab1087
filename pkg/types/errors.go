package types

import "fmt"

// ErrKind classifies errors so callers can branch on intent rather than
// text.
type ErrKind int

const (
	// ErrKindInvariant marks a caller contract violation: field-width
	// overflow, out-of-range property index, duplicate struct
	// registration, Save on an already-populated template, Load into the
	// wrong base class. These are fatal caller bugs and this core panics
	// instead of returning them; ErrKindInvariant exists so the panic value
	// itself (see Invariant) still carries a stable category.
	ErrKindInvariant ErrKind = iota

	// ErrKindSchemaDrift marks a recoverable mismatch encountered by
	// layout-refresh or the delta algebra when reconciling templates saved
	// against a different structure revision: missing property ID,
	// property index out of scope, handler-where-value-expected, field
	// kind mismatch, unknown super structure.
	ErrKindSchemaDrift

	// ErrKindStructuralDrift marks a recoverable mismatch encountered
	// during ordinary Load: a nested tag's structure ID does not match the
	// expected structure, or an expected value tag is missing after its
	// key was read.
	ErrKindStructuralDrift

	// ErrKindNotFound marks a missing structure or property lookup.
	ErrKindNotFound

	// ErrKindType marks a value whose declared field kind does not match
	// the operation being attempted on it.
	ErrKindType

	// ErrKindState marks an operation invalid for a DataTemplate's current
	// lifecycle phase (e.g. Save on a populated template).
	ErrKindState
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindInvariant:
		return "invariant"
	case ErrKindSchemaDrift:
		return "schema_drift"
	case ErrKindStructuralDrift:
		return "structural_drift"
	case ErrKindNotFound:
		return "not_found"
	case ErrKindType:
		return "type"
	case ErrKindState:
		return "state"
	default:
		return "unknown"
	}
}

// Error is a typed error with an optional underlying cause.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Sentinels commonly returned by implementations.
var (
	// ErrDuplicateID indicates create_structure was called twice for the
	// same StructID.
	ErrDuplicateID = &Error{Kind: ErrKindInvariant, Msg: "structure already registered"}
	// ErrUnknownStruct indicates get_structure found no entry for the ID.
	ErrUnknownStruct = &Error{Kind: ErrKindNotFound, Msg: "unknown structure"}
	// ErrAlreadyPopulated indicates Save was invoked on a non-empty template.
	ErrAlreadyPopulated = &Error{Kind: ErrKindState, Msg: "data template already populated"}
	// ErrWrongBaseClass indicates Load's destination object is not based on
	// the template's declared structure.
	ErrWrongBaseClass = &Error{Kind: ErrKindInvariant, Msg: "load destination is not based on template structure"}
	// ErrNotObjectClass indicates Save/Load was attempted on a structure
	// that does not represent an object class (no super chain, no solver).
	ErrNotObjectClass = &Error{Kind: ErrKindInvariant, Msg: "structure does not represent an object class"}
)

// Newf builds an *Error of the given kind with a formatted message and no
// wrapped cause.
func Newf(kind ErrKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given kind wrapping cause.
func Wrap(kind ErrKind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// Invariant panics with a stable *Error when cond is false. Invariant
// violations are caller bugs: field-width overflow, duplicate
// registration, Save-on-populated, wrong base class on Load. They must
// never occur under a correct caller, so this core halts rather than
// threading an error return through every traversal frame.
func Invariant(cond bool, format string, args ...any) {
	if !cond {
		panic(Newf(ErrKindInvariant, format, args...))
	}
}
