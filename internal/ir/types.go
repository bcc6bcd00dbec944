package ir

import "fmt"

// Kind classifies a code entry as a declaration or a statement.
type Kind int

const (
	// KindDecl is a file-scope declaration; it is stored unwrapped.
	KindDecl Kind = iota
	// KindStatement is an executable statement; it is stored inside a
	// synthetic wrapper function.
	KindStatement
)

// String returns the lower-case kind name used in journals and scenarios.
func (k Kind) String() string {
	switch k {
	case KindDecl:
		return "decl"
	case KindStatement:
		return "statement"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind converts a kind name back into a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "decl", "declaration":
		return KindDecl, nil
	case "statement", "stmt", "":
		return KindStatement, nil
	default:
		return 0, fmt.Errorf("unknown kind %q: must be decl or statement", s)
	}
}

// TxID is the opaque transaction handle owned by the host.
// The zero value NoTx means "no transaction".
type TxID string

// NoTx is the "no transaction" sentinel.
const NoTx TxID = ""

// Unit is one complete (kind, text) fragment produced by segmentation.
type Unit struct {
	Kind Kind
	Text string
}

// Entry is one ledger record for a single submitted fragment.
type Entry struct {
	ID   uint64
	Kind Kind

	// Body is the fragment exactly as the user submitted it.
	Body string

	// Source is the stored original text: the synthetic wrapper for
	// statements, Body for declarations. Hoisting never modifies it.
	Source string

	// Text is what the serializer emits: Source, or hoisted declarations
	// followed by Source once the hoister has processed the entry.
	Text string

	// Owner is the transaction that claimed this entry, NoTx if unclaimed.
	Owner TxID

	// Committed marks owner-less entries the host accepted without a
	// transaction. Committed entries are never rolled back.
	Committed bool
}

// Erasable reports whether a rollback scoped to target may remove e.
func (e *Entry) Erasable(target TxID) bool {
	return !e.Committed && (e.Owner == NoTx || e.Owner == target)
}

// Clone returns a detached copy of e.
func (e *Entry) Clone() Entry {
	return *e
}

// ProfileFiles names the generated files, relative to the work directory.
type ProfileFiles struct {
	Buffer   string `json:"buffer"`
	Header   string `json:"header"`
	Artifact string `json:"artifact"`
}

// Profile describes the device toolchain and pipeline layout.
type Profile struct {
	Compiler    string       `json:"compiler"`
	FrontEnd    string       `json:"frontend"` // "scan" or "clang"
	Layout      string       `json:"layout"`   // "wrapped" or "main"
	WorkDir     string       `json:"work_dir"`
	Files       ProfileFiles `json:"files"`
	DeviceFlags []string     `json:"device_flags"`
	HostArgs    []string     `json:"host_args"`
}

// Valid front-end and layout names.
var (
	ValidFrontEnds = map[string]bool{"scan": true, "clang": true}
	ValidLayouts   = map[string]bool{"wrapped": true, "main": true}
)
