package ir

// NOTE: These are journal-layer types. Event rows use auto-increment IDs
// for storage, but ordering always goes through Seq.

// EventKind names a journal event.
type EventKind string

const (
	EventAppend        EventKind = "append"
	EventHoist         EventKind = "hoist"
	EventBind          EventKind = "bind"
	EventCommit        EventKind = "commit"
	EventErase         EventKind = "erase"
	EventCompileOK     EventKind = "compile_ok"
	EventCompileFailed EventKind = "compile_failed"
	EventDeclareFailed EventKind = "declare_failed"
	EventReparseFailed EventKind = "reparse_failed"
)

// JournalEvent is one recorded pipeline step.
type JournalEvent struct {
	Seq        int64     `json:"seq"`
	Kind       EventKind `json:"kind"`
	EntryID    uint64    `json:"entry_id,omitempty"`
	Tx         TxID      `json:"tx,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	BufferHash string    `json:"buffer_hash,omitempty"`
}

// Session is a journal session header.
type Session struct {
	ID            string `json:"id"`
	ProfileHash   string `json:"profile_hash"`
	EngineVersion string `json:"engine_version"`
	Events        int    `json:"events"`
}
