package logging

// Structured logging keys.
const (
	FieldError  = "error"
	FieldPath   = "path"
	FieldFiles  = "files"
	FieldScript = "script"
	FieldOp     = "op"
	FieldTarget = "target"

	FieldEvents  = "events"
	FieldEdits   = "edits"
	FieldNodes   = "nodes"
	FieldSources = "copy_sources"
	FieldTracked = "tracked"
	FieldGroup   = "group"
	FieldKind    = "kind"
	FieldChanged = "changed"
	FieldBytes   = "bytes"

	FieldVersion = "version"
	FieldCommit  = "commit"
	FieldBuilt   = "built"
)
