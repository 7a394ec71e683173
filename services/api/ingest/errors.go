package ingest

// ValidationError marks a malformed or incomplete device payload. Nothing is
// persisted when one is returned; callers map it to a client error.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// IngestionError marks a persistence failure while appending a record. The
// device may simply resend; the retry creates a harmless duplicate row.
type IngestionError struct {
	Err error
}

func (e *IngestionError) Error() string { return "ingest: persist record: " + e.Err.Error() }

func (e *IngestionError) Unwrap() error { return e.Err }
