package docsagent

// SessionContext carries per-request details into instructions and tools.
type SessionContext struct {
	// Language is the caller's language hint. Tools fall back to it when the
	// model does not pass one.
	Language string `json:"language,omitempty"`
	// ThreadID identifies the conversation in the memory store, if any.
	ThreadID string `json:"thread_id,omitempty"`
}
