package advisor

import "fmt"

// RetrievalError wraps an embedding or vector-index failure. It propagates to
// the caller as "no shortlist produced": there is no meaningful fallback
// search path once retrieval itself is down.
type RetrievalError struct {
	Op  string // "embed" or "search"
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed during %s: %v", e.Op, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// GenerativeError wraps an LLM call failure or a schema-invalid response.
// Callers never see it as a hard failure: the pipeline degrades
// deterministically (positional selection, empty enrichment) and records the
// cause here for logging.
type GenerativeError struct {
	Op  string // "select" or "enrich"
	Err error
}

func (e *GenerativeError) Error() string {
	return fmt.Sprintf("generative %s failed: %v", e.Op, e.Err)
}

func (e *GenerativeError) Unwrap() error { return e.Err }
