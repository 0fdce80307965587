package search

import (
	"fmt"
	"strings"
)

// OperationError wraps a failure while talking to the search engine
type OperationError struct {
	Op  string
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("search engine operation %q failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *OperationError) Unwrap() error {
	return e.Err
}

// BulkError reports that one or more documents in a bulk write batch failed
// to index. The whole containing operation is considered failed; there is no
// partial retry.
type BulkError struct {
	Index    string
	Failures []DocumentFailure
}

func (e *BulkError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "bulk write to index %q failed for %d document(s)", e.Index, len(e.Failures))
	for i, f := range e.Failures {
		if i >= 3 {
			fmt.Fprintf(&sb, "; and %d more", len(e.Failures)-i)
			break
		}
		fmt.Fprintf(&sb, "; doc %s: %s", f.ID, f.Reason)
	}
	return sb.String()
}
