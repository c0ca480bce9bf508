package graph

import (
	"errors"
	"fmt"
	"strings"
)

// IssueCode classifies a structural problem found while loading a graph.
type IssueCode string

const (
	IssueStartCount      IssueCode = "start_count"
	IssueEmptyID         IssueCode = "empty_id"
	IssueDuplicateID     IssueCode = "duplicate_id"
	IssueUnknownKind     IssueCode = "unknown_kind"
	IssueMissingEndpoint IssueCode = "missing_endpoint"
	IssueDuplicateChoice IssueCode = "duplicate_choice"
	IssueLinearFanOut    IssueCode = "linear_fan_out"
	IssueIndexedLinear   IssueCode = "indexed_linear"
	IssueDecode          IssueCode = "decode"
)

// Issue is a single invariant violation.
type Issue struct {
	Code   IssueCode `json:"code"`
	NodeID string    `json:"nodeId,omitempty"` // Offending node, or edge source
	Reason string    `json:"reason"`
}

func (i Issue) String() string {
	if i.NodeID == "" {
		return fmt.Sprintf("[%s] %s", i.Code, i.Reason)
	}
	return fmt.Sprintf("[%s] node %q: %s", i.Code, i.NodeID, i.Reason)
}

// FormatError is returned when a graph document fails its structural invariants.
// It aggregates every issue found so authors can fix them in one pass.
type FormatError struct {
	Issues []Issue
}

func (e *FormatError) Error() string {
	if len(e.Issues) == 1 {
		return "invalid graph: " + e.Issues[0].String()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "invalid graph: %d issues:\n", len(e.Issues))
	for i, issue := range e.Issues {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, issue)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Has reports whether the error contains an issue with the given code.
func (e *FormatError) Has(code IssueCode) bool {
	for _, i := range e.Issues {
		if i.Code == code {
			return true
		}
	}
	return false
}

// Issues returns the issues carried by err, or nil if err is not a FormatError.
func Issues(err error) []Issue {
	var fe *FormatError
	if errors.As(err, &fe) {
		return fe.Issues
	}
	return nil
}

// IsFormatError reports whether err (or anything it wraps) is a FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}
