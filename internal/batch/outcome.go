package batch

import (
	"errors"
	"fmt"
	"sort"
)

// Kind classifies a per-item failure. Fatal pre-run errors (ErrCatalog,
// ErrSkipSource) are ordinary errors returned before any scheduling happens.
type Kind string

const (
	KindExternalService Kind = "EXTERNAL_SERVICE"
	KindValidation      Kind = "VALIDATION"
	KindIO              Kind = "IO"
	KindTimeout         Kind = "TIMEOUT"
	KindInternal        Kind = "INTERNAL"
)

// Fatal error classes; the runner never sees these.
var (
	ErrCatalog    = errors.New("catalog error")
	ErrSkipSource = errors.New("skip source error")
)

// Error is a typed stage failure. Retryable distinguishes transient
// collaborator errors (429/5xx equivalents) from terminal ones.
type Error struct {
	Kind      Kind
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with a failure kind.
func NewError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// NewRetryable wraps a transient external-service failure.
func NewRetryable(err error) *Error {
	return &Error{Kind: KindExternalService, Retryable: true, Err: err}
}

// Classify maps an arbitrary processor error to a *Error. Errors that already
// carry a kind pass through; everything else is an internal failure so the
// one-outcome-per-item accounting never loses an item to an unknown error.
func Classify(err error) *Error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	return &Error{Kind: KindInternal, Err: err}
}

// Status is the terminal state of one item in one run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusSkipped Status = "skipped"
)

// Outcome is the terminal record for one item. Exactly one per catalog item
// per run; never mutated after creation.
type Outcome struct {
	Key       string
	Status    Status
	OutputRef string // success only
	Kind      Kind   // failure only
	Message   string // failure only
	Reason    string // skipped only
}

// Summary aggregates the outcomes of one run. Aggregation is commutative, so
// the final summary does not depend on worker completion order.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Skipped   int

	Failures    []Outcome
	SuccessKeys []string
	SkippedKeys []string
}

func (s *Summary) add(o Outcome) {
	s.Total++
	switch o.Status {
	case StatusSuccess:
		s.Succeeded++
		s.SuccessKeys = append(s.SuccessKeys, o.Key)
	case StatusFailure:
		s.Failed++
		s.Failures = append(s.Failures, o)
	case StatusSkipped:
		s.Skipped++
		s.SkippedKeys = append(s.SkippedKeys, o.Key)
	}
}

// finalize sorts the key lists so reports are stable regardless of
// scheduling order.
func (s *Summary) finalize() {
	sort.Strings(s.SuccessKeys)
	sort.Strings(s.SkippedKeys)
	sort.Slice(s.Failures, func(i, j int) bool { return s.Failures[i].Key < s.Failures[j].Key })
}
