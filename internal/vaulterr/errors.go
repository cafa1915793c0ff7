// Package vaulterr defines the closed error taxonomy shared by every engine
// component. Callers check kinds with errors.Is against the sentinel
// values, never by inspecting message text.
package vaulterr

import "errors"

// Sentinel errors. Every error surfaced across a component boundary wraps
// exactly one of these via Wrap.
var (
	ErrInvalidInput      = errors.New("invalid_input")
	ErrFileRejected      = errors.New("file_rejected")
	ErrNotFound          = errors.New("not_found")
	ErrDuplicateID       = errors.New("duplicate_id")
	ErrIOError           = errors.New("io_error")
	ErrCorruption        = errors.New("corruption")
	ErrExtractionFailure = errors.New("extraction_failure")
	ErrTimeout           = errors.New("timeout")
)

// Kind identifies which sentinel an error carries, for callers (chiefly the
// overlay controller) that need to branch on error category without string
// matching.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidInput
	KindFileRejected
	KindNotFound
	KindDuplicateID
	KindIOError
	KindCorruption
	KindExtractionFailure
	KindTimeout
)

var sentinelKinds = []struct {
	err  error
	kind Kind
}{
	{ErrInvalidInput, KindInvalidInput},
	{ErrFileRejected, KindFileRejected},
	{ErrNotFound, KindNotFound},
	{ErrDuplicateID, KindDuplicateID},
	{ErrIOError, KindIOError},
	{ErrCorruption, KindCorruption},
	{ErrExtractionFailure, KindExtractionFailure},
	{ErrTimeout, KindTimeout},
}

// Wrap attaches a kind's sentinel to err so that errors.Is(result, sentinel)
// succeeds while the original error text is preserved. Wrap(nil, nil) and
// Wrap(sentinel, nil) both return nil.
func Wrap(sentinel error, err error) error {
	if err == nil {
		return nil
	}
	return &taggedError{sentinel: sentinel, cause: err}
}

type taggedError struct {
	sentinel error
	cause    error
}

func (e *taggedError) Error() string {
	if e.cause == nil {
		return e.sentinel.Error()
	}
	return e.sentinel.Error() + ": " + e.cause.Error()
}

func (e *taggedError) Unwrap() error { return e.cause }

func (e *taggedError) Is(target error) bool { return target == e.sentinel }

// KindOf recovers the taxonomy Kind of err, walking the error chain. It
// returns KindUnknown if err does not wrap one of the sentinels above.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	for _, sk := range sentinelKinds {
		if errors.Is(err, sk.err) {
			return sk.kind
		}
	}
	return KindUnknown
}

// Reason returns the one-line, stack-trace-free string the overlay
// controller shows in its error state.
func Reason(err error) string {
	switch KindOf(err) {
	case KindInvalidInput:
		return "that doesn't look like something I can save"
	case KindFileRejected:
		return "this file type isn't supported"
	case KindNotFound:
		return "item not found"
	case KindDuplicateID:
		return "internal error: duplicate id"
	case KindIOError:
		return "couldn't write to disk"
	case KindCorruption:
		return "this item's data is damaged"
	case KindExtractionFailure:
		return "couldn't read the file's contents"
	case KindTimeout:
		return "that took too long"
	default:
		return "something went wrong"
	}
}
