package gcal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"

	"google.golang.org/api/googleapi"
)

// Kind classifies a batch-level fetch failure. Per-record data problems
// never surface here; they are handled by normalization fallbacks.
type Kind string

const (
	// KindNetwork covers transport failures: DNS, refused connections,
	// timeouts.
	KindNetwork Kind = "network"
	// KindAuth covers expired or denied credentials (HTTP 401/403).
	KindAuth Kind = "auth"
	// KindNotFound covers a missing calendar resource (HTTP 404).
	KindNotFound Kind = "not_found"
	// KindUnknown is everything else.
	KindUnknown Kind = "unknown"
)

// FetchError is a classified batch-level failure from the calendar source.
type FetchError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ClassifyError wraps err in a FetchError with its failure kind. A nil err
// returns nil.
func ClassifyError(op string, err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case 401, 403:
			return &FetchError{Kind: KindAuth, Op: op, Err: err}
		case 404:
			return &FetchError{Kind: KindNotFound, Op: op, Err: err}
		}
		return &FetchError{Kind: KindUnknown, Op: op, Err: err}
	}

	var uerr *url.Error
	var nerr net.Error
	if errors.As(err, &uerr) || errors.As(err, &nerr) ||
		errors.Is(err, context.DeadlineExceeded) {
		return &FetchError{Kind: KindNetwork, Op: op, Err: err}
	}

	return &FetchError{Kind: KindUnknown, Op: op, Err: err}
}

// KindOf extracts the failure kind from an error chain, or KindUnknown.
func KindOf(err error) Kind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}
