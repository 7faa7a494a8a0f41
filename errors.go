package volatileindex

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the Build* factories.
//
// Callers should use [errors.Is] to check error types:
//
//	idx, err := volatileindex.BuildStrict(src, keyFn, false)
//	if errors.Is(err, volatileindex.ErrNilSource) {
//	    // programming error: fix the caller
//	}
var (
	// ErrNilSource indicates a nil source slice was passed to a Build*
	// factory. The source must be a (possibly empty, non-nil) slice.
	ErrNilSource = errors.New("volatileindex: nil source")

	// ErrNilKeySelector indicates a nil key selector was passed to a
	// Build* factory.
	ErrNilKeySelector = errors.New("volatileindex: nil key selector")

	// ErrNilProbe indicates a nil deferred-key function was passed to a
	// Lookup call.
	ErrNilProbe = errors.New("volatileindex: nil probe")
)

// KeyError wraps a failure raised while evaluating a key selector on a
// specific source element. It is never constructed by callers; it is
// surfaced from [PartlyRelaxedIndex.Failures] and [SlowGroupIndex.Failures].
// A lookup that re-raises a stored key-build failure reports the key
// selector's own error, not a KeyError.
//
// KeyError unwraps to the original error via [errors.Unwrap], so
// [errors.Is] and [errors.As] checks against the caller's own error values
// work unchanged.
type KeyError[E any] struct {
	// Element is the source element whose key selector failed.
	Element E
	// Err is the error the key selector returned. Never nil.
	Err error
}

func (e *KeyError[E]) Error() string {
	return fmt.Sprintf("volatileindex: key selector failed: %v", e.Err)
}

func (e *KeyError[E]) Unwrap() error {
	return e.Err
}
