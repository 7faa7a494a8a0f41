package volatileindex

import (
	"reflect"
	"sync"
)

// emptyCache holds one process-global, lazily-built [Lookup] per distinct
// element type E, so every lookup miss across every index variant and every
// instantiation of this package returns the exact same underlying sequence
// rather than allocating a fresh one.
var emptyCache sync.Map // reflect.Type -> any (boxed Lookup[E])

// EmptySequence returns the shared, allocation-free empty lookup result for
// element type E. It iterates zero elements, yields no failure, and is the
// same value (by underlying closure identity) on every call for a given E.
//
// Every variant's Lookup returns this on a miss that has no stored failure
// to report; callers do not need to call
// it directly except to compare a lookup result against "no match" without
// ranging, e.g. in tests.
func EmptySequence[E any]() Lookup[E] {
	t := reflect.TypeFor[E]()

	if v, ok := emptyCache.Load(t); ok {
		return v.(Lookup[E])
	}

	empty := lookupOf[E](nil, nil)
	actual, _ := emptyCache.LoadOrStore(t, empty)

	return actual.(Lookup[E])
}
