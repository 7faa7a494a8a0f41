package volatileindex

import "iter"

// Lookup is the result of probing an index for a single key.
//
// Seq yields the bucket's matching elements in source order. Err is
// normally checked once ranging over Seq is done; it reports the failure
// the equivalent naive, un-indexed nested scan would have raised at that
// point, or nil if the scan would simply have terminated. Its result does
// not depend on how much of Seq was consumed, so it may also be called
// without ranging at all.
//
// This mirrors the standard library's stream-then-check-trailing-error
// idiom (compare [database/sql.Rows.Next] / [database/sql.Rows.Err]): a
// caller that only wants the happy path can range over Seq and ignore Err;
// a caller that needs exact nested-scan fidelity calls Err once done.
//
// Seq and Err are both safe to call multiple times and from more than one
// goroutine: every variant's Lookup value reads only data that is never
// mutated after it is returned.
type Lookup[E any] struct {
	Seq iter.Seq[E]
	Err func() error
}

// emptyErr is a Lookup.Err closure that always reports nil.
func emptyErr() error { return nil }

// staticErr returns a Lookup.Err closure over a fixed error value.
func staticErr(err error) func() error {
	return func() error { return err }
}

// seqOf returns an iter.Seq that yields the given slice in order.
func seqOf[E any](elems []E) iter.Seq[E] {
	return func(yield func(E) bool) {
		for _, e := range elems {
			if !yield(e) {
				return
			}
		}
	}
}

// lookupOf builds a Lookup that yields elems and then reports err.
func lookupOf[E any](elems []E, err error) Lookup[E] {
	return Lookup[E]{Seq: seqOf(elems), Err: staticErr(err)}
}

// lookupErr builds a Lookup that yields nothing and immediately reports err.
func lookupErr[E any](err error) Lookup[E] {
	return Lookup[E]{Seq: seqOf[E](nil), Err: staticErr(err)}
}
