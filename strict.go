package volatileindex

import "iter"

// NullEqualer lets a key type opt into StrictIndex's modeling of an
// equality-against-null check that can itself fail.
//
// The source family this package ports represents keys as nullable
// references; comparing such a key against null is an ordinary operation
// in most languages, but in a handful of host languages invoking an
// instance method (`.Equals(null)`) on a null reference throws before the
// comparison ever happens. [BuildStrict]'s nonStaticEqualsOnKeyOperand
// parameter and [StrictIndex.Lookup]'s nonStaticEquals parameter model
// that: when enabled, and when K implements NullEqualer, EqualsNil is
// invoked on the computed key and its error (if any) is propagated exactly
// where the nested scan would have raised it.
//
// Most key types never need this — EqualsNil is simply never called when
// K does not implement NullEqualer, which is the common case for scalar
// keys (int, string, and similar).
type NullEqualer interface {
	// EqualsNil reports the error that evaluating `this.Equals(null)`
	// would have raised, or nil if that comparison is safe.
	EqualsNil() error
}

// checkNullEquals invokes k.EqualsNil() when enabled is true and k
// implements [NullEqualer]; it is a no-op otherwise.
func checkNullEquals[K comparable](k K, enabled bool) error {
	if !enabled {
		return nil
	}

	ne, ok := any(k).(NullEqualer)
	if !ok {
		return nil
	}

	return ne.EqualsNil()
}

// StrictIndex preserves the exact exception order a naive nested scan over
// source would raise: the source-empty check, the key-operand probe, probe
// evaluation, then any stored key-build failure.
//
// Build with [BuildStrict]. Once built, StrictIndex never mutates and is
// safe for concurrent [StrictIndex.Lookup] calls.
type StrictIndex[E any, K comparable] struct {
	source      []E
	keySelector func(E) (K, error)
	buckets     map[K][]E
	validPrefix int

	// firstKeyFailure is the error raised by keySelector (or, when
	// nonStaticEqualsOnKeyOperand is set, by the key-operand check) on the
	// first element that failed key derivation, or nil if every source
	// element was indexed successfully.
	firstKeyFailure error
}

// BuildStrict indexes source by keySelector.
//
// Build halts at the first element whose key selector fails (or, when
// nonStaticEqualsOnKeyOperand is true and K implements [NullEqualer],
// whose computed key fails its [NullEqualer.EqualsNil] check): every
// element before it is indexed, the failure is stored, and every element
// from it onward is left unindexed. This mirrors the source-iteration
// fallback in spec.md §4.3: an eagerly-halted build behaves exactly as if
// the source had only ever contained its valid prefix.
//
// BuildStrict itself only returns a non-nil error for a nil source or a
// nil keySelector; a failing key selector is recorded, not returned.
func BuildStrict[E any, K comparable](source []E, keySelector func(E) (K, error), nonStaticEqualsOnKeyOperand bool) (*StrictIndex[E, K], error) {
	if source == nil {
		return nil, ErrNilSource
	}

	if keySelector == nil {
		return nil, ErrNilKeySelector
	}

	idx := &StrictIndex[E, K]{
		source:      source,
		keySelector: keySelector,
		buckets:     make(map[K][]E, len(source)),
	}

	for _, e := range source {
		k, err := keySelector(e)
		if err != nil {
			idx.firstKeyFailure = err
			break
		}

		if err := checkNullEquals(k, nonStaticEqualsOnKeyOperand); err != nil {
			idx.firstKeyFailure = err
			break
		}

		idx.buckets[k] = append(idx.buckets[k], e)
		idx.validPrefix++
	}

	return idx, nil
}

// Lookup evaluates probe and returns its bucket, reproducing the nested
// scan's exception order.
//
// keyBeforeCriterion models a naive scan that would evaluate the first
// element's key selector before the probe itself is known to fail: when
// true and probe fails on a non-empty source, keySelector(source[0]) is
// invoked first and its error (if any) is what's raised instead of probe's
// own error. This assumes source yields the same first element on every
// read — the caller's responsibility per spec.md §9.
//
// nonStaticEquals models an equality-against-null check on the probe's
// own key, analogous to nonStaticEqualsOnKeyOperand in [BuildStrict]; it
// only has an effect when K implements [NullEqualer].
//
// If the source is empty, a failing probe yields [EmptySequence] — the
// nested scan would have produced nothing regardless of the probe. If the
// build recorded a key-build failure, every successful lookup yields its
// bucket and then reports that failure via [Lookup.Err], matching
// spec.md's "bucket followed by a trailing throw" contract.
func (idx *StrictIndex[E, K]) Lookup(probe func() (K, error), keyBeforeCriterion bool, nonStaticEquals bool) Lookup[E] {
	if probe == nil {
		return lookupErr[E](ErrNilProbe)
	}

	k, err := probe()
	if err != nil {
		if len(idx.source) == 0 {
			return EmptySequence[E]()
		}

		if keyBeforeCriterion {
			if _, kerr := idx.keySelector(idx.source[0]); kerr != nil {
				return lookupErr[E](kerr)
			}
		}

		return lookupErr[E](err)
	}

	if err := checkNullEquals(k, nonStaticEquals); err != nil {
		return lookupErr[E](err)
	}

	elems, ok := idx.buckets[k]
	if !ok && idx.firstKeyFailure == nil {
		return EmptySequence[E]()
	}

	return lookupOf(elems, idx.firstKeyFailure)
}

// Len reports how many elements were successfully indexed before the
// build halted (or the full source length, if it never halted).
func (idx *StrictIndex[E, K]) Len() int {
	return idx.validPrefix
}

// KeyCount reports the number of distinct keys currently indexed.
func (idx *StrictIndex[E, K]) KeyCount() int {
	return len(idx.buckets)
}

// Keys enumerates the distinct keys currently indexed, in no particular
// order.
func (idx *StrictIndex[E, K]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for k := range idx.buckets {
			if !yield(k) {
				return
			}
		}
	}
}
