package volatileindex

import "iter"

// RelaxedIndex is the fastest exception-fidelity mode: it silently
// discards every key-derivation and probe-evaluation failure.
//
// Build a RelaxedIndex with [BuildRelaxed]. Once built it never mutates and
// is safe for concurrent [RelaxedIndex.Lookup] calls.
type RelaxedIndex[E any, K comparable] struct {
	buckets map[K][]E
}

// BuildRelaxed indexes source by keySelector, skipping any element whose
// key selector returns a non-nil error.
//
// BuildRelaxed never returns a non-nil error for any reason other than a
// nil source or a nil keySelector: unlike [BuildStrict] and
// [BuildPartlyRelaxed], a failing key selector never halts or taints the
// build — the element is simply omitted from every bucket.
func BuildRelaxed[E any, K comparable](source []E, keySelector func(E) (K, error)) (*RelaxedIndex[E, K], error) {
	if source == nil {
		return nil, ErrNilSource
	}

	if keySelector == nil {
		return nil, ErrNilKeySelector
	}

	buckets := make(map[K][]E, len(source))

	for _, e := range source {
		k, err := keySelector(e)
		if err != nil {
			continue
		}

		buckets[k] = append(buckets[k], e)
	}

	return &RelaxedIndex[E, K]{buckets: buckets}, nil
}

// Lookup evaluates probe and returns its bucket.
//
// Lookup never returns an error: if probe fails, or no element shares its
// key, the result is [EmptySequence]. [Lookup.Err] on the returned value
// always reports nil.
func (idx *RelaxedIndex[E, K]) Lookup(probe func() (K, error)) Lookup[E] {
	if probe == nil {
		return EmptySequence[E]()
	}

	k, err := probe()
	if err != nil {
		return EmptySequence[E]()
	}

	elems, ok := idx.buckets[k]
	if !ok {
		return EmptySequence[E]()
	}

	return lookupOf(elems, nil)
}

// Len reports how many elements were successfully indexed (i.e. excludes
// every element whose key selector failed during [BuildRelaxed]).
func (idx *RelaxedIndex[E, K]) Len() int {
	n := 0
	for _, elems := range idx.buckets {
		n += len(elems)
	}

	return n
}

// KeyCount reports the number of distinct keys currently indexed.
func (idx *RelaxedIndex[E, K]) KeyCount() int {
	return len(idx.buckets)
}

// Keys enumerates the distinct keys currently indexed, in no particular
// order (matching Go's own map iteration contract; spec.md's non-goals
// explicitly exclude ordered iteration of the whole index).
func (idx *RelaxedIndex[E, K]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for k := range idx.buckets {
			if !yield(k) {
				return
			}
		}
	}
}
