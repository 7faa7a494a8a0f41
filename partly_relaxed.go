package volatileindex

import "iter"

// PartlyRelaxedIndex keeps every key-build failure encountered while
// building, but only re-raises one from a [PartlyRelaxedIndex.Lookup] call
// when a caller-supplied residual predicate says the failing element would
// actually have been visited by the rest of the outer query.
//
// Build with [BuildPartlyRelaxed]. Once built, PartlyRelaxedIndex never
// mutates and is safe for concurrent [PartlyRelaxedIndex.Lookup] calls.
type PartlyRelaxedIndex[E any, K comparable] struct {
	source      []E
	keySelector func(E) (K, error)
	buckets     map[K][]E
	keyFailures []*KeyError[E] // source order
}

// BuildPartlyRelaxed indexes source by keySelector.
//
// Unlike [BuildStrict], a failing key selector does not halt the build:
// every element is attempted, successes populate the bucket map, and
// failures are recorded in source order for [PartlyRelaxedIndex.Failures]
// and for re-raising from [PartlyRelaxedIndex.Lookup].
func BuildPartlyRelaxed[E any, K comparable](source []E, keySelector func(E) (K, error)) (*PartlyRelaxedIndex[E, K], error) {
	if source == nil {
		return nil, ErrNilSource
	}

	if keySelector == nil {
		return nil, ErrNilKeySelector
	}

	idx := &PartlyRelaxedIndex[E, K]{
		source:      source,
		keySelector: keySelector,
		buckets:     make(map[K][]E, len(source)),
	}

	for _, e := range source {
		k, err := keySelector(e)
		if err != nil {
			idx.keyFailures = append(idx.keyFailures, &KeyError[E]{Element: e, Err: err})
			continue
		}

		idx.buckets[k] = append(idx.buckets[k], e)
	}

	return idx, nil
}

// Lookup evaluates probe and returns its bucket.
//
// residual, if non-nil, represents the rest of the outer query's filter:
// it gates which stored key-build failure (if any) is allowed to surface,
// and filters the returned bucket the same way. A nil residual means "no
// additional filter" — the first recorded failure (if any) always
// surfaces, and the full bucket is returned.
//
// keyBeforeCriterion has the same meaning as in [StrictIndex.Lookup]: when
// probe itself fails on a non-empty source, keySelector is tried first on
// source[0] (residual nil) or on the first element residual admits, so its
// failure, rather than probe's, is the one observed. If residual admits no
// element, a failing probe yields [EmptySequence].
func (idx *PartlyRelaxedIndex[E, K]) Lookup(probe func() (K, error), keyBeforeCriterion bool, residual func(E) bool) Lookup[E] {
	if probe == nil {
		return lookupErr[E](ErrNilProbe)
	}

	k, err := probe()
	if err != nil {
		if len(idx.source) == 0 {
			return EmptySequence[E]()
		}

		if residual == nil {
			if keyBeforeCriterion {
				if _, kerr := idx.keySelector(idx.source[0]); kerr != nil {
					return lookupErr[E](kerr)
				}
			}

			return lookupErr[E](err)
		}

		for _, e := range idx.source {
			if !residual(e) {
				continue
			}

			if keyBeforeCriterion {
				if _, kerr := idx.keySelector(e); kerr != nil {
					return lookupErr[E](kerr)
				}
			}

			return lookupErr[E](err)
		}

		return EmptySequence[E]()
	}

	elems, ok := idx.buckets[k]

	if residual == nil {
		var failErr error
		if len(idx.keyFailures) > 0 {
			failErr = idx.keyFailures[0].Err
		}

		if !ok && failErr == nil {
			return EmptySequence[E]()
		}

		return lookupOf(elems, failErr)
	}

	var failErr error
	for _, kf := range idx.keyFailures {
		if residual(kf.Element) {
			failErr = kf.Err
			break
		}
	}

	if !ok && failErr == nil {
		return EmptySequence[E]()
	}

	filtered := make([]E, 0, len(elems))
	for _, e := range elems {
		if residual(e) {
			filtered = append(filtered, e)
		}
	}

	return lookupOf(filtered, failErr)
}

// Failures returns the key-build failures recorded during build, in source
// order. The returned slice is owned by the index; callers must not mutate
// it.
func (idx *PartlyRelaxedIndex[E, K]) Failures() []*KeyError[E] {
	return idx.keyFailures
}

// Len reports how many elements were successfully indexed.
func (idx *PartlyRelaxedIndex[E, K]) Len() int {
	n := 0
	for _, elems := range idx.buckets {
		n += len(elems)
	}

	return n
}

// KeyCount reports the number of distinct keys currently indexed.
func (idx *PartlyRelaxedIndex[E, K]) KeyCount() int {
	return len(idx.buckets)
}

// Keys enumerates the distinct keys currently indexed, in no particular
// order.
func (idx *PartlyRelaxedIndex[E, K]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for k := range idx.buckets {
			if !yield(k) {
				return
			}
		}
	}
}
