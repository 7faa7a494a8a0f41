package volatileindex

import "hash/maphash"

// Wrapper stands in for a single source element returned from
// [SlowGroupIndex.Lookup]. It carries either a successfully matched value
// or a pending key-build failure; the failure, if any, is data until
// [Wrapper.Value] is called, mirroring spec.md §4.5's "exceptions are data,
// not control flow, until the wrapper is inspected" contract.
type Wrapper[E any] struct {
	value E
	err   error
}

// Value returns the wrapped element, or the pending error if this wrapper
// stands in for an element whose key selector failed (or for the probe
// itself, when the whole lookup's deferred key failed).
func (w Wrapper[E]) Value() (E, error) {
	return w.value, w.err
}

// grouping is one contiguous equal-key run in SlowGroupIndex's ordered
// array, plus its slot in the hash-chained lookup table.
type grouping[E any, K comparable] struct {
	key   K
	hash  uint64
	start int
	stop  int

	hashNext *grouping[E, K]
}

// SlowGroupOptions configures key equality and hashing for [BuildSlowGroup].
// A nil *SlowGroupOptions (or a zero value) uses K's native `==` and a
// maphash-based default hasher.
type SlowGroupOptions[K comparable] struct {
	// Equal overrides key comparison. Nil means K's native `==`.
	Equal func(a, b K) bool
	// Hash overrides key hashing. Nil means a default maphash-based
	// hasher that treats the zero value of K as the "null key" (hash 0),
	// matching spec.md §4.5's "the hash code of a null key is 0" rule
	// generalized to Go's zero-value convention.
	Hash func(k K) uint64
}

// SlowGroupIndex is a grouping-style variant: lookup returns per-element
// [Wrapper] values rather than bare elements, so a caller can distinguish
// a successful match from an element whose key evaluation failed without
// that failure aborting the whole lookup.
//
// Build with [BuildSlowGroup]. Once built, SlowGroupIndex never mutates its
// own index state on lookup — spec.md §5 documents the source family this
// package ports as sharing one mutable view object across lookups (purely
// to save an allocation) and calls that out as a concurrency hazard;
// spec.md §9's design notes ask a migrating implementation to eliminate it.
// This port does: every [SlowGroupIndex.Lookup] call allocates its own
// result, so concurrent lookups against one sealed SlowGroupIndex are safe,
// same as the other three variants. See DESIGN.md for this decision.
type SlowGroupIndex[E any, K comparable] struct {
	source      []E
	keySelector func(E) (K, error)

	ordered     []E // successes, grouped contiguously
	keyFailures []*KeyError[E]

	table []*grouping[E, K]
	equal func(a, b K) bool
	hash  func(K) uint64
}

func defaultKeyHasher[K comparable](seed maphash.Seed) func(K) uint64 {
	var zero K

	return func(k K) uint64 {
		if k == zero {
			return 0
		}

		return maphash.Comparable(seed, k)
	}
}

// nextTableSize returns the smallest table size, starting from 7 and
// doubling-plus-one each step, that is at least n. This mirrors spec.md
// §4.5's "next 2·x+1 prime-ish number ≥ distinct_keys, seeded with 7"
// sizing rule.
func nextTableSize(n int) int {
	size := 7
	for size < n {
		size = size*2 + 1
	}

	return size
}

// BuildSlowGroup indexes source by keySelector.
//
// Every element is attempted; successes are grouped by key (source order
// preserved within a group, groups ordered by each key's first
// appearance) into a single flat array addressed by contiguous [start,
// stop) ranges, and failures are recorded separately in source order for
// [SlowGroupIndex.Lookup] to replay as trailing failed wrappers.
//
// opts may be nil to use default equality and hashing.
func BuildSlowGroup[E any, K comparable](source []E, keySelector func(E) (K, error), opts *SlowGroupOptions[K]) (*SlowGroupIndex[E, K], error) {
	if source == nil {
		return nil, ErrNilSource
	}

	if keySelector == nil {
		return nil, ErrNilKeySelector
	}

	var equal func(a, b K) bool
	var hash func(K) uint64

	if opts != nil {
		equal = opts.Equal
		hash = opts.Hash
	}

	if equal == nil {
		equal = func(a, b K) bool { return a == b }
	}

	if hash == nil {
		hash = defaultKeyHasher[K](maphash.MakeSeed())
	}

	idx := &SlowGroupIndex[E, K]{
		source:      source,
		keySelector: keySelector,
		equal:       equal,
		hash:        hash,
	}

	type pending struct {
		key    K
		hash   uint64
		values []E
	}

	groups := make([]*pending, 0)
	byHash := make(map[uint64][]int) // hash -> indices into groups

	for _, e := range source {
		k, err := keySelector(e)
		if err != nil {
			idx.keyFailures = append(idx.keyFailures, &KeyError[E]{Element: e, Err: err})
			continue
		}

		h := hash(k)

		var g *pending
		for _, gi := range byHash[h] {
			if groups[gi].hash == h && equal(groups[gi].key, k) {
				g = groups[gi]
				break
			}
		}

		if g == nil {
			g = &pending{key: k, hash: h}
			byHash[h] = append(byHash[h], len(groups))
			groups = append(groups, g)
		}

		g.values = append(g.values, e)
	}

	idx.ordered = make([]E, 0, len(source))
	idx.table = make([]*grouping[E, K], nextTableSize(len(groups)))

	for _, g := range groups {
		start := len(idx.ordered)
		idx.ordered = append(idx.ordered, g.values...)

		gr := &grouping[E, K]{key: g.key, hash: g.hash, start: start, stop: len(idx.ordered)}

		bucket := int(gr.hash % uint64(len(idx.table)))
		gr.hashNext = idx.table[bucket]
		idx.table[bucket] = gr
	}

	return idx, nil
}

func (idx *SlowGroupIndex[E, K]) findGrouping(k K) *grouping[E, K] {
	if len(idx.table) == 0 {
		return nil
	}

	h := idx.hash(k)
	bucket := int(h % uint64(len(idx.table)))

	for g := idx.table[bucket]; g != nil; g = g.hashNext {
		if g.hash == h && idx.equal(g.key, k) {
			return g
		}
	}

	return nil
}

// wrapEntireSource wraps every element of source with the same pending
// error, for the case where the probe itself failed: per spec.md §4.5,
// a caller that inspects any yielded wrapper re-raises that one error.
func wrapEntireSource[E any](source []E, err error) []Wrapper[E] {
	wrapped := make([]Wrapper[E], len(source))
	for i, e := range source {
		wrapped[i] = Wrapper[E]{value: e, err: err}
	}

	return wrapped
}

// Lookup evaluates probe and returns its grouping as a sequence of
// [Wrapper] values: matching elements first (in source order), then every
// previously-recorded key-build failure as a trailing wrapper whose
// [Wrapper.Value] re-raises that failure.
//
// If probe itself fails, Lookup returns one wrapper per source element,
// every one of them carrying probe's error — reproducing spec.md §4.5's
// ArgumentExceptionEnumerable behavior that any consumer touching any
// yielded element observes the probe failure, without aborting iteration
// outright.
//
// The returned [Lookup.Err] always reports nil: SlowGroupIndex carries
// every failure as per-element [Wrapper] data rather than as a
// sequence-level trailing error.
func (idx *SlowGroupIndex[E, K]) Lookup(probe func() (K, error)) Lookup[Wrapper[E]] {
	if probe == nil {
		return lookupOf(wrapEntireSource(idx.source, ErrNilProbe), nil)
	}

	k, err := probe()
	if err != nil {
		return lookupOf(wrapEntireSource(idx.source, err), nil)
	}

	g := idx.findGrouping(k)
	if g == nil {
		return EmptySequence[Wrapper[E]]()
	}

	wrapped := make([]Wrapper[E], 0, (g.stop-g.start)+len(idx.keyFailures))
	for _, v := range idx.ordered[g.start:g.stop] {
		wrapped = append(wrapped, Wrapper[E]{value: v})
	}

	for _, kf := range idx.keyFailures {
		wrapped = append(wrapped, Wrapper[E]{value: kf.Element, err: kf.Err})
	}

	return lookupOf(wrapped, nil)
}

// Failures returns the key-build failures recorded during build, in source
// order. The returned slice is owned by the index; callers must not mutate
// it.
func (idx *SlowGroupIndex[E, K]) Failures() []*KeyError[E] {
	return idx.keyFailures
}

// Len reports how many elements were successfully indexed.
func (idx *SlowGroupIndex[E, K]) Len() int {
	return len(idx.ordered)
}

// KeyCount reports the number of distinct keys currently indexed.
func (idx *SlowGroupIndex[E, K]) KeyCount() int {
	n := 0
	for _, head := range idx.table {
		for g := head; g != nil; g = g.hashNext {
			n++
		}
	}

	return n
}
