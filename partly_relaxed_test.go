package volatileindex_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/volatileindex"
)

type withPointer struct {
	p *int
}

func ptrValue(p withPointer) (int, error) {
	if p.p == nil {
		return 0, errNilDeref
	}

	return *p.p, nil
}

var errNilDeref = errors.New("nil dereference")

func one() *int {
	v := 1
	return &v
}

func two() *int {
	v := 2
	return &v
}

// S2 + S3 from spec.md §8.
func Test_PartlyRelaxedIndex_Lookup_Raises_Stored_Failure_Without_Residual(t *testing.T) {
	t.Parallel()

	source := []withPointer{{p: one()}, {p: nil}, {p: two()}}

	idx, err := volatileindex.BuildPartlyRelaxed(source, ptrValue)
	require.NoError(t, err)
	require.Len(t, idx.Failures(), 1)
	require.Equal(t, source[1], idx.Failures()[0].Element)

	lookup := idx.Lookup(staticKey(1), false, nil)
	require.Equal(t, []withPointer{source[0]}, collect(t, lookup))
	require.ErrorIs(t, lookup.Err(), errNilDeref)
}

func Test_PartlyRelaxedIndex_Lookup_With_Residual_Excludes_Failing_Element(t *testing.T) {
	t.Parallel()

	source := []withPointer{{p: one()}, {p: nil}, {p: two()}}

	idx, err := volatileindex.BuildPartlyRelaxed(source, ptrValue)
	require.NoError(t, err)

	residual := func(e withPointer) bool { return e.p != nil }

	lookup := idx.Lookup(staticKey(1), false, residual)
	require.Equal(t, []withPointer{source[0]}, collect(t, lookup))
	require.NoError(t, lookup.Err(), "residual excludes the only failing element")
}

// Testable property 10/11 from spec.md §8.
func Test_PartlyRelaxedIndex_Lookup_Residual_Gates_Which_Failure_Surfaces(t *testing.T) {
	t.Parallel()

	type rec struct {
		id  int
		bad bool
	}

	errA := errors.New("A failed")
	errB := errors.New("B failed")

	source := []rec{{id: 1, bad: true}, {id: 2}, {id: 3, bad: true}}

	idx, err := volatileindex.BuildPartlyRelaxed(source, func(r rec) (int, error) {
		if r.bad {
			if r.id == 1 {
				return 0, errA
			}

			return 0, errB
		}

		return r.id, nil
	})
	require.NoError(t, err)
	require.Len(t, idx.Failures(), 2)

	// No residual predicate: the first recorded failure always surfaces.
	lookup := idx.Lookup(staticKey(2), false, nil)
	require.ErrorIs(t, lookup.Err(), errA)

	// Residual admits only the second failing element (id 3).
	onlyID3 := func(r rec) bool { return r.id == 3 }
	lookup = idx.Lookup(staticKey(2), false, onlyID3)
	require.ErrorIs(t, lookup.Err(), errB)

	// Residual admits neither failing element: no failure surfaces.
	none := func(rec) bool { return false }
	lookup = idx.Lookup(staticKey(2), false, none)
	require.NoError(t, lookup.Err())
	require.Empty(t, collect(t, lookup))
}

func Test_PartlyRelaxedIndex_Lookup_Probe_Failure_With_Residual_Scans_For_First_Admitted_Element(t *testing.T) {
	t.Parallel()

	type rec struct{ id int }

	probeErr := errors.New("probe failed")
	source := []rec{{id: 1}, {id: 2}, {id: 3}}

	idx, err := volatileindex.BuildPartlyRelaxed(source, func(r rec) (int, error) { return r.id, nil })
	require.NoError(t, err)

	admitOnlyThree := func(r rec) bool { return r.id == 3 }
	lookup := idx.Lookup(func() (int, error) { return 0, probeErr }, false, admitOnlyThree)
	require.Empty(t, collect(t, lookup))
	require.ErrorIs(t, lookup.Err(), probeErr)

	admitNone := func(rec) bool { return false }
	lookup = idx.Lookup(func() (int, error) { return 0, probeErr }, false, admitNone)
	require.Empty(t, collect(t, lookup))
	require.NoError(t, lookup.Err(), "no element satisfies the residual predicate")
}

func Test_PartlyRelaxedIndex_Lookup_Probe_Failure_On_Empty_Source_Returns_Empty(t *testing.T) {
	t.Parallel()

	idx, err := volatileindex.BuildPartlyRelaxed([]int{}, func(e int) (int, error) { return e, nil })
	require.NoError(t, err)

	lookup := idx.Lookup(func() (int, error) { return 0, errors.New("boom") }, false, nil)
	require.Empty(t, collect(t, lookup))
	require.NoError(t, lookup.Err())
}
