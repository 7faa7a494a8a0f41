package volatileindex_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/volatileindex"
)

type keyedVal struct {
	k *string
	v int
}

// S6 from spec.md §8.
func Test_SlowGroupIndex_Lookup_Yields_Matches_Then_Trailing_Failed_Wrappers(t *testing.T) {
	t.Parallel()

	x := "x"
	source := []keyedVal{{k: &x, v: 1}, {k: nil, v: 2}, {k: &x, v: 3}}

	idx, err := volatileindex.BuildSlowGroup(source, func(e keyedVal) (string, error) {
		if e.k == nil {
			return "", errors.New("null key")
		}

		return *e.k, nil
	}, nil)
	require.NoError(t, err)
	require.Equal(t, 2, idx.Len())
	require.Len(t, idx.Failures(), 1)

	lookup := idx.Lookup(staticKey("x"))

	var values []int
	var sawFailure bool

	for w := range lookup.Seq {
		v, err := w.Value()
		if err != nil {
			sawFailure = true

			continue
		}

		values = append(values, v.v)
	}

	require.Equal(t, []int{1, 3}, values)
	require.True(t, sawFailure)
}

func Test_SlowGroupIndex_Wrapper_Value_Reraises_Failure_On_Access(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	idx, err := volatileindex.BuildSlowGroup([]int{1, 2}, func(e int) (int, error) {
		if e == 2 {
			return 0, boom
		}

		return e, nil
	}, nil)
	require.NoError(t, err)

	var failing volatileindex.Wrapper[int]

	for w := range idx.Lookup(staticKey(1)).Seq {
		if _, err := w.Value(); err != nil {
			failing = w
		}
	}

	_, err = failing.Value()
	require.ErrorIs(t, err, boom)
}

func Test_SlowGroupIndex_Lookup_Wraps_Entire_Source_When_Probe_Fails(t *testing.T) {
	t.Parallel()

	probeErr := errors.New("probe failed")
	source := []int{1, 2, 3}

	idx, err := volatileindex.BuildSlowGroup(source, func(e int) (int, error) { return e, nil }, nil)
	require.NoError(t, err)

	lookup := idx.Lookup(func() (int, error) { return 0, probeErr })

	var n int
	for w := range lookup.Seq {
		n++
		_, err := w.Value()
		require.ErrorIs(t, err, probeErr)
	}

	require.Equal(t, len(source), n)
}

func Test_SlowGroupIndex_Lookup_Returns_Empty_On_Miss(t *testing.T) {
	t.Parallel()

	idx, err := volatileindex.BuildSlowGroup([]int{1, 2}, func(e int) (int, error) { return e, nil }, nil)
	require.NoError(t, err)

	lookup := idx.Lookup(staticKey(99))
	require.Empty(t, collectWrapped(t, lookup))
}

func Test_SlowGroupIndex_Honors_Custom_Equal_And_Hash(t *testing.T) {
	t.Parallel()

	source := []string{"Foo", "BAR", "foo", "bar"}

	opts := &volatileindex.SlowGroupOptions[string]{
		Equal: func(a, b string) bool { return strings.EqualFold(a, b) },
		Hash: func(k string) uint64 {
			var h uint64
			for _, r := range strings.ToLower(k) {
				h = h*31 + uint64(r)
			}

			return h
		},
	}

	idx, err := volatileindex.BuildSlowGroup(source, func(e string) (string, error) { return e, nil }, opts)
	require.NoError(t, err)
	require.Equal(t, 2, idx.KeyCount())

	got := collectWrapped(t, idx.Lookup(staticKey("FOO")))
	require.Equal(t, []string{"Foo", "foo"}, got)
}

func collectWrapped[E any](t *testing.T, l volatileindex.Lookup[volatileindex.Wrapper[E]]) []E {
	t.Helper()

	var got []E
	for w := range l.Seq {
		v, err := w.Value()
		require.NoError(t, err)
		got = append(got, v)
	}

	return got
}
