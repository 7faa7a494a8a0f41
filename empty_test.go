package volatileindex_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/volatileindex"
)

func Test_EmptySequence_Yields_No_Elements_And_No_Failure(t *testing.T) {
	t.Parallel()

	empty := volatileindex.EmptySequence[string]()
	require.Empty(t, collect(t, empty))
	require.NoError(t, empty.Err())
}

// Testable property 2 from spec.md §8: every lookup miss returns the same
// underlying empty sequence.
func Test_EmptySequence_Is_The_Same_Underlying_Sequence_Across_Calls(t *testing.T) {
	t.Parallel()

	a := volatileindex.EmptySequence[int]()
	b := volatileindex.EmptySequence[int]()

	require.Equal(t, reflect.ValueOf(a.Seq).Pointer(), reflect.ValueOf(b.Seq).Pointer())
}

func Test_RelaxedIndex_Lookup_Miss_Returns_The_Shared_Empty_Sequence(t *testing.T) {
	t.Parallel()

	idx, err := volatileindex.BuildRelaxed([]int{1, 2}, func(e int) (int, error) { return e, nil })
	require.NoError(t, err)

	miss := idx.Lookup(staticKey(99))
	shared := volatileindex.EmptySequence[int]()

	require.Equal(t, reflect.ValueOf(shared.Seq).Pointer(), reflect.ValueOf(miss.Seq).Pointer())
}
