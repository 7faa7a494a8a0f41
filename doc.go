// Package volatileindex provides volatile indexes: auxiliary, eagerly-built
// lookup structures over an in-memory sequence of elements, designed to
// accelerate repeated equality-keyed probes inside nested filter expressions
// without silently changing the errors the equivalent un-indexed scan would
// produce.
//
// The key selector supplied to a factory is an arbitrary caller function and
// may fail on any element (a null dereference, a division by zero, whatever
// the caller's own logic does). A naive hash index would hide or reorder
// those failures relative to the nested scan it replaces. Each index variant
// in this package makes an explicit, documented choice about how much of that
// original failure fidelity it preserves, trading it against how much
// redundant work it eliminates.
//
// # Basic Usage
//
//	idx, err := volatileindex.BuildRelaxed(orders, func(o Order) (CustomerID, error) {
//	    return o.CustomerID, nil
//	})
//	if err != nil {
//	    // ErrNilSource / ErrNilKeySelector only; building itself never
//	    // fails for any other reason.
//	}
//
//	lookup := idx.Lookup(func() (CustomerID, error) { return probeID, nil })
//	for o := range lookup.Seq {
//	    // matching orders, in source order
//	}
//
// # Choosing a variant
//
//   - [RelaxedIndex] is the fastest: it silently discards every
//     key-derivation and probe failure. Use it when the caller does not
//     need the nested scan's exact failure behavior reproduced.
//   - [StrictIndex] reproduces the nested scan's exception order exactly:
//     source-empty check, key-operand probe, probe evaluation, stored
//     key-build failure, in that order.
//   - [PartlyRelaxedIndex] sits in between: it keeps every key-build
//     failure but only raises one if a caller-supplied residual predicate
//     says the failing element would actually have been visited by the
//     rest of the outer query.
//   - [SlowGroupIndex] is a grouping-style variant: every lookup result is
//     a [Wrapper] carrying either a matched value or a pending failure,
//     inspected on demand via [Wrapper.Value].
//   - [EmptySequence] is the shared, allocation-free result every variant
//     returns on a lookup miss that has no stored failure to report.
//
// # Concurrency
//
// Index construction is single-threaded and eager; there is no partial or
// background build. Once built, every variant — including [SlowGroupIndex]
// — is safe for concurrent [Lookup] calls from any number of goroutines:
// each call allocates its own result rather than reusing shared state. See
// [SlowGroupIndex]'s doc comment for why that matters more there than for
// the other three variants.
//
// # Error Handling
//
// Two error shapes come out of this package:
//
// Precondition errors ([ErrNilSource], [ErrNilKeySelector]): returned
// eagerly by the `Build*` factories. Programming errors, not data errors.
//
// Probe/key-build errors: the caller's own key-selector or probe errors,
// reproduced verbatim — never wrapped or remapped — at the point each
// variant's contract says the nested scan would have raised them. See each
// variant's doc comment for its exact ordering contract, and [Lookup] for
// how a trailing failure is represented.
package volatileindex
