// Package hierarchy groups flat rows into a keyed tree and lays it out as a
// radial partition (sunburst).
//
// The pipeline has three steps:
//
//  1. [Aggregate] groups rows by an ordered key path and sums a measure at
//     the leaves. Internal node values are the sum of their leaves.
//  2. [Partition] assigns every node an angular interval within [0, 2π) and a
//     ring [depth, depth+1]. Children split their parent's interval in
//     proportion to their values.
//  3. [Reframe] remaps every arc relative to a focus arc so the focus subtree
//     fills the full circle. This is the zoom step of an interactive sunburst.
//
// # Measure coercion
//
// Measure cells are parsed as decimal numbers. Missing or unparsable cells
// count as 0 and are tallied in the root's Coerced field. This mirrors how
// the source datasets were historically summed and can hide bad data; set
// [Options.Strict] to fail with MALFORMED_MEASURE instead.
//
// # Ordering
//
// Children keep the first-seen order of their keys. Call [SortByValue] to
// order them by descending value; ties keep first-seen order.
//
// Nothing in this package performs I/O.
package hierarchy
