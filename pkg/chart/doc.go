// Package chart defines the serialized documents handed to renderers.
//
// This package is the wire format of healthviz: it is what the CLI writes to
// disk, what the API returns, what the cache stores and what MongoDB keeps.
// Each document is a [Chart] discriminated by Kind:
//
//   - [KindSunburst]: a flat list of partitioned arcs ([Sunburst])
//   - [KindFlow]: sankey nodes, links and a stage legend ([Flow])
//   - [KindRates]: joined rate records with per-year summaries ([Rates])
//
// Convert from the in-memory types with [FromSunburst], [FromFlow] and
// [FromRates]. A sunburst document can be turned back into a tree with
// [Sunburst.Tree] so it can be re-partitioned and zoomed without the
// original rows.
//
// Serialize with [Marshal]/[Unmarshal], [Write]/[Read] or
// [WriteFile]/[ReadFile]. Output is indented JSON and deterministic for a
// given input.
package chart
