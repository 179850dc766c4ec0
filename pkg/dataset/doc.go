// Package dataset loads tabular health statistics into in-memory rows.
//
// This is the I/O boundary of healthviz: everything downstream
// ([hierarchy], [flow], [rates]) works on plain []Row values and never
// touches files or the network.
//
// # Formats
//
//   - CSV with a header row. UTF-8 and UTF-16 input are accepted; a leading
//     byte order mark is stripped so the first header name is not polluted.
//   - XLSX workbooks. The first sheet is read, its first row is the header.
//
// Both may be loaded from a local path or an http(s) URL via [Load].
//
// # Rows
//
// A [Row] maps header names to raw cell strings. Cells missing from short
// (ragged) records are absent from the map rather than empty, so callers can
// tell "no value" apart from "empty value". Numeric coercion happens through
// [Row.Number] and [ParseNumber], never at load time.
//
// # Errors
//
// A file with no header, or a header and no data rows, fails with
// EMPTY_DATASET tagged with the load stage.
//
// [hierarchy]: github.com/matzehuels/healthviz/pkg/hierarchy
// [flow]: github.com/matzehuels/healthviz/pkg/flow
// [rates]: github.com/matzehuels/healthviz/pkg/rates
package dataset
