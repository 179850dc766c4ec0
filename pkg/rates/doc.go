// Package rates joins a wide per-entity, per-year rate table with a
// population lookup.
//
// The rate table has one row per entity (a state, say) and one column per
// year holding a percentage. The population table maps each entity to a
// resident count. [Join] combines them into entity → year → [Record] where
//
//	Rate         = round(rate, 2)
//	DerivedCount = round(population * rate / 100)
//
// Rounding is half away from zero ([math.Round]).
//
// A pair is only present when the rate parses as a number and the entity has
// a positive population. Anything else is an absence, counted in
// [Table.Misses], never a zero record and never an error.
//
// [Summarize], [Snapshot] and [Series] reshape a joined table for choropleth
// color domains, per-year tables and per-entity line charts.
package rates
