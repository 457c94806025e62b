// Package arena provides handle tables that own their values.
//
// A Table maps small integer handles to values. Owners keep handles instead
// of pointers when they need to express "this structure owns that one" while
// other structures only refer to it:
//
//	units := arena.NewTable[*unit.Unit]()
//	h := units.Insert(tagPrimary, u)
//	u, ok := units.Get(h)
//
// Every entry carries a caller-defined tag. Each reports it, and so does
// every Event. Handles of removed values are recycled.
//
// # Observers
//
// Subscribe an Observer to be told about inserts and removals, including
// the removals done by Clear and Close:
//
//	table.Subscribe(obs)
//
// Table is safe for concurrent use. Observer callbacks run synchronously and
// must not call back into the table.
package arena
