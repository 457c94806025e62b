// Package unit implements isolation units: resolution scopes with their own
// search path, a non-owning delegation parent and a per-namespace lookup
// policy.
//
// # Main Types
//
//   - Unit: resolves resources and symbols, owns companions and compiled modules
//   - LookupPolicy: namespace to ChildFirst/ParentFirst, most specific prefix wins
//   - Location: where a resource was found (directory entry or archive member)
//   - Symbol: a wasm module compiled in the owning unit's wazero runtime
//   - Natives: process-wide registry of native handles released per family
//
// # Search Path
//
// Entries are directories or zip/jar archives on an afero.Fs. Archives are
// opened on first use and closed by Dispose.
//
// # Coordinate Requests
//
//	resource::com.acme:driver:1.0.0:jar:META-INF/driver.properties
//
// is served by a companion unit scoped to the search-path entry of that
// artifact. Companions are created once per coordinate and owned by the
// requesting unit.
//
// # Thread Safety
//
// FindResource, LoadSymbol and AddShutdownListener are safe for concurrent
// use. Dispose must run after in-flight resolution has stopped.
//
// # Example
//
//	u := unit.New(unit.Config{
//		ID:         "app",
//		Owner:      "shop-app",
//		SearchPath: []string{"/deploy/shop/lib"},
//		Parent:     domainUnit,
//	})
//	sym, err := u.LoadSymbol(ctx, "com.acme.Checkout")
//	...
//	warnings := u.Dispose(ctx)
package unit
