// Package region composes isolation units into the boundary of one
// deployable.
//
// A Region owns a primary unit and any number of child units (plugins), each
// added with an ExportFilter. Lookups walk the children in registration
// order and the first child whose filter exports the name serves it; names
// no child exports go to the primary unit. Regions are single level.
//
// Two children may not export the same namespace. AddChild reports the
// conflict when the second child is added, not at first lookup.
//
// Filtered wraps any unit.Parent so that only exported names pass, which
// is how a domain's shared libraries are exposed to its applications.
package region
