package region

import (
	"path"
	"sort"
	"strings"

	"github.com/wippyai/artifact-runtime/unit"
)

// ExportFilter is the allow-list of names a composed unit exposes.
type ExportFilter struct {
	namespaces map[string]struct{}
	resources  map[string]struct{}
	symbols    map[string]struct{}
}

// NewExportFilter builds a filter. symbols are exported regardless of their
// namespace.
func NewExportFilter(namespaces, resources, symbols []string) ExportFilter {
	return ExportFilter{
		namespaces: toSet(namespaces, nil),
		resources:  toSet(resources, cleanResource),
		symbols:    toSet(symbols, nil),
	}
}

// ExportsSymbol reports whether the symbol name passes the filter.
func (f ExportFilter) ExportsSymbol(name string) bool {
	if _, ok := f.symbols[name]; ok {
		return true
	}
	_, ok := f.namespaces[unit.SymbolNamespace(name)]
	return ok
}

// ExportsResource reports whether the resource name passes the filter.
func (f ExportFilter) ExportsResource(name string) bool {
	name = cleanResource(name)
	if _, ok := f.resources[name]; ok {
		return true
	}
	_, ok := f.namespaces[unit.ResourceNamespace(name)]
	return ok
}

// Namespaces returns the exported namespaces, sorted.
func (f ExportFilter) Namespaces() []string { return sortedSet(f.namespaces) }

// Resources returns the exported resources, sorted.
func (f ExportFilter) Resources() []string { return sortedSet(f.resources) }

// Symbols returns the explicitly exported symbols, sorted.
func (f ExportFilter) Symbols() []string { return sortedSet(f.symbols) }

// IsEmpty reports whether the filter exports nothing.
func (f ExportFilter) IsEmpty() bool {
	return len(f.namespaces) == 0 && len(f.resources) == 0 && len(f.symbols) == 0
}

func cleanResource(name string) string {
	return strings.TrimPrefix(path.Clean("/"+name), "/")
}

func toSet(items []string, norm func(string) string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		if norm != nil {
			it = norm(it)
		}
		if it != "" {
			set[it] = struct{}{}
		}
	}
	return set
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
