package unit

import (
	"strings"

	"github.com/wippyai/artifact-runtime/errors"
)

// Policy decides whether a namespace is looked up locally or in the parent first.
type Policy uint8

const (
	ChildFirst Policy = iota
	ParentFirst
)

func (p Policy) String() string {
	switch p {
	case ChildFirst:
		return "child-first"
	case ParentFirst:
		return "parent-first"
	default:
		return "unknown"
	}
}

// ParsePolicy parses "child-first" or "parent-first".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "child-first", "child_first", "childfirst":
		return ChildFirst, nil
	case "parent-first", "parent_first", "parentfirst":
		return ParentFirst, nil
	default:
		return ChildFirst, errors.InvalidInput(errors.PhaseParse, "unknown lookup policy "+s)
	}
}

// LookupPolicy maps namespaces to a Policy. The most specific dotted prefix
// wins; namespaces without an entry use the default.
//
// A LookupPolicy is immutable. The zero value is child-first for everything.
type LookupPolicy struct {
	overrides map[string]Policy
	def       Policy
}

// NewLookupPolicy creates a policy with the given default and per-namespace
// overrides. The map is copied.
func NewLookupPolicy(def Policy, overrides map[string]Policy) LookupPolicy {
	lp := LookupPolicy{def: def}
	if len(overrides) > 0 {
		lp.overrides = make(map[string]Policy, len(overrides))
		for ns, p := range overrides {
			lp.overrides[ns] = p
		}
	}
	return lp
}

// Default returns the policy used for namespaces without an override.
func (l LookupPolicy) Default() Policy {
	return l.def
}

// For returns the policy of namespace.
func (l LookupPolicy) For(namespace string) Policy {
	if len(l.overrides) == 0 {
		return l.def
	}
	ns := namespace
	for {
		if p, ok := l.overrides[ns]; ok {
			return p
		}
		i := strings.LastIndexByte(ns, '.')
		if i < 0 {
			break
		}
		ns = ns[:i]
	}
	return l.def
}

// SymbolNamespace returns the namespace of a dotted symbol name:
// "com.acme.Foo" is in "com.acme".
func SymbolNamespace(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return ""
}

// ResourceNamespace returns the namespace of a resource path:
// "com/acme/app.properties" is in "com.acme".
func ResourceNamespace(name string) string {
	name = strings.TrimPrefix(name, "/")
	i := strings.LastIndexByte(name, '/')
	if i < 0 {
		return ""
	}
	return strings.ReplaceAll(name[:i], "/", ".")
}

// SymbolResource returns the resource path holding the module of symbol name.
func SymbolResource(name string) string {
	return strings.ReplaceAll(name, ".", "/") + SymbolExt
}

// SymbolExt is the file extension of symbol modules on a search path.
const SymbolExt = ".wasm"
