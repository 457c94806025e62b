package descriptor

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/artifact-runtime/coordinate"
	"github.com/wippyai/artifact-runtime/errors"
)

// Kind is the kind of deployable a descriptor declares.
type Kind string

const (
	KindDomain      Kind = "domain"
	KindApplication Kind = "application"
)

// Exports lists what a unit exposes to whoever composes it.
type Exports struct {
	Namespaces []string `yaml:"namespaces,omitempty"`
	Resources  []string `yaml:"resources,omitempty"`
	Symbols    []string `yaml:"symbols,omitempty"`
}

// IsEmpty reports whether nothing is exported.
func (e Exports) IsEmpty() bool {
	return len(e.Namespaces) == 0 && len(e.Resources) == 0 && len(e.Symbols) == 0
}

// Dependency declares the domain an application runs against. Name, when
// set, is authoritative; otherwise Domain is matched by coordinate.
type Dependency struct {
	Domain string `yaml:"domain,omitempty"`
	Name   string `yaml:"name,omitempty"`
}

// Plugin is a unit composed into the deployable's region.
type Plugin struct {
	Name       string   `yaml:"name"`
	SearchPath []string `yaml:"searchPath,omitempty"`
	Exports    Exports  `yaml:"exports,omitempty"`
}

// Descriptor describes a domain or an application.
type Descriptor struct {
	Lookup        map[string]string `yaml:"lookup,omitempty"`
	Dependency    *Dependency       `yaml:"dependency,omitempty"`
	Kind          Kind              `yaml:"kind"`
	Name          string            `yaml:"name"`
	Coordinate    string            `yaml:"coordinate,omitempty"`
	DefaultLookup string            `yaml:"defaultLookup,omitempty"`
	// Dir is the directory relative search-path entries resolve against.
	Dir        string   `yaml:"-"`
	// Source is the file the descriptor was loaded from, if any.
	Source     string   `yaml:"-"`
	SearchPath []string `yaml:"searchPath,omitempty"`
	Plugins    []Plugin `yaml:"plugins,omitempty"`
	Exports    Exports  `yaml:"exports,omitempty"`
}

// Parse decodes a YAML descriptor. dir is recorded as the base of relative
// search-path entries.
func Parse(data []byte, dir string) (*Descriptor, error) {
	d, err := decode(data, dir)
	if err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func decode(data []byte, dir string) (*Descriptor, error) {
	var d Descriptor
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return nil, errors.ParseFailed("descriptor", err)
	}
	d.Dir = dir
	return &d, nil
}

// Marshal encodes d as YAML.
func Marshal(d *Descriptor) ([]byte, error) {
	return yaml.Marshal(d)
}

// Validate checks the descriptor for structural errors.
func (d *Descriptor) Validate() error {
	invalid := func(format string, args ...any) error {
		return errors.New(errors.PhaseParse, errors.KindInvalidInput).
			Artifact(d.Name).
			Detail(format, args...).
			Build()
	}

	if d.Name == "" {
		return invalid("descriptor has no name")
	}
	switch d.Kind {
	case KindDomain:
		if d.Dependency != nil {
			return invalid("a domain cannot declare a dependency")
		}
	case KindApplication:
	default:
		return invalid("unknown kind %q", d.Kind)
	}
	if d.Coordinate != "" {
		if _, err := coordinate.Parse(d.Coordinate); err != nil {
			return invalid("coordinate: %v", err)
		}
	}
	if d.Dependency != nil && d.Dependency.Domain != "" {
		if _, err := coordinate.Parse(d.Dependency.Domain); err != nil {
			return invalid("dependency: %v", err)
		}
	}

	seen := make(map[string]bool, len(d.Plugins))
	for _, p := range d.Plugins {
		if p.Name == "" {
			return invalid("plugin without a name")
		}
		if seen[p.Name] {
			return invalid("duplicate plugin %q", p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}

// ArtifactCoordinate returns the deployable's coordinate, if declared.
func (d *Descriptor) ArtifactCoordinate() (*coordinate.Coordinate, error) {
	if d.Coordinate == "" {
		return nil, nil
	}
	c, err := coordinate.Parse(d.Coordinate)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// DependencyCoordinate returns the coordinate of the declared dependency, if any.
func (d *Descriptor) DependencyCoordinate() (*coordinate.Coordinate, error) {
	if d.Dependency == nil || d.Dependency.Domain == "" {
		return nil, nil
	}
	c, err := coordinate.Parse(d.Dependency.Domain)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ResolvedSearchPath returns the search path with relative entries joined
// to Dir.
func (d *Descriptor) ResolvedSearchPath() []string {
	return resolvePaths(d.Dir, d.SearchPath)
}

// ResolvedSearchPath returns the plugin's search path with relative entries
// joined to dir.
func (p Plugin) ResolvedSearchPath(dir string) []string {
	return resolvePaths(dir, p.SearchPath)
}

// LookupNamespaces returns the namespaces with a lookup override, sorted.
func (d *Descriptor) LookupNamespaces() []string {
	out := make([]string, 0, len(d.Lookup))
	for ns := range d.Lookup {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

func (d *Descriptor) String() string {
	if d.Coordinate == "" {
		return fmt.Sprintf("%s %s", d.Kind, d.Name)
	}
	return fmt.Sprintf("%s %s (%s)", d.Kind, d.Name, d.Coordinate)
}

func resolvePaths(dir string, entries []string) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e == "" {
			continue
		}
		if !filepath.IsAbs(e) && dir != "" {
			e = filepath.Join(dir, e)
		}
		out = append(out, filepath.Clean(e))
	}
	return out
}
