package coordinate

import (
	"strings"

	"github.com/coreos/go-semver/semver"
)

// Wildcard is the version token that matches any version of an artifact.
const Wildcard = "*"

// Coordinate identifies an artifact. It is a value type and safe to copy.
type Coordinate struct {
	Group       string
	ArtifactID  string
	Version     string
	BaseVersion string
	Classifier  string
	Type        string
}

// Key is the structural identity of a coordinate: every field but the raw
// version. Two coordinates with equal keys are the same artifact build.
type Key struct {
	Group       string
	ArtifactID  string
	BaseVersion string
	Classifier  string
	Type        string
}

// New builds a coordinate, deriving BaseVersion from version.
// An empty classifier means the artifact has none.
func New(group, artifactID, version, classifier, typ string) Coordinate {
	return Coordinate{
		Group:       group,
		ArtifactID:  artifactID,
		Version:     version,
		BaseVersion: BaseVersion(version),
		Classifier:  classifier,
		Type:        typ,
	}
}

// BaseVersion strips any pre-release or snapshot qualifier from v.
// "1.0.0-SNAPSHOT" becomes "1.0.0"; the wildcard is returned unchanged.
func BaseVersion(v string) string {
	if v == Wildcard || v == "" {
		return v
	}
	if sv, ok := parseSemver(v); ok {
		return sv.String()
	}
	if i := strings.IndexAny(v, "-+"); i > 0 {
		return v[:i]
	}
	return v
}

// Key returns the structural identity of c.
func (c Coordinate) Key() Key {
	return Key{
		Group:       c.Group,
		ArtifactID:  c.ArtifactID,
		BaseVersion: c.BaseVersion,
		Classifier:  c.Classifier,
		Type:        c.Type,
	}
}

// IsWildcard reports whether c requests any version.
func (c Coordinate) IsWildcard() bool {
	return c.Version == Wildcard
}

// Equal reports exact structural equality: same key, same base version.
func (c Coordinate) Equal(o Coordinate) bool {
	return c.Key() == o.Key()
}

// SameArtifact reports whether a and b name the same artifact. Versions are
// ignored when either side is the wildcard.
func SameArtifact(a, b Coordinate) bool {
	if !sameShape(a, b) {
		return false
	}
	if a.IsWildcard() || b.IsWildcard() {
		return true
	}
	return a.BaseVersion == b.BaseVersion
}

// Compatible reports whether actual satisfies a request for requested:
// same group, artifact, classifier and type, same major version, and
// actual >= requested. Versions that are not semantic versions are only
// compatible when their base versions are identical.
func Compatible(actual, requested Coordinate) bool {
	if !sameShape(actual, requested) {
		return false
	}
	if requested.IsWildcard() {
		return true
	}
	av, aok := parseSemver(actual.BaseVersion)
	rv, rok := parseSemver(requested.BaseVersion)
	if !aok || !rok {
		return actual.BaseVersion == requested.BaseVersion
	}
	if av.Major != rv.Major {
		return false
	}
	return !av.LessThan(*rv)
}

// String renders c as group:artifactId:version[:classifier]:type.
func (c Coordinate) String() string {
	parts := []string{c.Group, c.ArtifactID, c.Version}
	if c.Classifier != "" {
		parts = append(parts, c.Classifier)
	}
	parts = append(parts, c.Type)
	return strings.Join(parts, ":")
}

func sameShape(a, b Coordinate) bool {
	return a.Group == b.Group &&
		a.ArtifactID == b.ArtifactID &&
		a.Classifier == b.Classifier &&
		a.Type == b.Type
}

// parseSemver accepts "1", "1.2" and "1.2.3" with optional qualifiers and
// returns the version without its pre-release and build metadata.
func parseSemver(v string) (*semver.Version, bool) {
	core := v
	if i := strings.IndexAny(core, "-+"); i >= 0 {
		core = core[:i]
	}
	if core == "" {
		return nil, false
	}
	switch strings.Count(core, ".") {
	case 0:
		core += ".0.0"
	case 1:
		core += ".0"
	case 2:
	default:
		return nil, false
	}
	sv, err := semver.NewVersion(core)
	if err != nil {
		return nil, false
	}
	return sv, true
}
