package coordinate

import (
	"strings"
)

const pathSeparator = "/"

// GroupPath converts a dotted group into its repository path form.
func GroupPath(group string) string {
	return strings.ReplaceAll(group, ".", pathSeparator)
}

// RepositoryPath is the directory fragment a location of c must contain:
// groupPath/artifactId/version/, or groupPath/artifactId/ for the wildcard.
func (c Coordinate) RepositoryPath() string {
	p := GroupPath(c.Group) + pathSeparator + c.ArtifactID + pathSeparator
	if c.IsWildcard() {
		return p
	}
	return p + c.Version + pathSeparator
}

// Extension is the suffix a location of c must end with: [classifier].type.
func (c Coordinate) Extension() string {
	return c.Classifier + "." + c.Type
}

// MatchesLocation reports whether location looks like the file of c in a
// repository layout.
func (c Coordinate) MatchesLocation(location string) bool {
	location = toSlash(location)
	return strings.Contains(location, c.RepositoryPath()) && strings.HasSuffix(location, c.Extension())
}

// FromLocation reads a coordinate back out of a repository-layout location
// .../groupPath/artifactId/version/artifactId-version[-classifier].type.
//
// Parsing is positional and best-effort. Everything between
// "artifactId-version" and the last dot is taken as the classifier, so a
// version that itself continues with a hyphen is indistinguishable from a
// classifier. ok is false when the segments do not follow the layout.
func FromLocation(location, group string) (c Coordinate, ok bool) {
	segments := strings.Split(toSlash(location), pathSeparator)
	groupSegments := strings.Split(group, ".")
	n := len(segments) - 3
	if group == "" || n < len(groupSegments) {
		return Coordinate{}, false
	}
	for i, g := range groupSegments {
		if segments[n-len(groupSegments)+i] != g {
			return Coordinate{}, false
		}
	}
	artifactID, version, file := segments[n], segments[n+1], segments[n+2]
	if artifactID == "" || version == "" {
		return Coordinate{}, false
	}

	prefix := artifactID + "-" + version
	if !strings.HasPrefix(file, prefix) {
		return Coordinate{}, false
	}
	rest := file[len(prefix):]
	dot := strings.LastIndex(rest, ".")
	if dot < 0 || dot == len(rest)-1 {
		return Coordinate{}, false
	}
	classifier := strings.TrimPrefix(rest[:dot], "-")
	typ := rest[dot+1:]

	return New(group, artifactID, version, classifier, typ), true
}

func toSlash(p string) string {
	return strings.ReplaceAll(p, "\\", pathSeparator)
}
