package coordinate

import (
	"path"
	"regexp"
	"strings"

	"github.com/wippyai/artifact-runtime/errors"
)

// RequestPrefix marks a resource name that addresses an artifact by coordinate.
const RequestPrefix = "resource::"

// resource::group:artifactId:version:[classifier:]type:resource
// Group, artifactId, classifier and type reject the wildcard and whitespace;
// the version may be the wildcard; the resource rejects the wildcard.
var requestPattern = regexp.MustCompile(
	`^` + regexp.QuoteMeta(RequestPrefix) +
		`([^*\s:]+):` + // group
		`([^*\s:]+):` + // artifactId
		`([^\s:]+):` + // version
		`(?:([^*\s:]*):)?` + // classifier
		`([^*\s:]+):` + // type
		`([^*]+)$`) // resource

// Request is a parsed coordinate-addressed resource name.
type Request struct {
	Coordinate Coordinate
	Resource   string
}

// IsRequest reports whether name uses the coordinate request syntax.
func IsRequest(name string) bool {
	return strings.HasPrefix(name, RequestPrefix)
}

// ParseRequest parses a coordinate request. The resource part is normalized
// to a clean relative path.
func ParseRequest(name string) (Request, error) {
	if !IsRequest(name) {
		return Request{}, errors.MalformedCoordinate(name, "missing "+RequestPrefix+" prefix")
	}
	m := requestPattern.FindStringSubmatch(name)
	if m == nil {
		return Request{}, errors.MalformedCoordinate(name, "expected group:artifactId:version:[classifier:]type:resource")
	}
	resource := strings.TrimPrefix(path.Clean("/"+m[6]), "/")
	if resource == "" {
		return Request{}, errors.MalformedCoordinate(name, "empty resource path")
	}
	return Request{
		Coordinate: New(m[1], m[2], m[3], m[4], m[5]),
		Resource:   resource,
	}, nil
}

// Parse parses the short form group:artifactId:version[:classifier]:type
// used by descriptors and the command line.
func Parse(s string) (Coordinate, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	for _, p := range parts {
		if p == "" || strings.ContainsAny(p, " \t\n") {
			return Coordinate{}, errors.InvalidInput(errors.PhaseParse, "malformed coordinate "+s)
		}
	}
	switch len(parts) {
	case 4:
		return New(parts[0], parts[1], parts[2], "", parts[3]), nil
	case 5:
		return New(parts[0], parts[1], parts[2], parts[3], parts[4]), nil
	default:
		return Coordinate{}, errors.InvalidInput(errors.PhaseParse,
			"malformed coordinate "+s+": expected group:artifactId:version[:classifier]:type")
	}
}

// MustParse is like Parse but panics on error. Intended for tests and fixtures.
func MustParse(s string) Coordinate {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}
