// Package coordinate identifies artifacts by group, artifact id, version,
// classifier and type.
//
// A Coordinate is an immutable value. Its Key drops the raw version in favor
// of the base version (pre-release qualifiers stripped) and is the identity
// used for map lookups:
//
//	c := coordinate.New("com.acme", "shop-domain", "1.0.0-SNAPSHOT", "", "jar")
//	c.BaseVersion // "1.0.0"
//
// # Matching
//
//   - Equal: same key.
//   - SameArtifact: same group, artifact, classifier and type; versions are
//     ignored when either side is the Wildcard.
//   - Compatible: same shape, same major version, actual >= requested.
//
// # Requests and locations
//
// Resource names of the form
//
//	resource::group:artifactId:version:[classifier:]type:path/in/artifact
//
// are parsed by ParseRequest. Search-path locations in repository layout are
// turned back into coordinates by FromLocation on a best-effort basis.
package coordinate
