package coordinate

import (
	"errors"
	"testing"

	"pgregory.net/rapid"

	rterrors "github.com/wippyai/artifact-runtime/errors"
)

func TestBaseVersion(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1.0.0", "1.0.0"},
		{"1.0.0-SNAPSHOT", "1.0.0"},
		{"2.3.4-rc.1+build.5", "2.3.4"},
		{"1.2", "1.2.0"},
		{"3", "3.0.0"},
		{"*", "*"},
		{"", ""},
		{"1.0.0.Final", "1.0.0.Final"},
		{"weird-qualifier", "weird"},
	}

	for _, tt := range tests {
		if got := BaseVersion(tt.input); got != tt.want {
			t.Errorf("BaseVersion(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCompatible(t *testing.T) {
	req := New("g", "a", "1.0.0", "", "jar")
	tests := []struct {
		actual string
		compat bool
	}{
		{"1.0.0", true},  // exact match
		{"1.0.1", true},  // patch higher
		{"1.3.0", true},  // minor higher
		{"0.9.0", false}, // lower
		{"2.0.0", false}, // major different
		{"1.0.1-SNAPSHOT", true},
	}

	for _, tt := range tests {
		actual := New("g", "a", tt.actual, "", "jar")
		if got := Compatible(actual, req); got != tt.compat {
			t.Errorf("Compatible(%s, %s) = %v, want %v", actual, req, got, tt.compat)
		}
	}

	if Compatible(New("g", "other", "1.0.0", "", "jar"), req) {
		t.Error("different artifact must not be compatible")
	}
	if Compatible(New("g", "a", "1.0.0", "tests", "jar"), req) {
		t.Error("different classifier must not be compatible")
	}
	if !Compatible(New("g", "a", "7.1.0", "", "jar"), New("g", "a", Wildcard, "", "jar")) {
		t.Error("wildcard request should accept any version")
	}
}

func TestEqualUsesBaseVersion(t *testing.T) {
	a := New("g", "a", "1.0.0-SNAPSHOT", "", "jar")
	b := New("g", "a", "1.0.0", "", "jar")
	if !a.Equal(b) {
		t.Errorf("%s should equal %s", a, b)
	}
	m := map[Key]string{a.Key(): "x"}
	if m[b.Key()] != "x" {
		t.Error("keys of equal coordinates should collide")
	}
}

func TestParseRequest(t *testing.T) {
	tests := []struct {
		input    string
		want     Coordinate
		resource string
	}{
		{
			input:    "resource::com.acme:lib:1.0.0:jar:META-INF/app.properties",
			want:     New("com.acme", "lib", "1.0.0", "", "jar"),
			resource: "META-INF/app.properties",
		},
		{
			input:    "resource::com.acme:lib:1.0.0:tests:jar:a/b.txt",
			want:     New("com.acme", "lib", "1.0.0", "tests", "jar"),
			resource: "a/b.txt",
		},
		{
			input:    "resource::com.acme:lib:1.0.0::zip:/x.txt",
			want:     New("com.acme", "lib", "1.0.0", "", "zip"),
			resource: "x.txt",
		},
		{
			input:    "resource::com.acme:lib:*:jar:x.txt",
			want:     New("com.acme", "lib", "*", "", "jar"),
			resource: "x.txt",
		},
	}

	for _, tt := range tests {
		req, err := ParseRequest(tt.input)
		if err != nil {
			t.Errorf("ParseRequest(%q) error: %v", tt.input, err)
			continue
		}
		if req.Coordinate != tt.want {
			t.Errorf("ParseRequest(%q) = %+v, want %+v", tt.input, req.Coordinate, tt.want)
		}
		if req.Resource != tt.resource {
			t.Errorf("ParseRequest(%q) resource = %q, want %q", tt.input, req.Resource, tt.resource)
		}
	}
}

func TestParseRequest_Malformed(t *testing.T) {
	inputs := []string{
		"com.acme:lib:1.0.0:jar:x.txt",         // no prefix
		"resource::com.acme:lib:1.0.0",         // too short
		"resource::com.acme:*:1.0.0:jar:x.txt", // wildcard artifact
		"resource::com acme:lib:1.0.0:jar:x",   // whitespace group
		"resource::com.acme:lib:1.0.0:*:x.txt", // wildcard type
		"resource::com.acme:lib:1.0.0:jar:x*",  // wildcard resource
	}

	for _, in := range inputs {
		_, err := ParseRequest(in)
		if err == nil {
			t.Errorf("ParseRequest(%q) expected error", in)
			continue
		}
		if !errors.Is(err, rterrors.ErrMalformedCoordinate) {
			t.Errorf("ParseRequest(%q) error = %v, want malformed coordinate", in, err)
		}
	}
}

func TestParse(t *testing.T) {
	c, err := Parse("com.acme:shop:1.0.1:mule-domain")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Group != "com.acme" || c.ArtifactID != "shop" || c.Version != "1.0.1" || c.Type != "mule-domain" || c.Classifier != "" {
		t.Errorf("Parse = %+v", c)
	}
	if c.String() != "com.acme:shop:1.0.1:mule-domain" {
		t.Errorf("String() = %q", c.String())
	}

	c, err = Parse("com.acme:shop:1.0.1:tests:jar")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Classifier != "tests" {
		t.Errorf("Classifier = %q, want tests", c.Classifier)
	}

	for _, bad := range []string{"", "a:b", "a::1:jar", "a:b:1:c:d:e"} {
		if _, err := Parse(bad); err == nil {
			t.Errorf("Parse(%q) expected error", bad)
		}
	}
}

func TestFromLocation(t *testing.T) {
	tests := []struct {
		location string
		want     Coordinate
		ok       bool
	}{
		{
			location: "/repo/com/acme/lib/1.0.0/lib-1.0.0.jar",
			want:     New("com.acme", "lib", "1.0.0", "", "jar"),
			ok:       true,
		},
		{
			location: "/repo/com/acme/lib/1.0.0/lib-1.0.0-tests.jar",
			want:     New("com.acme", "lib", "1.0.0", "tests", "jar"),
			ok:       true,
		},
		{
			// hyphenated classifier is kept whole
			location: "/repo/com/acme/lib/1.0.0/lib-1.0.0-mule-plugin.zip",
			want:     New("com.acme", "lib", "1.0.0", "mule-plugin", "zip"),
			ok:       true,
		},
		{
			location: "/repo/com/acme/lib/1.0.0/other-1.0.0.jar",
			ok:       false,
		},
		{
			location: "/repo/org/other/lib/1.0.0/lib-1.0.0.jar",
			ok:       false,
		},
		{
			location: "/repo/com/acme/lib/lib.jar",
			ok:       false,
		},
	}

	for _, tt := range tests {
		got, ok := FromLocation(tt.location, "com.acme")
		if ok != tt.ok {
			t.Errorf("FromLocation(%q) ok = %v, want %v", tt.location, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("FromLocation(%q) = %+v, want %+v", tt.location, got, tt.want)
		}
	}
}

func TestMatchesLocation(t *testing.T) {
	loc := "/repo/com/acme/lib/1.0.0/lib-1.0.0-tests.jar"
	tests := []struct {
		c    Coordinate
		want bool
	}{
		{New("com.acme", "lib", "1.0.0", "tests", "jar"), true},
		{New("com.acme", "lib", Wildcard, "tests", "jar"), true},
		{New("com.acme", "lib", "1.0", "tests", "jar"), false},
		{New("com.acme", "lib", "1.0.0", "", "zip"), false},
		{New("com.acme", "other", "1.0.0", "tests", "jar"), false},
	}
	for _, tt := range tests {
		if got := tt.c.MatchesLocation(loc); got != tt.want {
			t.Errorf("%s.MatchesLocation(%q) = %v, want %v", tt.c, loc, got, tt.want)
		}
	}
}

func genCoordinate(t *rapid.T, label string) Coordinate {
	ident := rapid.StringMatching(`[a-z][a-z0-9]{0,6}`)
	version := rapid.StringMatching(`[0-9]{1,2}\.[0-9]{1,2}\.[0-9]{1,2}`)
	return New(
		ident.Draw(t, label+"-group"),
		ident.Draw(t, label+"-artifact"),
		version.Draw(t, label+"-version"),
		rapid.SampledFrom([]string{"", "tests", "sources"}).Draw(t, label+"-classifier"),
		rapid.SampledFrom([]string{"jar", "zip"}).Draw(t, label+"-type"),
	)
}

func TestSameArtifact_WildcardIgnoresVersion(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := genCoordinate(t, "a")
		b := a
		b.Version = rapid.StringMatching(`[0-9]{1,2}\.[0-9]{1,2}`).Draw(t, "other-version")
		b.BaseVersion = BaseVersion(b.Version)

		wa := New(a.Group, a.ArtifactID, Wildcard, a.Classifier, a.Type)
		if !SameArtifact(wa, b) || !SameArtifact(b, wa) {
			t.Fatalf("wildcard %s should match %s", wa, b)
		}
	})
}

func TestSameArtifact_ShapeMismatch(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := genCoordinate(t, "a")
		b := genCoordinate(t, "b")
		if SameArtifact(a, b) != (sameShape(a, b) && a.BaseVersion == b.BaseVersion) {
			t.Fatalf("SameArtifact(%s, %s) inconsistent", a, b)
		}
		if SameArtifact(a, b) != SameArtifact(b, a) {
			t.Fatalf("SameArtifact not symmetric for %s, %s", a, b)
		}
	})
}

func TestFromLocation_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := genCoordinate(t, "c")
		file := c.ArtifactID + "-" + c.Version
		if c.Classifier != "" {
			file += "-" + c.Classifier
		}
		loc := "/root/" + c.RepositoryPath() + file + "." + c.Type
		if !c.MatchesLocation(loc) {
			t.Fatalf("%s should match %q", c, loc)
		}
		got, ok := FromLocation(loc, c.Group)
		if !ok || got != c {
			t.Fatalf("FromLocation(%q) = %+v, %v; want %+v", loc, got, ok, c)
		}
	})
}
