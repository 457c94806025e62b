package deploy

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/artifact-runtime/coordinate"
	"github.com/wippyai/artifact-runtime/errors"
)

func testDomain(name, coord string) *Domain {
	d := &Domain{}
	d.name = name
	if coord != "" {
		c := coordinate.MustParse(coord)
		d.coord = &c
	}
	return d
}

func coordDep(s string) *Dependency {
	c := coordinate.MustParse(s)
	return &Dependency{Domain: &c}
}

func TestResolver_Resolve(t *testing.T) {
	d100 := testDomain("d100", "g:a:1.0.0:domain")
	d101 := testDomain("d101", "g:a:1.0.1:domain")
	d200 := testDomain("d200", "g:a:2.0.0:domain")
	bare := testDomain("bare", "")
	def := testDomain(DefaultDomainName, "")

	tests := []struct {
		name       string
		dep        *Dependency
		domains    []*Domain
		want       *Domain
		compatible bool
		wantErr    error
	}{
		{"exact", coordDep("g:a:1.0.0:domain"), []*Domain{d100}, d100, false, nil},
		{"compatible", coordDep("g:a:1.0.0:domain"), []*Domain{d101}, d101, true, nil},
		{"ambiguous", coordDep("g:a:1.0.0:domain"), []*Domain{d100, d101}, nil, false, errors.ErrAmbiguousDependency},
		{"older not compatible", coordDep("g:a:1.0.1:domain"), []*Domain{d100, d101}, d101, false, nil},
		{"major mismatch", coordDep("g:a:1.0.0:domain"), []*Domain{d200}, nil, false, errors.ErrDependencyNotFound},
		{"other artifact", coordDep("g:b:1.0.0:domain"), []*Domain{d100}, nil, false, errors.ErrDependencyNotFound},
		{"snapshot equals release", coordDep("g:a:1.0.0-SNAPSHOT:domain"), []*Domain{d100}, d100, false, nil},
		{"by name", &Dependency{Name: "d100"}, []*Domain{d100, d101}, d100, false, nil},
		{"by name ignores compatibility", &Dependency{Name: "d100", Domain: coordDep("g:a:1.0.1:domain").Domain}, []*Domain{d100, d101}, d100, false, nil},
		{"name not found", &Dependency{Name: "d101"}, []*Domain{d100}, nil, false, errors.ErrDependencyNotFound},
		{"name without coordinate", &Dependency{Name: "bare"}, []*Domain{bare}, nil, false, errors.ErrDescriptorMissing},
		{"default by name", &Dependency{Name: DefaultDomainName}, []*Domain{def}, def, false, nil},
		{"no dependency", nil, []*Domain{d100, def}, def, false, nil},
	}

	for _, tt := range tests {
		b, err := Resolver{}.Resolve("app", tt.dep, tt.domains)
		if tt.wantErr != nil {
			if !stderrors.Is(err, tt.wantErr) {
				t.Errorf("%s: error = %v, want %v", tt.name, err, tt.wantErr)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
			continue
		}
		if b.Domain != tt.want {
			t.Errorf("%s: bound to %v, want %s", tt.name, b.Domain, tt.want.name)
		}
		if b.Compatible != tt.compatible {
			t.Errorf("%s: Compatible = %v, want %v", tt.name, b.Compatible, tt.compatible)
		}
	}
}

func TestResolver_DefaultNotDeployed(t *testing.T) {
	b, err := Resolver{}.Resolve("app", nil, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if b.Domain != nil || !b.Default {
		t.Errorf("Resolve = %+v, want an unbound default", b)
	}
}

func TestResolver_AmbiguousCandidates(t *testing.T) {
	_, err := Resolver{}.Resolve("app", coordDep("g:a:1.0.0:domain"), []*Domain{
		testDomain("d101", "g:a:1.0.1:domain"),
		testDomain("d100", "g:a:1.0.0:domain"),
	})
	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("error = %v", err)
	}
	if len(e.Candidates) != 2 || e.Candidates[0] != "d100" || e.Candidates[1] != "d101" {
		t.Errorf("Candidates = %v, want [d100 d101]", e.Candidates)
	}
	if e.Artifact != "app" {
		t.Errorf("Artifact = %q, want app", e.Artifact)
	}
}

func TestDependency_NameReference(t *testing.T) {
	tests := []struct {
		name   string
		dep    *Dependency
		byName bool
		str    string
	}{
		{"nil", nil, false, "default domain"},
		{"empty", &Dependency{}, false, "default domain"},
		{"name", &Dependency{Name: "d100"}, true, "domain named d100"},
		{"name wins over coordinate", &Dependency{Name: "d100", Domain: coordDep("g:a:1.0.0:domain").Domain}, true, "domain named d100"},
		{"coordinate", coordDep("g:a:1.0.0:domain"), false, "domain g:a:1.0.0:domain"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dep.IsNameReference(); got != tt.byName {
				t.Errorf("IsNameReference() = %v, want %v", got, tt.byName)
			}
			if got := tt.dep.String(); got != tt.str {
				t.Errorf("String() = %q, want %q", got, tt.str)
			}
		})
	}
}
