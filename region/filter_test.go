package region

import (
	"context"
	"testing"

	"github.com/spf13/afero"

	"github.com/wippyai/artifact-runtime/errors"
)

func TestExportFilter(t *testing.T) {
	f := NewExportFilter(
		[]string{"com.acme.shared"},
		[]string{"/META-INF/shared.properties", ""},
		[]string{"com.acme.internal.Escape"},
	)

	symbols := []struct {
		name string
		want bool
	}{
		{"com.acme.shared.Client", true},
		{"com.acme.shared.sub.Client", false}, // namespaces are exact
		{"com.acme.internal.Escape", true},
		{"com.acme.internal.Other", false},
	}
	for _, tt := range symbols {
		if got := f.ExportsSymbol(tt.name); got != tt.want {
			t.Errorf("ExportsSymbol(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}

	resources := []struct {
		name string
		want bool
	}{
		{"com/acme/shared/client.properties", true},
		{"META-INF/shared.properties", true},
		{"/META-INF/shared.properties", true},
		{"META-INF/other.properties", false},
	}
	for _, tt := range resources {
		if got := f.ExportsResource(tt.name); got != tt.want {
			t.Errorf("ExportsResource(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}

	if got := f.Resources(); len(got) != 1 || got[0] != "META-INF/shared.properties" {
		t.Errorf("Resources() = %v", got)
	}
	if f.IsEmpty() || !(ExportFilter{}).IsEmpty() {
		t.Error("IsEmpty mismatch")
	}
}

func TestFiltered(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, f := range []string{"/domain/com/acme/shared/a.txt", "/domain/com/acme/private/b.txt"} {
		if err := afero.WriteFile(fs, f, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	domain := newUnit(fs, "domain", "/domain")

	if Filtered(domain, ExportFilter{}) != domain {
		t.Error("empty filter should return the parent unchanged")
	}

	view := Filtered(domain, NewExportFilter([]string{"com.acme.shared"}, nil, nil))
	if _, ok := view.FindResource("com/acme/shared/a.txt"); !ok {
		t.Error("exported resource should pass")
	}
	if _, ok := view.FindResource("com/acme/private/b.txt"); ok {
		t.Error("unexported resource should be hidden")
	}
	if _, err := view.LoadSymbol(context.Background(), "com.acme.private.Thing"); !errors.HasKind(err, errors.KindNotFound) {
		t.Errorf("unexported symbol = %v, want not found", err)
	}
}
