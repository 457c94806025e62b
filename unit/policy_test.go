package unit

import "testing"

func TestLookupPolicy_For(t *testing.T) {
	lp := NewLookupPolicy(ChildFirst, map[string]Policy{
		"com.acme":            ParentFirst,
		"com.acme.internal":   ChildFirst,
		"org.apache.activemq": ParentFirst,
	})

	tests := []struct {
		ns   string
		want Policy
	}{
		{"com.acme", ParentFirst},
		{"com.acme.shared", ParentFirst},
		{"com.acme.internal", ChildFirst},
		{"com.acme.internal.deep", ChildFirst},
		{"com.acmecorp", ChildFirst}, // prefix match is per segment
		{"org.apache.activemq.broker", ParentFirst},
		{"", ChildFirst},
		{"net.other", ChildFirst},
	}

	for _, tt := range tests {
		if got := lp.For(tt.ns); got != tt.want {
			t.Errorf("For(%q) = %v, want %v", tt.ns, got, tt.want)
		}
	}
}

func TestLookupPolicy_ZeroValue(t *testing.T) {
	var lp LookupPolicy
	if lp.For("anything.at.all") != ChildFirst {
		t.Error("zero LookupPolicy should be child-first")
	}
}

func TestLookupPolicy_CopiesOverrides(t *testing.T) {
	m := map[string]Policy{"x": ParentFirst}
	lp := NewLookupPolicy(ChildFirst, m)
	m["x"] = ChildFirst
	if lp.For("x") != ParentFirst {
		t.Error("NewLookupPolicy should copy its map")
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"child-first", ChildFirst, false},
		{"PARENT_FIRST", ParentFirst, false},
		{" parent-first ", ParentFirst, false},
		{"sideways", ChildFirst, true},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePolicy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePolicy(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNamespaces(t *testing.T) {
	tests := []struct {
		fn   func(string) string
		in   string
		want string
	}{
		{SymbolNamespace, "com.acme.Checkout", "com.acme"},
		{SymbolNamespace, "Checkout", ""},
		{ResourceNamespace, "com/acme/app.properties", "com.acme"},
		{ResourceNamespace, "/com/acme/app.properties", "com.acme"},
		{ResourceNamespace, "app.properties", ""},
		{SymbolResource, "com.acme.Checkout", "com/acme/Checkout.wasm"},
	}
	for _, tt := range tests {
		if got := tt.fn(tt.in); got != tt.want {
			t.Errorf("f(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
