package region

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/tetratelabs/wazero"

	"github.com/wippyai/artifact-runtime/arena"
	"github.com/wippyai/artifact-runtime/errors"
	"github.com/wippyai/artifact-runtime/unit"
)

var runModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x04, 0x01, 0x60, 0x00, 0x00,
	0x03, 0x02, 0x01, 0x00,
	0x07, 0x07, 0x01, 0x03, 'r', 'u', 'n', 0x00, 0x00,
	0x0a, 0x04, 0x01, 0x02, 0x00, 0x0b,
}

func newUnit(fs afero.Fs, id string, searchPath ...string) *unit.Unit {
	return unit.New(unit.Config{
		Fs:            fs,
		RuntimeConfig: wazero.NewRuntimeConfigInterpreter(),
		ID:            id,
		Owner:         "shop-app",
		SearchPath:    searchPath,
	})
}

func fixture(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := []string{
		"/app/com/acme/a/x.txt",
		"/app/com/acme/b/x.txt",
		"/app/com/acme/app/x.txt",
		"/plugin-a/com/acme/a/x.txt",
		"/plugin-b/com/acme/b/x.txt",
		"/plugin-b/com/acme/a/x.txt",
		"/plugin-b/config.yaml",
	}
	for _, f := range files {
		if err := afero.WriteFile(fs, f, []byte(f), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return fs
}

func TestRegion_FilterPrecedence(t *testing.T) {
	fs := fixture(t)
	primary := newUnit(fs, "app", "/app")
	pluginB := newUnit(fs, "plugin-b", "/plugin-b")
	pluginA := newUnit(fs, "plugin-a", "/plugin-a")

	r := New("shop-app", primary)
	if err := r.AddChild(pluginB, NewExportFilter([]string{"com.acme.b"}, []string{"config.yaml"}, nil)); err != nil {
		t.Fatalf("AddChild(b): %v", err)
	}
	if err := r.AddChild(pluginA, NewExportFilter([]string{"com.acme.a"}, nil, nil)); err != nil {
		t.Fatalf("AddChild(a): %v", err)
	}

	tests := []struct {
		name string
		want *unit.Unit
	}{
		{"com/acme/a/x.txt", pluginA}, // b is registered first but does not export com.acme.a
		{"com/acme/b/x.txt", pluginB},
		{"config.yaml", pluginB},
		{"com/acme/app/x.txt", primary},
	}
	for _, tt := range tests {
		loc, ok := r.FindResource(tt.name)
		if !ok {
			t.Errorf("FindResource(%q) failed", tt.name)
			continue
		}
		if loc.Unit() != tt.want {
			t.Errorf("FindResource(%q) served by %s, want %s", tt.name, loc.Unit().ID(), tt.want.ID())
		}
	}

	if got := len(r.Children()); got != 2 {
		t.Errorf("Children() = %d, want 2", got)
	}
	if r.Primary() != primary {
		t.Error("Primary() mismatch")
	}
}

func TestRegion_CompositionConflict(t *testing.T) {
	fs := fixture(t)
	r := New("shop-app", newUnit(fs, "app", "/app"))

	if err := r.AddChild(newUnit(fs, "p1", "/plugin-a"), NewExportFilter([]string{"com.acme.db"}, nil, nil)); err != nil {
		t.Fatalf("AddChild(p1): %v", err)
	}
	err := r.AddChild(newUnit(fs, "p2", "/plugin-b"), NewExportFilter([]string{"com.acme.other", "com.acme.db"}, nil, nil))
	if !stderrors.Is(err, errors.ErrCompositionConflict) {
		t.Fatalf("AddChild(p2) = %v, want composition conflict", err)
	}
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Value != "com.acme.db" || e.Artifact != "p2" {
		t.Errorf("conflict error = %+v", e)
	}
	if len(r.Children()) != 1 {
		t.Error("conflicting child must not be added")
	}
	if err := r.AddChild(newUnit(fs, "p3", "/plugin-b"), NewExportFilter([]string{"com.acme.other"}, nil, nil)); err != nil {
		t.Errorf("namespace of rejected child should stay free: %v", err)
	}
}

func TestRegion_LoadSymbol(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, f := range []string{"/app/com/acme/Main.wasm", "/plugin/com/acme/db/Pool.wasm", "/plugin/com/acme/db/Hidden.wasm", "/plugin/com/acme/util/Helper.wasm"} {
		if err := afero.WriteFile(fs, f, runModule, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	ctx := context.Background()
	primary := newUnit(fs, "app", "/app")
	plugin := newUnit(fs, "db", "/plugin")
	r := New("shop-app", primary)
	defer r.Dispose(ctx)
	if err := r.AddChild(plugin, NewExportFilter([]string{"com.acme.db"}, nil, []string{"com.acme.util.Helper"})); err != nil {
		t.Fatal(err)
	}

	sym, err := r.LoadSymbol(ctx, "com.acme.db.Pool")
	if err != nil || sym.Location.Unit() != plugin {
		t.Errorf("LoadSymbol(Pool) = %v, %v; want from plugin", sym, err)
	}
	sym, err = r.LoadSymbol(ctx, "com.acme.util.Helper")
	if err != nil || sym.Location.Unit() != plugin {
		t.Errorf("explicit export should be served by plugin: %v", err)
	}
	sym, err = r.LoadSymbol(ctx, "com.acme.Main")
	if err != nil || sym.Location.Unit() != primary {
		t.Errorf("LoadSymbol(Main) = %v; want from primary", err)
	}
	if _, err := r.LoadSymbol(ctx, "com.acme.db.Missing"); !errors.HasKind(err, errors.KindNotFound) {
		t.Errorf("missing exported symbol = %v, want not found", err)
	}
}

func TestRegion_SetParent(t *testing.T) {
	fs := fixture(t)
	domain := newUnit(fs, "domain", "/plugin-b")
	primary := newUnit(fs, "app", "/app")
	plugin := newUnit(fs, "p", "/plugin-a")

	r := New("shop-app", primary)
	if err := r.AddChild(plugin, NewExportFilter([]string{"com.acme.a"}, nil, nil)); err != nil {
		t.Fatal(err)
	}
	r.SetParent(domain)

	if primary.Parent() != domain || plugin.Parent() != domain {
		t.Error("SetParent should reach every unit")
	}
	if loc, ok := r.FindResource("config.yaml"); !ok || loc.Unit() != domain {
		t.Error("primary should delegate to the new parent")
	}
}

func TestRegion_Dispose(t *testing.T) {
	fs := fixture(t)
	primary := newUnit(fs, "app", "/app")
	first := newUnit(fs, "first", "/plugin-a")
	second := newUnit(fs, "second", "/plugin-b")
	parent := newUnit(fs, "domain", "/plugin-b")

	var order []string
	for _, u := range []*unit.Unit{primary, first, second} {
		id := u.ID()
		u.AddShutdownListener(func() error {
			order = append(order, id)
			return nil
		})
	}

	r := New("shop-app", primary)
	_ = r.AddChild(first, NewExportFilter([]string{"com.acme.a"}, nil, nil))
	_ = r.AddChild(second, NewExportFilter([]string{"com.acme.b"}, nil, nil))
	r.SetParent(parent)

	ctx := context.Background()
	if err := r.Dispose(ctx); err != nil {
		t.Fatalf("Dispose: %v", err)
	}
	want := []string{"second", "first", "app"}
	if len(order) != 3 || order[0] != want[0] || order[1] != want[1] || order[2] != want[2] {
		t.Errorf("dispose order = %v, want %v", order, want)
	}
	if parent.Disposed() {
		t.Error("region must not dispose its parent")
	}

	if err := r.Dispose(ctx); err != nil {
		t.Errorf("second Dispose = %v", err)
	}
	if len(order) != 3 {
		t.Error("second Dispose ran listeners again")
	}
	if _, ok := r.FindResource("com/acme/app/x.txt"); ok {
		t.Error("disposed region should not resolve")
	}
	if err := r.AddChild(newUnit(fs, "late", "/app"), ExportFilter{}); !stderrors.Is(err, errors.ErrInvalidState) {
		t.Errorf("AddChild after Dispose = %v, want invalid state", err)
	}
}

func TestRegion_DistinctIDs(t *testing.T) {
	fs := afero.NewMemMapFs()
	a := New("shop-app", newUnit(fs, "app"))
	b := New("shop-app", newUnit(fs, "app"))
	if a.ID() == b.ID() {
		t.Error("each region build should get its own id")
	}
}

type unitLog struct {
	events []string
}

func (l *unitLog) OnArenaEvent(e arena.Event) {
	op := "+"
	if e.Type == arena.EventRemoved {
		op = "-"
	}
	l.events = append(l.events, op+Role(e.Tag)+":"+e.Value.(*unit.Unit).ID())
}

func TestRegion_Observers(t *testing.T) {
	fs := fixture(t)
	log := &unitLog{}

	r := New("shop-app", newUnit(fs, "app", "/app"), log, nil)
	if err := r.AddChild(newUnit(fs, "plugin-a", "/plugin-a"), NewExportFilter([]string{"com.acme.a"}, nil, nil)); err != nil {
		t.Fatalf("AddChild: %v", err)
	}
	// a rejected child never enters the region
	conflict := newUnit(fs, "plugin-b", "/plugin-b")
	if err := r.AddChild(conflict, NewExportFilter([]string{"com.acme.a"}, nil, nil)); err == nil {
		t.Fatal("expected a composition conflict")
	}
	_ = conflict.Dispose(context.Background())

	if err := r.Dispose(context.Background()); err != nil {
		t.Fatalf("Dispose: %v", err)
	}

	want := []string{"+primary:app", "+child:plugin-a", "-primary:app", "-child:plugin-a"}
	if len(log.events) != len(want) {
		t.Fatalf("events = %v, want %v", log.events, want)
	}
	for i := range want {
		if log.events[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, log.events[i], want[i])
		}
	}
}
