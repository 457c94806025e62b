package unit

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/spf13/afero"
	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/wippyai/artifact-runtime/coordinate"
)

// Parent is what a unit delegates to when a name is not resolved locally.
// Units, regions and filtered views implement it.
type Parent interface {
	FindResource(name string) (Location, bool)
	LoadSymbol(ctx context.Context, name string) (*Symbol, error)
}

// Config configures a Unit.
type Config struct {
	// Fs is the filesystem search-path entries live on. Defaults to the OS.
	Fs afero.Fs
	// Parent is the non-owning delegation parent.
	Parent Parent
	// Natives receives native handles registered through the unit.
	Natives *Natives
	// Releasers override the default per-family releasers.
	Releasers map[string]Releaser
	// RuntimeConfig configures the wazero runtime symbols compile in.
	RuntimeConfig wazero.RuntimeConfig
	// ID names the unit within its region.
	ID string
	// Owner is the deployable the unit belongs to. Disposal warnings carry it.
	Owner string
	// Coordinate identifies the artifact the unit was created for, if any.
	Coordinate coordinate.Coordinate
	// SearchPath lists directories and archives, in lookup order.
	SearchPath []string
	// Families is the touch-tracking table. nil means DefaultFamilies.
	Families []Family
	Policy   LookupPolicy
}

// Unit is an isolation unit: a resolution scope with its own search path and
// a delegation parent.
//
// Resolution is safe for concurrent use. Dispose must not race with
// in-flight resolution.
type Unit struct {
	fs            afero.Fs
	parent        Parent
	natives       *Natives
	releasers     map[string]Releaser
	runtimeConfig wazero.RuntimeConfig
	runtime       wazero.Runtime
	companions    map[coordinate.Key]*Unit
	symbols       map[string]*Symbol
	archives      map[string]*archive
	touched       []atomic.Bool
	families      []Family
	listeners     []func() error
	searchPath    []string
	id            string
	owner         string
	coord         coordinate.Coordinate
	policy        LookupPolicy
	mu            sync.RWMutex // parent, companions
	cacheMu       sync.Mutex   // symbols, archives, runtime
	listenersMu   sync.Mutex
	disposed      atomic.Bool
}

// New creates a unit.
func New(cfg Config) *Unit {
	fs := cfg.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	families := cfg.Families
	if families == nil {
		families = DefaultFamilies
	}
	rc := cfg.RuntimeConfig
	if rc == nil {
		rc = wazero.NewRuntimeConfig()
	}

	searchPath := make([]string, 0, len(cfg.SearchPath))
	for _, entry := range cfg.SearchPath {
		if entry == "" {
			continue
		}
		searchPath = append(searchPath, filepath.ToSlash(filepath.Clean(entry)))
	}

	return &Unit{
		fs:            fs,
		parent:        cfg.Parent,
		natives:       cfg.Natives,
		releasers:     cfg.Releasers,
		runtimeConfig: rc,
		companions:    make(map[coordinate.Key]*Unit),
		symbols:       make(map[string]*Symbol),
		archives:      make(map[string]*archive),
		touched:       make([]atomic.Bool, len(families)),
		families:      families,
		searchPath:    searchPath,
		id:            cfg.ID,
		owner:         cfg.Owner,
		coord:         cfg.Coordinate,
		policy:        cfg.Policy,
	}
}

// ID returns the unit's id.
func (u *Unit) ID() string { return u.id }

// Owner returns the name of the deployable the unit belongs to.
func (u *Unit) Owner() string { return u.owner }

// Coordinate returns the artifact coordinate the unit was created for.
func (u *Unit) Coordinate() coordinate.Coordinate { return u.coord }

// Policy returns the unit's lookup policy.
func (u *Unit) Policy() LookupPolicy { return u.policy }

// SearchPath returns a copy of the unit's search path.
func (u *Unit) SearchPath() []string {
	return append([]string(nil), u.searchPath...)
}

// Parent returns the current delegation parent, or nil.
func (u *Unit) Parent() Parent {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.parent
}

// SetParent replaces the delegation parent. The unit never disposes it.
func (u *Unit) SetParent(p Parent) {
	u.mu.Lock()
	u.parent = p
	u.mu.Unlock()
}

// Disposed reports whether Dispose has been called.
func (u *Unit) Disposed() bool {
	return u.disposed.Load()
}

// AddShutdownListener registers fn to run during disposal. Listeners run in
// registration order; their errors and panics are logged and never rethrown.
func (u *Unit) AddShutdownListener(fn func() error) {
	u.listenersMu.Lock()
	defer u.listenersMu.Unlock()
	u.listeners = append(u.listeners, fn)
}

// FindResource resolves a resource name.
//
// Names of the form resource::group:artifactId:version:[classifier:]type:path
// are resolved against a companion unit for that coordinate first. A request
// that does not parse, or that no companion can serve, falls through to the
// ordinary lookup.
func (u *Unit) FindResource(name string) (Location, bool) {
	if coordinate.IsRequest(name) {
		req, err := coordinate.ParseRequest(name)
		if err != nil {
			Logger().Debug("malformed coordinate request",
				zap.String("unit", u.id),
				zap.String("name", name),
				zap.Error(err))
		} else if loc, ok := u.findCompanionResource(req); ok {
			return loc, true
		}
	}

	name = cleanResource(name)
	if u.policy.For(ResourceNamespace(name)) == ParentFirst {
		if loc, ok := u.findInParent(name); ok {
			return loc, true
		}
		return u.findLocal(name)
	}
	if loc, ok := u.findLocal(name); ok {
		return loc, true
	}
	return u.findInParent(name)
}

func (u *Unit) findInParent(name string) (Location, bool) {
	p := u.Parent()
	if p == nil {
		return Location{}, false
	}
	return p.FindResource(name)
}
